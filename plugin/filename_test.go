package plugin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
)

// FilenameTestSuite contains tests for filename.go.
type FilenameTestSuite struct {
	suite.Suite
}

// TestFilenameSuite runs the FilenameTestSuite.
func TestFilenameSuite(t *testing.T) {
	suite.Run(t, new(FilenameTestSuite))
}

type protoInput struct {
	path string
	pkg  string
}

func resolveAll(naming FileNaming, inputs []protoInput) []string {
	reg := NewFilenameRegistry()
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		names = append(names, outputFilename(in.path, naming, in.pkg, reg))
	}
	return names
}

// TestOutputFilename covers each naming policy over a batch.
func (s *FilenameTestSuite) TestOutputFilename() {
	tests := []struct {
		name     string
		naming   FileNaming
		inputs   []protoInput
		expected []string
	}{
		{
			name:     "drop path of a nested file",
			naming:   FileNamingDropPath,
			inputs:   []protoInput{{path: "a/b.proto"}},
			expected: []string{"b.pb.swift"},
		},
		{
			name:     "full path dedupes across directories",
			naming:   FileNamingFullPath,
			inputs:   []protoInput{{path: "x.proto"}, {path: "y/x.proto"}},
			expected: []string{"x.pb.swift", "y/x.1.pb.swift"},
		},
		{
			name:   "drop path counts every repeat",
			naming: FileNamingDropPath,
			inputs: []protoInput{
				{path: "a/x.proto"}, {path: "b/x.proto"}, {path: "c/x.proto"}, {path: "y.proto"},
			},
			expected: []string{"x.pb.swift", "x.1.pb.swift", "x.2.pb.swift", "y.pb.swift"},
		},
		{
			name:     "path to underscores flattens directories",
			naming:   FileNamingPathToUnderscores,
			inputs:   []protoInput{{path: "a/b/c.proto"}, {path: "c.proto"}},
			expected: []string{"a_b_c.pb.swift", "c.pb.swift"},
		},
		{
			name:     "path to underscores does not dedupe",
			naming:   FileNamingPathToUnderscores,
			inputs:   []protoInput{{path: "a_b/c.proto"}, {path: "a/b_c.proto"}},
			expected: []string{"a_b_c.pb.swift", "a_b_c.pb.swift"},
		},
		{
			name:   "package qualified",
			naming: FileNamingPackageQualified,
			inputs: []protoInput{
				{path: "a/x.proto", pkg: "foo.bar"},
				{path: "b/x.proto", pkg: "foo.baz"},
			},
			expected: []string{"foo.bar/x.pb.swift", "foo.baz/x.1.pb.swift"},
		},
		{
			name:     "package qualified without a package",
			naming:   FileNamingPackageQualified,
			inputs:   []protoInput{{path: "a/x.proto"}},
			expected: []string{"x.pb.swift"},
		},
		{
			name:     "file without extension",
			naming:   FileNamingFullPath,
			inputs:   []protoInput{{path: "dir/schema"}},
			expected: []string{"dir/schema.pb.swift"},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got := resolveAll(tt.naming, tt.inputs)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				s.Failf("unexpected filenames", "(-want +got):\n%s", diff)
			}
		})
	}
}

// TestOutputFilenameDeterministic resolves the same batch twice.
func (s *FilenameTestSuite) TestOutputFilenameDeterministic() {
	inputs := []protoInput{{path: "a/x.proto"}, {path: "b/x.proto"}, {path: "x.proto"}}
	for _, naming := range []FileNaming{FileNamingFullPath, FileNamingDropPath, FileNamingPackageQualified} {
		s.Equal(resolveAll(naming, inputs), resolveAll(naming, inputs), naming.String())
	}
}

// TestOutputFilenameUnique checks every deduping policy hands out distinct
// names within a batch.
func (s *FilenameTestSuite) TestOutputFilenameUnique() {
	inputs := []protoInput{
		{path: "x.proto", pkg: "p"},
		{path: "a/x.proto", pkg: "p"},
		{path: "b/x.proto", pkg: "p"},
		{path: "a/y.proto", pkg: "p"},
	}
	for _, naming := range []FileNaming{FileNamingFullPath, FileNamingDropPath, FileNamingPackageQualified} {
		seen := make(map[string]bool)
		for _, name := range resolveAll(naming, inputs) {
			s.False(seen[name], "%s: duplicate %s", naming, name)
			seen[name] = true
		}
	}
}

// TestRegistriesAreIndependent verifies two runs do not share counters.
func (s *FilenameTestSuite) TestRegistriesAreIndependent() {
	first := NewFilenameRegistry()
	second := NewFilenameRegistry()
	s.Equal("x.pb.swift", outputFilename("x.proto", FileNamingDropPath, "", first))
	s.Equal("x.1.pb.swift", outputFilename("a/x.proto", FileNamingDropPath, "", first))
	s.Equal("x.pb.swift", outputFilename("x.proto", FileNamingDropPath, "", second))
}
