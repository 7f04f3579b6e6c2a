package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// OptionsTestSuite contains tests for options.go.
type OptionsTestSuite struct {
	suite.Suite
}

// TestOptionsSuite runs the OptionsTestSuite.
func TestOptionsSuite(t *testing.T) {
	suite.Run(t, new(OptionsTestSuite))
}

// TestParseOptionsDefaults checks an empty parameter string.
func (s *OptionsTestSuite) TestParseOptionsDefaults() {
	opts, err := ParseOptions("")
	s.Require().NoError(err)
	s.Equal(FileNamingFullPath, opts.FileNaming)
	s.Equal(VisibilityInternal, opts.Visibility)
	s.False(opts.ImplementationOnlyImports)
	s.False(opts.UseAccessLevelOnImports)
	s.Require().NotNil(opts.ModuleMappings)
	s.Empty(opts.ModuleMappings.moduleFor("a.proto"))
}

// TestParseOptions covers valid parameter strings.
func (s *OptionsTestSuite) TestParseOptions() {
	tests := []struct {
		name      string
		parameter string
		check     func(*GeneratorOptions)
	}{
		{
			name:      "file naming",
			parameter: "FileNaming=DropPath",
			check:     func(o *GeneratorOptions) { s.Equal(FileNamingDropPath, o.FileNaming) },
		},
		{
			name:      "visibility and implementation only imports",
			parameter: "Visibility=Package,ImplementationOnlyImports=true",
			check: func(o *GeneratorOptions) {
				s.Equal(VisibilityPackage, o.Visibility)
				s.True(o.ImplementationOnlyImports)
			},
		},
		{
			name:      "access level on imports with spaces and empty entries",
			parameter: " Visibility=Public, ,UseAccessLevelOnImports=true,",
			check: func(o *GeneratorOptions) {
				s.Equal(VisibilityPublic, o.Visibility)
				s.True(o.UseAccessLevelOnImports)
			},
		},
		{
			name:      "last value wins",
			parameter: "FileNaming=DropPath,FileNaming=PackageQualified",
			check:     func(o *GeneratorOptions) { s.Equal(FileNamingPackageQualified, o.FileNaming) },
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			opts, err := ParseOptions(tt.parameter)
			s.Require().NoError(err)
			tt.check(opts)
		})
	}
}

// TestParseOptionsErrors covers malformed parameter strings.
func (s *OptionsTestSuite) TestParseOptionsErrors() {
	tests := []struct {
		name      string
		parameter string
		errText   string
	}{
		{
			name:      "missing value",
			parameter: "FileNaming",
			errText:   `generator parameter "FileNaming" is missing a value`,
		},
		{
			name:      "unknown key",
			parameter: "Bogus=1",
			errText:   `invalid generator parameter "Bogus=1"`,
		},
		{
			name:      "unknown file naming",
			parameter: "FileNaming=Flat",
			errText:   `unknown file naming "Flat"`,
		},
		{
			name:      "unknown visibility",
			parameter: "Visibility=private",
			errText:   `unknown visibility "private"`,
		},
		{
			name:      "bad boolean",
			parameter: "ImplementationOnlyImports=maybe",
			errText:   `invalid generator parameter "ImplementationOnlyImports=maybe"`,
		},
		{
			name:      "conflicting import options",
			parameter: "ImplementationOnlyImports=true,UseAccessLevelOnImports=true",
			errText:   "cannot both be enabled",
		},
		{
			name:      "missing mapping file",
			parameter: "ProtoPathModuleMappings=" + filepath.Join(os.TempDir(), "does-not-exist", "mappings.yaml"),
			errText:   "reading module mappings",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := ParseOptions(tt.parameter)
			s.Require().Error(err)
			s.ErrorContains(err, tt.errText)
		})
	}
}

// TestParseOptionsLoadsMappings reads the mapping file named by the parameter.
func (s *OptionsTestSuite) TestParseOptionsLoadsMappings() {
	path := filepath.Join(s.T().TempDir(), "mappings.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("mapping:\n  - module_name: Shapes\n    proto_file_path: [shapes/v1/common.proto]\n"), 0o600))

	opts, err := ParseOptions("ProtoPathModuleMappings=" + path)
	s.Require().NoError(err)
	s.Equal(path, opts.ModuleMappingsPath)
	s.Equal("Shapes", opts.ModuleMappings.moduleFor("shapes/v1/common.proto"))
}

// TestOptionValueStrings checks the names used in parameters round trip.
func (s *OptionsTestSuite) TestOptionValueStrings() {
	for _, naming := range []FileNaming{FileNamingFullPath, FileNamingPathToUnderscores, FileNamingDropPath, FileNamingPackageQualified} {
		var parsed FileNaming
		s.Require().NoError(parsed.Set(naming.String()))
		s.Equal(naming, parsed)
	}
	s.Equal("FileNaming(9)", FileNaming(9).String())

	s.Equal("", VisibilityInternal.declarationPrefix())
	s.Equal("public ", VisibilityPublic.declarationPrefix())
	s.Equal("package ", VisibilityPackage.declarationPrefix())
	s.Equal("internal", VisibilityInternal.keyword())
}
