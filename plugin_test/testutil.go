package plugintest

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/bufbuild/protocompile"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/alis-exchange/protoc-gen-swift/plugin"
)

// updateGolden is a flag to update golden files instead of comparing against them.
// Usage: go test -update
var updateGolden = flag.Bool("update", false, "update golden files")

// testdataDir returns the path to the testdata directory relative to the plugin_test package.
func testdataDir() string {
	return filepath.Join("..", "testdata")
}

// protosDir returns the path to the protos directory within testdata.
func protosDir() string {
	return filepath.Join(testdataDir(), "protos")
}

// goldenDir returns the path to the golden files directory within testdata.
func goldenDir() string {
	return filepath.Join(testdataDir(), "golden")
}

// buildRequest compiles the named files from testdata/protos into a
// CodeGeneratorRequest, dependencies first, the way protoc would send it.
func buildRequest(t *testing.T, parameter string, filesToGenerate ...string) *pluginpb.CodeGeneratorRequest {
	t.Helper()

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: []string{protosDir()},
		}),
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	files, err := compiler.Compile(context.Background(), filesToGenerate...)
	if err != nil {
		t.Fatalf("Failed to compile %v: %v", filesToGenerate, err)
	}

	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: filesToGenerate,
		Parameter:      proto.String(parameter),
		CompilerVersion: &pluginpb.Version{
			Major: proto.Int32(3),
			Minor: proto.Int32(21),
			Patch: proto.Int32(12),
		},
	}

	seen := make(map[string]bool)
	var add func(fd protoreflect.FileDescriptor)
	add = func(fd protoreflect.FileDescriptor) {
		if seen[fd.Path()] {
			return
		}
		seen[fd.Path()] = true
		for i := 0; i < fd.Imports().Len(); i++ {
			add(fd.Imports().Get(i).FileDescriptor)
		}
		req.ProtoFile = append(req.ProtoFile, protodesc.ToFileDescriptorProto(fd))
	}
	for _, f := range files {
		add(f)
	}
	return req
}

// runPlugin feeds req to the plugin through its serialized interface and
// decodes the response.
func runPlugin(t *testing.T, req *pluginpb.CodeGeneratorRequest, version string) *pluginpb.CodeGeneratorResponse {
	t.Helper()

	in, err := proto.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	var out bytes.Buffer
	if err := plugin.Run(bytes.NewReader(in), &out, version); err != nil {
		t.Fatalf("plugin.Run failed: %v", err)
	}

	resp := &pluginpb.CodeGeneratorResponse{}
	if err := proto.Unmarshal(out.Bytes(), resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return resp
}

// responseFiles returns the generated files of resp by name.
func responseFiles(resp *pluginpb.CodeGeneratorResponse) map[string]string {
	files := make(map[string]string)
	for _, f := range resp.GetFile() {
		files[f.GetName()] = f.GetContent()
	}
	return files
}

// assertGoldenFile compares actual content against a golden file.
// If the -update flag is set, it updates the golden file instead.
func assertGoldenFile(t *testing.T, actual, goldenPath string, update bool) {
	t.Helper()

	if update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("Failed to create golden file directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, []byte(actual), 0o644); err != nil {
			t.Fatalf("Failed to update golden file %s: %v", goldenPath, err)
		}
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v\nRun with -update to create it", goldenPath, err)
	}

	if diff := cmp.Diff(string(expected), actual); diff != "" {
		t.Errorf("Output does not match golden file %s.\nRun with -update to update it.\n\n(-want +got):\n%s", goldenPath, diff)
	}
}
