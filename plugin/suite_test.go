package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

const commonProto = `syntax = "proto3";

package shapes.v1;

message Point {
  int32 x = 1;
  int32 y = 2;
}
`

const shapesProto = `// Shapes used across the tests.

syntax = "proto3";

package shapes.v1;

import "shapes/v1/common.proto";

// Color of a shape.
enum Color {
  COLOR_UNSPECIFIED = 0;
  COLOR_RED = 1;
  // Prefer COLOR_RED.
  COLOR_BLUE = 2 [deprecated = true];
}

// A square.
message Square {
  option deprecated = true;

  // Length of each side.
  int32 side = 1;
  Color color = 2;
  Point origin = 3;
  repeated string tags = 4;
  map<string, int32> counts = 5;
  optional string label = 6;

  oneof fill {
    string pattern = 7;
    int32 solid = 8;
  }

  enum Kind {
    KIND_UNSPECIFIED = 0;
    KIND_FILLED = 1;
  }
  Kind kind = 9;
}

message Empty {}
`

const extensionsProto = `syntax = "proto2";

package ext.v1;

message Base {
  optional string name = 1;
  extensions 100 to 199;
}

extend Base {
  // How urgent the message is.
  optional int32 priority = 100;
}

message Holder {
  extend Base {
    repeated string aliases = 101;
  }
}
`

const conflictProto = `syntax = "proto3";

package bad.v1;

message Inner {}

message Bad {
  Inner foo = 1;
  int32 has_foo = 2;
}
`

// edgeProto holds names and defaults that need care when turned into Swift.
const edgeProto = `syntax = "proto2";

package edge.v1;

enum Keyword {
  KEYWORD_CLASS = 0;
  KEYWORD_2 = 1;
  DEFAULT = 2;
}

message Odd {
  optional int32 _ = 1;
  optional int32 _leading = 2;
  optional int32 _1 = 3;
  optional float ratio = 4 [default = inf];
  optional double low = 5 [default = -inf];
  optional double missing = 6 [default = nan];
  optional string text = 7 [default = "a\001\"\303\251\n"];
  optional bytes raw = 8 [default = "\001\002"];
  optional Keyword keyword = 9;
  optional Keyword picked = 10 [default = DEFAULT];
  optional int64 offset = 11 [default = -5];
  optional bool flag = 12 [default = true];
  extensions 100 to 199;
}

message Marks {
  enum Mark {
    MARK_NONE = 0;
    _ = 1;
  }
  optional Mark mark = 1;
}

extend Odd {
  optional int32 _ = 100;
}

message Nest {
  extend Odd {
    optional int32 _2 = 101;
  }
}
`

const importsDProto = `syntax = "proto3";

package imports;

message D {}
`

const importsBProto = `syntax = "proto3";

package imports;

import "imports/d.proto";

message B {
  D d = 1;
}
`

const importsAProto = `syntax = "proto3";

package imports;

import public "imports/b.proto";

message A {}
`

const importsCProto = `syntax = "proto3";

package imports;

import "imports/a.proto";

message C {
  A a = 1;
  B b = 2;
}
`

// importsMappings places every imports/*.proto file in its own module.
const importsMappings = `mapping:
  - module_name: ModA
    proto_file_path: [imports/a.proto]
  - module_name: ModB
    proto_file_path: [imports/b.proto]
  - module_name: ModC
    proto_file_path: [imports/c.proto]
  - module_name: ModD
    proto_file_path: [imports/d.proto]
`

// fixtures holds every .proto source the tests can compile, keyed by path.
var fixtures = map[string]string{
	"shapes/v1/common.proto": commonProto,
	"shapes/v1/shapes.proto": shapesProto,
	"ext/v1/ext.proto":       extensionsProto,
	"bad/v1/conflict.proto":  conflictProto,
	"edge/v1/edge.proto":     edgeProto,
	"imports/a.proto":        importsAProto,
	"imports/b.proto":        importsBProto,
	"imports/c.proto":        importsCProto,
	"imports/d.proto":        importsDProto,
}

// -----------------------------------------------------------------------------
// Base Suite
// -----------------------------------------------------------------------------

// PluginTestSuite is the base test suite shared by the plugin tests. It
// compiles inline .proto sources into descriptors, so no protoc binary is
// needed, and builds protogen.Plugin instances from them.
type PluginTestSuite struct {
	suite.Suite

	// sources are the .proto files available to compileRequest.
	sources map[string]string

	// plugin is a fresh protogen.Plugin over shapes.proto, created per test.
	plugin *protogen.Plugin

	// file is shapes.proto within plugin.
	file *protogen.File

	// generator is a Generator with default options.
	generator *Generator
}

// SetupTest creates a fresh plugin for each test. Tests may replace sources;
// they are reset here.
func (s *PluginTestSuite) SetupTest() {
	s.sources = fixtures
	s.plugin = s.newPlugin(s.compileRequest("", "shapes/v1/shapes.proto"))
	s.file = s.findFile(s.plugin, "shapes/v1/shapes.proto")
	s.generator = &Generator{Version: "test", Options: s.parseOptions("")}
}

// compileRequest compiles the named sources and returns a request generating
// them. Their imports are included in ProtoFile, dependencies first, but are
// not requested for generation.
func (s *PluginTestSuite) compileRequest(parameter string, filesToGenerate ...string) *pluginpb.CodeGeneratorRequest {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(s.sources),
		}),
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	files, err := compiler.Compile(context.Background(), filesToGenerate...)
	s.Require().NoError(err, "Failed to compile %v", filesToGenerate)

	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: filesToGenerate,
		CompilerVersion: &pluginpb.Version{
			Major: proto.Int32(3),
			Minor: proto.Int32(21),
		},
	}
	if parameter != "" {
		req.Parameter = &parameter
	}

	seen := make(map[string]bool)
	var add func(fd protoreflect.FileDescriptor)
	add = func(fd protoreflect.FileDescriptor) {
		if seen[fd.Path()] {
			return
		}
		seen[fd.Path()] = true
		imports := fd.Imports()
		for i := 0; i < imports.Len(); i++ {
			add(imports.Get(i).FileDescriptor)
		}
		req.ProtoFile = append(req.ProtoFile, protodesc.ToFileDescriptorProto(fd))
	}
	for _, f := range files {
		add(f)
	}
	return req
}

// newPlugin builds a protogen.Plugin the same way Process does.
func (s *PluginTestSuite) newPlugin(req *pluginpb.CodeGeneratorRequest) *protogen.Plugin {
	plugin, err := protogen.Options{}.New(withGoImportPaths(req))
	s.Require().NoError(err, "Failed to create protogen.Plugin")
	return plugin
}

func (s *PluginTestSuite) parseOptions(parameter string) *GeneratorOptions {
	opts, err := ParseOptions(parameter)
	s.Require().NoError(err, "Failed to parse options %q", parameter)
	return opts
}

// findFile finds a file in the plugin by path.
func (s *PluginTestSuite) findFile(plugin *protogen.Plugin, path string) *protogen.File {
	for _, f := range plugin.Files {
		if f.Desc.Path() == path {
			return f
		}
	}
	s.T().Fatalf("Could not find file %q", path)
	return nil
}

// FindMessage finds a top-level message in the current file by name.
func (s *PluginTestSuite) FindMessage(name string) *protogen.Message {
	for _, msg := range s.file.Messages {
		if string(msg.Desc.Name()) == name {
			return msg
		}
	}
	s.T().Fatalf("Could not find message %q in file %q", name, s.file.Desc.Path())
	return nil
}

// FindEnum finds a top-level enum in the current file by name.
func (s *PluginTestSuite) FindEnum(name string) *protogen.Enum {
	for _, enum := range s.file.Enums {
		if string(enum.Desc.Name()) == name {
			return enum
		}
	}
	s.T().Fatalf("Could not find enum %q in file %q", name, s.file.Desc.Path())
	return nil
}

// FindField finds a field in a message by name.
func (s *PluginTestSuite) FindField(msg *protogen.Message, name string) *protogen.Field {
	for _, field := range msg.Fields {
		if string(field.Desc.Name()) == name {
			return field
		}
	}
	s.T().Fatalf("Could not find field %q in message %q", name, msg.Desc.Name())
	return nil
}

// GenerateContent generates the Swift source of one fixture with the given
// parameter string.
func (s *PluginTestSuite) GenerateContent(path, parameter string) string {
	plugin := s.newPlugin(s.compileRequest(parameter, path))
	generator := &Generator{Version: "test", Options: s.parseOptions(parameter)}
	content, err := generator.generateFile(s.findFile(plugin, path))
	s.Require().NoError(err, "generateFile failed for %s", path)
	return content
}

// RunGenerate runs Generate over plugin and returns the response files by name.
func (s *PluginTestSuite) RunGenerate(plugin *protogen.Plugin, opts *GeneratorOptions) map[string]string {
	err := Generate(plugin, opts, "test")
	s.Require().NoError(err, "Generate failed")

	resp := plugin.Response()
	s.Require().Empty(resp.GetError(), "Generate response error: %s", resp.GetError())

	result := make(map[string]string)
	for _, file := range resp.File {
		result[file.GetName()] = file.GetContent()
	}
	return result
}

// setSwiftPrefix overrides the swift_prefix option of a compiled file.
func setSwiftPrefix(req *pluginpb.CodeGeneratorRequest, path, prefix string) {
	for _, f := range req.ProtoFile {
		if f.GetName() != path {
			continue
		}
		if f.Options == nil {
			f.Options = &descriptorpb.FileOptions{}
		}
		f.Options.SwiftPrefix = &prefix
	}
}

// indexOf returns the position of substr in s, failing the test when absent.
func (s *PluginTestSuite) indexOf(content, substr string) int {
	i := strings.Index(content, substr)
	s.Require().GreaterOrEqual(i, 0, "missing %q in:\n%s", substr, content)
	return i
}

// writeMappings writes a module mapping file for the current test and returns
// the parameter selecting it.
func (s *PluginTestSuite) writeMappings(content string) string {
	path := filepath.Join(s.T().TempDir(), "mappings.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return "ProtoPathModuleMappings=" + path
}
