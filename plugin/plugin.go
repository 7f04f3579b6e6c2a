package plugin

import (
	"fmt"
	"io"
	"strings"

	log "github.com/golang/glog"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
)

// goImportPathPrefix roots the placeholder Go import paths handed to protogen.
// Nothing Go-specific is generated, but protogen refuses files it cannot place
// in a Go package.
const goImportPathPrefix = "protoc-gen-swift/"

// Generate writes one Swift file per file protoc asked for, in the order of
// file_to_generate.
//
// The first failure is recorded with gen.Error and ends the run; protogen then
// answers with that error alone. When more than one file was requested the
// message is prefixed with the path of the failing file.
func Generate(gen *protogen.Plugin, opts *GeneratorOptions, version string) error {
	if opts == nil {
		opts = &GeneratorOptions{ModuleMappings: &ModuleMappings{}}
	}
	requested := gen.Request.GetFileToGenerate()

	generator := Generator{Version: version, Options: opts}
	registry := NewFilenameRegistry()

	for _, path := range requested {
		f, ok := gen.FilesByPath[path]
		if !ok || !f.Generate {
			continue
		}

		content, err := generator.generateFile(f)
		if err != nil {
			if len(requested) > 1 {
				err = fmt.Errorf("%s: %w", f.Desc.Path(), err)
			}
			gen.Error(err)
			return err
		}

		name := outputFilename(f.Desc.Path(), opts.FileNaming, string(f.Desc.Package()), registry)
		log.V(1).Infof("generated %s from %s", name, f.Desc.Path())

		g := gen.NewGeneratedFile(name, "")
		if _, err := g.Write([]byte(content)); err != nil {
			gen.Error(err)
			return err
		}
	}

	return nil
}

// Process answers a single CodeGeneratorRequest. Generation errors are
// reported inside the response, never returned.
func Process(req *pluginpb.CodeGeneratorRequest, version string) *pluginpb.CodeGeneratorResponse {
	auditCompilerVersion(req.GetCompilerVersion())

	opts, err := ParseOptions(req.GetParameter())
	if err != nil {
		return errorResponse(err)
	}

	gen, err := protogen.Options{}.New(withGoImportPaths(req))
	if err != nil {
		return errorResponse(err)
	}
	gen.SupportedFeatures = uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)

	// The error, if any, is already recorded on gen.
	_ = Generate(gen, opts, version)

	return gen.Response()
}

// Run reads a serialized CodeGeneratorRequest from in and writes the
// serialized response to out. Only a request or response that cannot be
// read or written is returned as an error.
func Run(in io.Reader, out io.Writer, version string) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading request: %w", err)
	}

	req := &pluginpb.CodeGeneratorRequest{}
	if err := proto.Unmarshal(data, req); err != nil {
		return fmt.Errorf("parsing request: %w", err)
	}

	resp := Process(req, version)

	data, err = proto.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func errorResponse(err error) *pluginpb.CodeGeneratorResponse {
	return &pluginpb.CodeGeneratorResponse{
		Error:             proto.String(err.Error()),
		SupportedFeatures: proto.Uint64(uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)),
	}
}

// auditCompilerVersion warns when protoc is too old, or too old to say, for
// the JSON support of the runtime to work as documented. It never fails.
func auditCompilerVersion(v *pluginpb.Version) {
	if v == nil {
		log.Warning("unknown version of protoc, use 3.2.x or later to ensure JSON support is correct.")
		return
	}
	if v.GetMajor() < 3 || (v.GetMajor() == 3 && v.GetMinor() < 2) {
		log.Warningf("protoc version %d.%d.%d is older than 3.2.x; JSON support may not be correct.",
			v.GetMajor(), v.GetMinor(), v.GetPatch())
	}
}

// withGoImportPaths returns a copy of req that protogen accepts: the Swift
// parameters are dropped, they are parsed separately, and every file gets a
// placeholder Go import path through an M parameter.
func withGoImportPaths(req *pluginpb.CodeGeneratorRequest) *pluginpb.CodeGeneratorRequest {
	out := proto.Clone(req).(*pluginpb.CodeGeneratorRequest)

	params := make([]string, 0, len(req.GetProtoFile()))
	for _, f := range req.GetProtoFile() {
		name := f.GetName()
		params = append(params, "M"+name+"="+goImportPathPrefix+strings.TrimSuffix(name, ".proto"))
	}
	out.Parameter = proto.String(strings.Join(params, ","))
	return out
}
