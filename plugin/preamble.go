package plugin

import (
	"errors"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"
)

// errPublicImplementationOnly is returned when @_implementationOnly imports are
// requested for generated code whose symbols are public. Swift rejects public
// declarations that expose types from an implementation-only import.
var errPublicImplementationOnly = errors.New("Cannot use @_implementationOnly imports when the proto visibility is public. " +
	"Either change the visibility to internal or package, or disable @_implementationOnly imports.")

// generatePreamble writes the header, the leading comment of the .proto file
// and the import block. Nothing is written when the options conflict.
func generatePreamble(p *printer, file *protogen.File, opts *GeneratorOptions, n *namer, version string) error {
	if opts.ImplementationOnlyImports && opts.Visibility == VisibilityPublic {
		return errPublicImplementationOnly
	}

	p.P("// DO NOT EDIT.")
	p.P("// swift-format-ignore-file")
	p.P("// swiftlint:disable all")
	p.P("//")
	p.P("// Generated by protoc-gen-swift ", version, ".")
	p.P("// Source: ", file.Desc.Path())
	p.P("//")
	p.P("// For information on using the generated types, please see the documentation:")
	p.P("//   https://github.com/apple/swift-protobuf/")
	p.P()

	comments := documentationComments(fileEntity(file), "file", withCommentPrefix("//"))
	if comments = strings.TrimRight(comments, "\n"); comments != "" {
		p.Raw(comments + "\n\n")
	}

	importKeyword := "import "
	if opts.UseAccessLevelOnImports {
		importKeyword = opts.Visibility.keyword() + " import "
	}
	p.P(importKeyword, "Foundation")
	p.P(importKeyword, "SwiftProtobuf")

	dependencyImport := importKeyword
	if opts.ImplementationOnlyImports {
		dependencyImport = "@_implementationOnly " + importKeyword
	}
	for _, module := range n.neededModules() {
		p.P(dependencyImport, module)
	}
	return nil
}

// generateVersionCheck pins the generated code to the SwiftProtobuf API
// version it was written against.
func generateVersionCheck(p *printer) {
	p.P("// If the compiler emits an error on this type, it is because this file")
	p.P("// was generated by a version of the `protoc` Swift plug-in that is")
	p.P("// incompatible with the version of SwiftProtobuf to which you are linking.")
	p.P("// Please ensure that you are building against the same version of the API")
	p.P("// that was used to generate this file.")
	p.P("fileprivate struct _GeneratedWithProtocGenSwiftVersion: SwiftProtobuf.ProtobufAPIVersionCheck {")
	p.Indent()
	p.P("struct _2: SwiftProtobuf.ProtobufAPIVersion_2 {}")
	p.P("typealias Version = _2")
	p.Outdent()
	p.P("}")
}
