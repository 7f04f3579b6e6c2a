// Package plugin provides the core functionality for the protoc-gen-swift plugin.
//
// This package converts Protocol Buffer files into Swift source code for the
// SwiftProtobuf runtime. Each requested .proto file produces exactly one
// <name>.pb.swift file.
//
// # Architecture
//
// Generation is driven file by file, in the order protoc lists the files:
//  1. Options: the parameter string (--swift_opt) is parsed once per run into
//     GeneratorOptions. A malformed parameter fails the whole run.
//  2. Sequencing: for each file, Generator validates the file level options,
//     writes the preamble and runs the enum, message and extension generators
//     in a fixed order into an in-memory printer.
//  3. Output: only when the file generated cleanly is its output name resolved
//     and the content handed to protogen. The first error ends the run and no
//     file is returned.
//
// # Generated File Structure
//
// Every generated file has the same sections, in this order:
//   - Header, leading .proto comment and imports
//   - The SwiftProtobuf API version check
//   - Enums, each followed by its CaseIterable conformance
//   - Messages, each followed by the CaseIterable conformances of its nested
//     enums inside a #if swift(>=4.2) block
//   - Extension support, when the file declares extensions
//   - Runtime support: name maps, decoding, traversal and equality
//
// # Options
//
// See GeneratorOptions for the supported parameters. Module mappings tell the
// plugin which Swift module holds the generated code of each imported .proto
// file so that the right import statements can be written.
package plugin

import (
	"fmt"
	"path"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/types/descriptorpb"
)

// -----------------------------------------------------------------------------
// Core Types
// -----------------------------------------------------------------------------

// typeGenerator is implemented by the generators of top-level declarations:
// enums and messages.
type typeGenerator interface {
	// generateMainDefinition writes the Swift type declaration. It may fail,
	// for example when two fields map to the same Swift name.
	generateMainDefinition(p *printer) error

	// generateCaseIterable writes CaseIterable conformances. Generators with
	// nothing to iterate write nothing.
	generateCaseIterable(p *printer)

	// generateRuntimeSupport writes the conformances to the SwiftProtobuf
	// runtime protocols.
	generateRuntimeSupport(p *printer)
}

// Generator turns one .proto file into Swift source.
//
// Generator holds no per-file state, so one value is reused for every file of
// a run.
type Generator struct {
	// Version is the plugin version recorded in the file header.
	Version string

	// Options are the parsed generator parameters.
	Options *GeneratorOptions
}

// -----------------------------------------------------------------------------
// Generator Methods
// -----------------------------------------------------------------------------

// generateFile returns the Swift source for file.
//
// The sections are written strictly in order and the first error aborts the
// file. Errors are returned as is; the caller decides whether to name the file
// in the message.
func (gr *Generator) generateFile(file *protogen.File) (string, error) {
	opts := gr.Options
	if opts == nil {
		opts = &GeneratorOptions{ModuleMappings: &ModuleMappings{}}
	}

	// --- Validate File Options ---
	if err := validateSwiftPrefix(file); err != nil {
		return "", err
	}

	n := newNamer(file, opts.ModuleMappings)
	p := &printer{}

	// --- Preamble ---
	if err := generatePreamble(p, file, opts, n, gr.Version); err != nil {
		return "", err
	}
	p.P()
	generateVersionCheck(p)

	// --- Build Sub-generators ---
	// Declaration order is kept so the output follows the .proto file.
	enums := make([]*enumGenerator, 0, len(file.Enums))
	for _, e := range file.Enums {
		enums = append(enums, newEnumGenerator(n, e, opts))
	}
	messages := make([]*messageGenerator, 0, len(file.Messages))
	for _, m := range file.Messages {
		messages = append(messages, newMessageGenerator(n, m, opts))
	}
	extensions := newExtensionSetGenerator(n, file, opts)

	// --- Enums ---
	for _, e := range enums {
		p.P()
		if err := e.generateMainDefinition(p); err != nil {
			return "", err
		}
		p.P()
		e.generateCaseIterable(p)
	}

	// --- Messages ---
	for _, m := range messages {
		p.P()
		if err := m.generateMainDefinition(p); err != nil {
			return "", err
		}

		caseIterable := &printer{}
		m.generateCaseIterable(caseIterable)
		if !caseIterable.IsEmpty() {
			p.P()
			p.P("#if swift(>=4.2)")
			p.P()
			p.Raw(caseIterable.Content())
			p.P()
			p.P("#endif  // swift(>=4.2)")
		}
	}

	// --- Extensions ---
	// Accessors, then the registry, then the declarations they both refer to.
	if !extensions.isEmpty() {
		p.P()
		p.P("// MARK: - Extension support defined in ", path.Base(file.Desc.Path()), ".")
		p.P()
		extensions.generateMessageSwiftExtensions(p)
		p.P()
		extensions.generateFileProtobufExtensionRegistry(p)
		p.P()
		extensions.generateProtobufExtensionDeclarations(p)
	}

	// --- Runtime Support ---
	if len(enums) > 0 || len(messages) > 0 {
		p.P()
		p.P("// MARK: - Code below here is support for the SwiftProtobuf runtime.")
		p.P()
		if pkg := file.Desc.Package(); pkg != "" && len(messages) > 0 {
			p.P("fileprivate let _protobuf_package = ", fmt.Sprintf("%q", string(pkg)))
			p.P()
		}

		runtime := make([]typeGenerator, 0, len(enums)+len(messages))
		for _, e := range enums {
			runtime = append(runtime, e)
		}
		for _, m := range messages {
			runtime = append(runtime, m)
		}
		for i, g := range runtime {
			if i > 0 {
				p.P()
			}
			g.generateRuntimeSupport(p)
		}
	}

	return p.Content(), nil
}

// validateSwiftPrefix checks the swift_prefix file option. An empty prefix is
// allowed and disables prefixing.
func validateSwiftPrefix(file *protogen.File) error {
	opts, ok := file.Desc.Options().(*descriptorpb.FileOptions)
	if !ok || opts == nil || opts.SwiftPrefix == nil {
		return nil
	}
	prefix := opts.GetSwiftPrefix()
	if prefix == "" || isValidSwiftIdentifier(prefix) {
		return nil
	}
	return fmt.Errorf("%s has an 'swift_prefix' that isn't a valid Swift identifier (%s).", file.Desc.Path(), prefix)
}
