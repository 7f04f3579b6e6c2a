package plugin

import (
	"fmt"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// extensionSetGenerator emits the code for every extension field declared in
// a file, whether at file scope or nested inside a message.
type extensionSetGenerator struct {
	n   *namer
	vis string

	extensions []*protogen.Extension
}

func newExtensionSetGenerator(n *namer, file *protogen.File, opts *GeneratorOptions) *extensionSetGenerator {
	g := &extensionSetGenerator{
		n:   n,
		vis: opts.Visibility.declarationPrefix(),
	}
	g.extensions = append(g.extensions, file.Extensions...)
	var collect func(messages []*protogen.Message)
	collect = func(messages []*protogen.Message) {
		for _, m := range messages {
			g.extensions = append(g.extensions, m.Extensions...)
			collect(m.Messages)
		}
	}
	collect(file.Messages)
	return g
}

func (g *extensionSetGenerator) isEmpty() bool {
	return len(g.extensions) == 0
}

// extensionFieldType is the SwiftProtobuf extension field wrapper, e.g.
// SwiftProtobuf.OptionalExtensionField<SwiftProtobuf.ProtobufInt32>.
func (g *extensionSetGenerator) extensionFieldType(fd protoreflect.FieldDescriptor) string {
	var flavor string
	switch fd.Kind() {
	case protoreflect.EnumKind:
		flavor = "Enum"
	case protoreflect.MessageKind:
		flavor = "Message"
	case protoreflect.GroupKind:
		flavor = "Group"
	}

	cardinality := "Optional"
	if fd.IsList() {
		cardinality = "Repeated"
		if fd.IsPacked() {
			cardinality = "Packed"
		}
	}
	return fmt.Sprintf("SwiftProtobuf.%s%sExtensionField<%s>", cardinality, flavor, g.n.protobufFieldType(fd))
}

// groupByMessage buckets extensions by key, keeping first-seen order of both
// the keys and the extensions within each bucket.
func groupByMessage(exts []*protogen.Extension, key func(*protogen.Extension) string) ([]string, map[string][]*protogen.Extension) {
	var order []string
	groups := make(map[string][]*protogen.Extension)
	for _, ext := range exts {
		k := key(ext)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], ext)
	}
	return order, groups
}

// generateMessageSwiftExtensions adds accessors for each extension to the
// message it extends.
func (g *extensionSetGenerator) generateMessageSwiftExtensions(p *printer) {
	order, groups := groupByMessage(g.extensions, func(ext *protogen.Extension) string {
		return g.n.fullTypeName(ext.Desc.ContainingMessage())
	})

	for i, extendee := range order {
		if i > 0 {
			p.P()
		}
		p.P("extension ", extendee, " {")
		p.Indent()
		for j, ext := range groups[extendee] {
			if j > 0 {
				p.P()
			}
			g.generateAccessors(p, ext)
		}
		p.Outdent()
		p.P("}")
	}
}

func (g *extensionSetGenerator) generateAccessors(p *printer, ext *protogen.Extension) {
	name := g.n.extensionName(ext)
	prop := g.n.extensionPropertyName(ext)
	capProp := upperFirst(prop)

	defaultValue := g.n.defaultValue(ext.Desc)
	if ext.Desc.IsList() {
		defaultValue = "[]"
	}

	p.Comments(documentationComments(protoEntity{desc: ext.Desc, comments: ext.Comments}, "extension"))
	p.P(g.vis, "var ", prop, ": ", g.n.swiftType(ext.Desc), " {")
	p.Indent()
	p.P("get {return getExtensionValue(ext: ", name, ") ?? ", defaultValue, "}")
	p.P("set {setExtensionValue(ext: ", name, ", value: newValue)}")
	p.Outdent()
	p.P("}")
	if ext.Desc.IsList() {
		return
	}
	p.P("/// Returns true if extension `", name, "`")
	p.P("/// has been explicitly set.")
	p.P(g.vis, "var has", capProp, ": Bool {")
	p.Indent()
	p.P("return hasExtensionValue(ext: ", name, ")")
	p.Outdent()
	p.P("}")
	p.P("/// Clears the value of extension `", name, "`.")
	p.P("/// Subsequent reads from it will return its default value.")
	p.P(g.vis, "mutating func clear", capProp, "() {")
	p.Indent()
	p.P("clearExtensionValue(ext: ", name, ")")
	p.Outdent()
	p.P("}")
}

// generateFileProtobufExtensionRegistry declares the SimpleExtensionMap that
// lists every extension in the file.
func (g *extensionSetGenerator) generateFileProtobufExtensionRegistry(p *printer) {
	p.P("/// A `SwiftProtobuf.SimpleExtensionMap` that includes all of the extensions defined by")
	p.P("/// this .proto file. It can be used any place an `SwiftProtobuf.ExtensionMap` is needed")
	p.P("/// in parsing, or it can be combined with other `SwiftProtobuf.SimpleExtensionMap`s to create")
	p.P("/// a larger `SwiftProtobuf.SimpleExtensionMap`.")
	p.P(g.vis, "let ", g.n.extensionRegistryName(), ": SwiftProtobuf.SimpleExtensionMap = [")
	p.Indent()
	for _, ext := range g.extensions {
		p.P(g.n.extensionName(ext), ",")
	}
	p.Outdent()
	p.P("]")
}

// generateProtobufExtensionDeclarations declares the MessageExtension values.
// File scoped extensions become top-level constants; nested ones live in an
// Extensions namespace inside their scope message.
func (g *extensionSetGenerator) generateProtobufExtensionDeclarations(p *printer) {
	var fileScoped, nested []*protogen.Extension
	for _, ext := range g.extensions {
		if extensionScope(ext) == nil {
			fileScoped = append(fileScoped, ext)
		} else {
			nested = append(nested, ext)
		}
	}

	first := true
	separate := func() {
		if !first {
			p.P()
		}
		first = false
	}

	for _, ext := range fileScoped {
		separate()
		g.generateDeclaration(p, ext, "let "+g.n.extensionName(ext))
	}

	order, groups := groupByMessage(nested, func(ext *protogen.Extension) string {
		return g.n.fullTypeName(extensionScope(ext))
	})
	for _, scope := range order {
		separate()
		p.P("extension ", scope, " {")
		p.Indent()
		p.P("enum Extensions {")
		p.Indent()
		for i, ext := range groups[scope] {
			if i > 0 {
				p.P()
			}
			g.generateDeclaration(p, ext, "static let "+lowerCamel(string(ext.Desc.Name())))
		}
		p.Outdent()
		p.P("}")
		p.Outdent()
		p.P("}")
	}
}

func (g *extensionSetGenerator) generateDeclaration(p *printer, ext *protogen.Extension, declaration string) {
	p.Comments(documentationComments(protoEntity{desc: ext.Desc, comments: ext.Comments}, "extension"))
	p.P(g.vis, declaration, " = SwiftProtobuf.MessageExtension<", g.extensionFieldType(ext.Desc), ", ", g.n.fullTypeName(ext.Desc.ContainingMessage()), ">(")
	p.Indent()
	p.P("_protobuf_fieldNumber: ", int32(ext.Desc.Number()), ",")
	p.P("fieldName: ", fmt.Sprintf("%q", string(ext.Desc.FullName())))
	p.Outdent()
	p.P(")")
}
