package plugin

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// messageGenerator emits the Swift code for one proto message and the types
// nested inside it.
type messageGenerator struct {
	n       *namer
	message *protogen.Message
	vis     string

	fields   []*fieldGenerator
	enums    []*enumGenerator
	messages []*messageGenerator
}

var _ typeGenerator = (*messageGenerator)(nil)

func newMessageGenerator(n *namer, message *protogen.Message, opts *GeneratorOptions) *messageGenerator {
	g := &messageGenerator{
		n:       n,
		message: message,
		vis:     opts.Visibility.declarationPrefix(),
	}
	for _, f := range message.Fields {
		g.fields = append(g.fields, newFieldGenerator(n, f, g.vis))
	}
	for _, e := range message.Enums {
		g.enums = append(g.enums, newEnumGenerator(n, e, opts))
	}
	for _, m := range message.Messages {
		// Map entries are synthesized by protoc; map fields are rendered as
		// dictionaries instead.
		if m.Desc.IsMapEntry() {
			continue
		}
		g.messages = append(g.messages, newMessageGenerator(n, m, opts))
	}
	return g
}

func (g *messageGenerator) fullName() string {
	return g.n.fullTypeName(g.message.Desc)
}

func (g *messageGenerator) isExtensible() bool {
	return g.message.Desc.ExtensionRanges().Len() > 0
}

// realOneofs returns the oneofs declared in the .proto file, skipping the
// synthetic ones protoc adds for proto3 optional fields.
func (g *messageGenerator) realOneofs() []*protogen.Oneof {
	var oneofs []*protogen.Oneof
	for _, o := range g.message.Oneofs {
		if !o.Desc.IsSynthetic() {
			oneofs = append(oneofs, o)
		}
	}
	return oneofs
}

// fieldsByNumber returns the fields sorted by field number, the order in which
// they are decoded and written.
func (g *messageGenerator) fieldsByNumber() []*fieldGenerator {
	sorted := append([]*fieldGenerator(nil), g.fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].number() < sorted[j].number() })
	return sorted
}

// checkNameConflicts fails when two members of the generated struct would get
// the same Swift name, e.g. fields foo_bar and fooBar.
func (g *messageGenerator) checkNameConflicts() error {
	owners := make(map[string]string)
	claim := func(swiftName, protoName string) error {
		if other, ok := owners[swiftName]; ok {
			return fmt.Errorf("message %s: %s and %s both generate the Swift member %q",
				g.message.Desc.FullName(), other, protoName, swiftName)
		}
		owners[swiftName] = protoName
		return nil
	}

	for _, f := range g.fields {
		name := string(f.desc().Name())
		if err := claim(propertyName(name), name); err != nil {
			return err
		}
		if f.hasStorage() {
			capName := capitalizedPropertyName(name)
			if err := claim("has"+capName, name); err != nil {
				return err
			}
			if err := claim("clear"+capName, name); err != nil {
				return err
			}
		}
	}
	for _, o := range g.realOneofs() {
		name := string(o.Desc.Name())
		if err := claim(propertyName(name), "oneof "+name); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Main Definition
// -----------------------------------------------------------------------------

func (g *messageGenerator) generateMainDefinition(p *printer) error {
	if err := g.checkNameConflicts(); err != nil {
		return err
	}

	conformances := "Sendable"
	if g.isExtensible() {
		conformances = "SwiftProtobuf.ExtensibleMessage, Sendable"
	}

	p.Comments(documentationComments(protoEntity{desc: g.message.Desc, comments: g.message.Comments}, "message"))
	p.P(g.vis, "struct ", g.n.relativeTypeName(g.message.Desc), ": ", conformances, " {")
	p.Indent()
	p.P("// SwiftProtobuf.Message conformance is added in an extension below. See the")
	p.P("// `Message` and `Message+*Additions` files in the SwiftProtobuf library for")
	p.P("// methods supported on all messages.")
	p.P()

	declared := make(map[*protogen.Oneof]bool)
	for _, f := range g.fields {
		if f.inOneof() && !declared[f.field.Oneof] {
			declared[f.field.Oneof] = true
			p.P(g.vis, "var ", quoteIfKeyword(propertyName(string(f.field.Oneof.Desc.Name()))), ": ", g.fullName(), ".", oneofEnumName(f.field.Oneof), "? = nil")
			p.P()
		}
		f.generateProperty(p)
	}

	p.P(g.vis, "var unknownFields = SwiftProtobuf.UnknownStorage()")
	p.P()

	for _, o := range g.realOneofs() {
		g.generateOneofEnum(p, o)
		p.P()
	}

	for _, e := range g.enums {
		if err := e.generateMainDefinition(p); err != nil {
			return err
		}
		p.P()
	}

	for _, m := range g.messages {
		if err := m.generateMainDefinition(p); err != nil {
			return err
		}
		p.P()
	}

	p.P(g.vis, "init() {}")

	if g.isExtensible() {
		p.P()
		p.P(g.vis, "var _protobuf_extensionFieldValues = SwiftProtobuf.ExtensionFieldValueSet()")
	}

	storage := &printer{indent: p.indent}
	for _, f := range g.fields {
		f.generateStorage(storage)
	}
	if !storage.IsEmpty() {
		p.P()
		p.Raw(storage.Content())
	}

	p.Outdent()
	p.P("}")
	return nil
}

func (g *messageGenerator) generateOneofEnum(p *printer, o *protogen.Oneof) {
	p.Comments(documentationComments(protoEntity{desc: o.Desc, comments: o.Comments}, "oneof"))
	p.P(g.vis, "enum ", oneofEnumName(o), ": Equatable, Sendable {")
	p.Indent()
	for _, f := range o.Fields {
		fg := newFieldGenerator(g.n, f, g.vis)
		p.Comments(documentationComments(protoEntity{desc: f.Desc, comments: f.Comments}, "field"))
		p.P("case ", fg.name, "(", g.n.swiftValueType(f.Desc), ")")
	}
	p.Outdent()
	p.P("}")
}

// -----------------------------------------------------------------------------
// Case Iterable Support
// -----------------------------------------------------------------------------

// generateCaseIterable writes CaseIterable conformances for every enum nested
// in the message, at any depth. Nothing is written when there are none.
func (g *messageGenerator) generateCaseIterable(p *printer) {
	for _, e := range g.enums {
		if !p.IsEmpty() {
			p.P()
		}
		e.generateCaseIterable(p)
	}
	for _, m := range g.messages {
		m.generateCaseIterable(p)
	}
}

// -----------------------------------------------------------------------------
// Runtime Support
// -----------------------------------------------------------------------------

func (g *messageGenerator) protoMessageNameExpr() string {
	if parent, ok := g.message.Desc.Parent().(protoreflect.MessageDescriptor); ok {
		return fmt.Sprintf("%s.protoMessageName + %q", g.n.fullTypeName(parent), "."+string(g.message.Desc.Name()))
	}
	if g.message.Desc.ParentFile().Package() == "" {
		return fmt.Sprintf("%q", string(g.message.Desc.Name()))
	}
	return fmt.Sprintf("_protobuf_package + %q", "."+string(g.message.Desc.Name()))
}

func (g *messageGenerator) extensionRangeCases() string {
	ranges := g.message.Desc.ExtensionRanges()
	parts := make([]string, 0, ranges.Len())
	for i := 0; i < ranges.Len(); i++ {
		r := ranges.Get(i)
		parts = append(parts, fmt.Sprintf("%d..<%d", int32(r[0]), int32(r[1])))
	}
	return strings.Join(parts, ", ")
}

func (g *messageGenerator) generateRuntimeSupport(p *printer) {
	full := g.fullName()
	p.P("extension ", full, ": SwiftProtobuf.Message, SwiftProtobuf._MessageImplementationBase, SwiftProtobuf._ProtoNameProviding {")
	p.Indent()
	p.P(g.vis, "static let protoMessageName: String = ", g.protoMessageNameExpr())

	fields := g.fieldsByNumber()
	if len(fields) == 0 {
		p.P(g.vis, "static let _protobuf_nameMap = SwiftProtobuf._NameMap()")
	} else {
		p.P(g.vis, "static let _protobuf_nameMap: SwiftProtobuf._NameMap = [")
		p.Indent()
		for _, f := range fields {
			p.P(f.nameMapEntry())
		}
		p.Outdent()
		p.P("]")
	}
	p.P()

	if g.isExtensible() {
		p.P(g.vis, "var isInitialized: Bool {")
		p.Indent()
		p.P("if !_protobuf_extensionFieldValues.isInitialized {return false}")
		p.P("return true")
		p.Outdent()
		p.P("}")
		p.P()
	}

	g.generateDecodeMessage(p, fields)
	p.P()
	g.generateTraverse(p, fields)
	p.P()
	g.generateEquality(p, fields)

	p.Outdent()
	p.P("}")

	for _, e := range g.enums {
		p.P()
		e.generateRuntimeSupport(p)
	}
	for _, m := range g.messages {
		p.P()
		m.generateRuntimeSupport(p)
	}
}

func (g *messageGenerator) generateDecodeMessage(p *printer, fields []*fieldGenerator) {
	p.P(g.vis, "mutating func decodeMessage<D: SwiftProtobuf.Decoder>(decoder: inout D) throws {")
	p.Indent()
	if len(fields) == 0 && !g.isExtensible() {
		p.P("// Load everything into unknown fields")
		p.P("while try decoder.nextFieldNumber() != nil {}")
	} else {
		p.P("while let fieldNumber = try decoder.nextFieldNumber() {")
		p.Indent()
		p.P("switch fieldNumber {")
		for _, f := range fields {
			f.generateDecode(p)
		}
		if g.isExtensible() {
			p.P("case ", g.extensionRangeCases(), ":")
			p.Indent()
			p.P("try { try decoder.decodeExtensionField(values: &_protobuf_extensionFieldValues, messageType: ", g.fullName(), ".self, fieldNumber: fieldNumber) }()")
			p.Outdent()
		}
		p.P("default: break")
		p.P("}")
		p.Outdent()
		p.P("}")
	}
	p.Outdent()
	p.P("}")
}

func (g *messageGenerator) generateTraverse(p *printer, fields []*fieldGenerator) {
	p.P(g.vis, "func traverse<V: SwiftProtobuf.Visitor>(visitor: inout V) throws {")
	p.Indent()
	for _, f := range fields {
		f.generateTraverse(p)
	}
	ranges := g.message.Desc.ExtensionRanges()
	for i := 0; i < ranges.Len(); i++ {
		r := ranges.Get(i)
		p.P("try visitor.visitExtensionFields(fields: _protobuf_extensionFieldValues, start: ", int32(r[0]), ", end: ", int32(r[1]), ")")
	}
	p.P("try unknownFields.traverse(visitor: &visitor)")
	p.Outdent()
	p.P("}")
}

func (g *messageGenerator) generateEquality(p *printer, fields []*fieldGenerator) {
	full := g.fullName()
	p.P(g.vis, "static func ==(lhs: ", full, ", rhs: ", full, ") -> Bool {")
	p.Indent()
	compared := make(map[*protogen.Oneof]bool)
	for _, f := range fields {
		if f.inOneof() {
			if compared[f.field.Oneof] {
				continue
			}
			compared[f.field.Oneof] = true
			name := quoteIfKeyword(propertyName(string(f.field.Oneof.Desc.Name())))
			p.P("if lhs.", name, " != rhs.", name, " {return false}")
			continue
		}
		p.P("if lhs.", f.equalityTarget(), " != rhs.", f.equalityTarget(), " {return false}")
	}
	p.P("if lhs.unknownFields != rhs.unknownFields {return false}")
	if g.isExtensible() {
		p.P("if lhs._protobuf_extensionFieldValues != rhs._protobuf_extensionFieldValues {return false}")
	}
	p.P("return true")
	p.Outdent()
	p.P("}")
}
