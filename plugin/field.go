package plugin

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// kindNames is the SwiftProtobuf spelling of each field kind, as used in the
// decodeSingular<Kind>Field / visitSingular<Kind>Field family and the
// Protobuf<Kind> type names.
var kindNames = map[protoreflect.Kind]string{
	protoreflect.BoolKind:     "Bool",
	protoreflect.EnumKind:     "Enum",
	protoreflect.Int32Kind:    "Int32",
	protoreflect.Sint32Kind:   "SInt32",
	protoreflect.Uint32Kind:   "UInt32",
	protoreflect.Int64Kind:    "Int64",
	protoreflect.Sint64Kind:   "SInt64",
	protoreflect.Uint64Kind:   "UInt64",
	protoreflect.Sfixed32Kind: "SFixed32",
	protoreflect.Fixed32Kind:  "Fixed32",
	protoreflect.FloatKind:    "Float",
	protoreflect.Sfixed64Kind: "SFixed64",
	protoreflect.Fixed64Kind:  "Fixed64",
	protoreflect.DoubleKind:   "Double",
	protoreflect.StringKind:   "String",
	protoreflect.BytesKind:    "Bytes",
	protoreflect.MessageKind:  "Message",
	protoreflect.GroupKind:    "Group",
}

// swiftScalarTypes maps scalar kinds to their Swift value type.
var swiftScalarTypes = map[protoreflect.Kind]string{
	protoreflect.BoolKind:     "Bool",
	protoreflect.Int32Kind:    "Int32",
	protoreflect.Sint32Kind:   "Int32",
	protoreflect.Sfixed32Kind: "Int32",
	protoreflect.Uint32Kind:   "UInt32",
	protoreflect.Fixed32Kind:  "UInt32",
	protoreflect.Int64Kind:    "Int64",
	protoreflect.Sint64Kind:   "Int64",
	protoreflect.Sfixed64Kind: "Int64",
	protoreflect.Uint64Kind:   "UInt64",
	protoreflect.Fixed64Kind:  "UInt64",
	protoreflect.FloatKind:    "Float",
	protoreflect.DoubleKind:   "Double",
	protoreflect.StringKind:   "String",
	protoreflect.BytesKind:    "Data",
}

func isMessageKind(k protoreflect.Kind) bool {
	return k == protoreflect.MessageKind || k == protoreflect.GroupKind
}

// swiftValueType is the Swift type of a single value of fd, ignoring
// cardinality.
func (n *namer) swiftValueType(fd protoreflect.FieldDescriptor) string {
	switch {
	case fd.Kind() == protoreflect.EnumKind:
		return n.fullTypeName(fd.Enum())
	case isMessageKind(fd.Kind()):
		return n.fullTypeName(fd.Message())
	default:
		return swiftScalarTypes[fd.Kind()]
	}
}

// swiftType is the Swift type of the property generated for fd.
func (n *namer) swiftType(fd protoreflect.FieldDescriptor) string {
	switch {
	case fd.IsMap():
		return fmt.Sprintf("Dictionary<%s,%s>", n.swiftValueType(fd.MapKey()), n.swiftValueType(fd.MapValue()))
	case fd.IsList():
		return "[" + n.swiftValueType(fd) + "]"
	default:
		return n.swiftValueType(fd)
	}
}

// defaultValue is the Swift expression for the zero value of one value of fd,
// or for its explicit default when it has one.
func (n *namer) defaultValue(fd protoreflect.FieldDescriptor) string {
	if fd.HasDefault() {
		if lit, ok := defaultLiteral(fd); ok {
			return lit
		}
	}
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return "false"
	case protoreflect.StringKind:
		return "String()"
	case protoreflect.BytesKind:
		return "Data()"
	case protoreflect.EnumKind:
		value := fd.DefaultEnumValue()
		if value == nil && fd.Enum().Values().Len() > 0 {
			value = fd.Enum().Values().Get(0)
		}
		if value == nil {
			return n.fullTypeName(fd.Enum()) + "()"
		}
		return "." + quoteIfKeyword(enumCaseName(fd.Enum(), value))
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return n.fullTypeName(fd.Message()) + "()"
	default:
		return "0"
	}
}

// defaultLiteral renders an explicit [default = ...] as a Swift literal.
// Enum defaults are named by defaultValue.
func defaultLiteral(fd protoreflect.FieldDescriptor) (string, bool) {
	v := fd.Default()
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return strconv.FormatBool(v.Bool()), true
	case protoreflect.StringKind:
		return swiftStringLiteral(v.String()), true
	case protoreflect.BytesKind:
		b := v.Bytes()
		if len(b) == 0 {
			return "Data()", true
		}
		parts := make([]string, len(b))
		for i, c := range b {
			parts[i] = strconv.Itoa(int(c))
		}
		return "Data([" + strings.Join(parts, ", ") + "])", true
	case protoreflect.FloatKind:
		return swiftFloatLiteral(v.Float(), "Float", 32), true
	case protoreflect.DoubleKind:
		return swiftFloatLiteral(v.Float(), "Double", 64), true
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return strconv.FormatInt(v.Int(), 10), true
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return strconv.FormatUint(v.Uint(), 10), true
	}
	return "", false
}

func swiftFloatLiteral(f float64, typeName string, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return typeName + ".infinity"
	case math.IsInf(f, -1):
		return "-" + typeName + ".infinity"
	case math.IsNaN(f):
		return typeName + ".nan"
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

// swiftStringLiteral quotes s for Swift source. Control and other
// non-printable characters use the \u{...} escape.
func swiftStringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if unicode.IsPrint(r) {
				b.WriteRune(r)
			} else {
				fmt.Fprintf(&b, `\u{%X}`, r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// protobufFieldType is the SwiftProtobuf type describing the wire format of a
// map key or value, or of an extension field.
func (n *namer) protobufFieldType(fd protoreflect.FieldDescriptor) string {
	switch {
	case fd.Kind() == protoreflect.EnumKind:
		return n.fullTypeName(fd.Enum())
	case isMessageKind(fd.Kind()):
		return n.fullTypeName(fd.Message())
	default:
		return "SwiftProtobuf.Protobuf" + kindNames[fd.Kind()]
	}
}

// mapFieldType is the SwiftProtobuf map helper type for a map field.
func (n *namer) mapFieldType(fd protoreflect.FieldDescriptor) string {
	wrapper := "_ProtobufMap"
	switch {
	case fd.MapValue().Kind() == protoreflect.EnumKind:
		wrapper = "_ProtobufEnumMap"
	case isMessageKind(fd.MapValue().Kind()):
		wrapper = "_ProtobufMessageMap"
	}
	return fmt.Sprintf("SwiftProtobuf.%s<%s,%s>", wrapper, n.protobufFieldType(fd.MapKey()), n.protobufFieldType(fd.MapValue()))
}

// -----------------------------------------------------------------------------
// Field Generator
// -----------------------------------------------------------------------------

// fieldGenerator renders the pieces of a message that belong to one field.
type fieldGenerator struct {
	n     *namer
	field *protogen.Field
	vis   string

	// name is the Swift property, quoted when it is a keyword.
	name string
}

func newFieldGenerator(n *namer, field *protogen.Field, vis string) *fieldGenerator {
	return &fieldGenerator{
		n:     n,
		field: field,
		vis:   vis,
		name:  quoteIfKeyword(propertyName(string(field.Desc.Name()))),
	}
}

func (f *fieldGenerator) desc() protoreflect.FieldDescriptor { return f.field.Desc }

func (f *fieldGenerator) number() int32 { return int32(f.field.Desc.Number()) }

// hasStorage reports whether the field keeps an optional backing property so
// that presence can be tracked.
func (f *fieldGenerator) hasStorage() bool {
	d := f.desc()
	return !d.IsList() && !d.IsMap() && !f.inOneof() && d.HasPresence()
}

func (f *fieldGenerator) storageName() string {
	return "_" + propertyName(string(f.field.Desc.Name()))
}

// inOneof reports whether the field is a member of a real (non-synthetic)
// oneof.
func (f *fieldGenerator) inOneof() bool {
	return f.field.Oneof != nil && !f.field.Oneof.Desc.IsSynthetic()
}

// nameMapEntry is the _protobuf_nameMap entry for the field.
func (f *fieldGenerator) nameMapEntry() string {
	d := f.desc()
	protoName := string(d.Name())
	jsonName := d.JSONName()
	switch {
	case d.HasJSONName() && jsonName != lowerCamel(protoName):
		return fmt.Sprintf("%d: .unique(proto: %q, json: %q),", f.number(), protoName, jsonName)
	case protoName == jsonName:
		return fmt.Sprintf("%d: .same(proto: %q),", f.number(), protoName)
	default:
		return fmt.Sprintf("%d: .standard(proto: %q),", f.number(), protoName)
	}
}

// generateProperty declares the field's public property.
func (f *fieldGenerator) generateProperty(p *printer) {
	p.Comments(documentationComments(protoEntity{desc: f.desc(), comments: f.field.Comments}, "field"))

	d := f.desc()
	swiftType := f.n.swiftType(d)
	switch {
	case f.inOneof():
		oneofProp := quoteIfKeyword(propertyName(string(f.field.Oneof.Desc.Name())))
		p.P(f.vis, "var ", f.name, ": ", swiftType, " {")
		p.Indent()
		p.P("get {")
		p.Indent()
		p.P("if case .", f.name, "(let v)? = ", oneofProp, " {return v}")
		p.P("return ", f.n.defaultValue(d))
		p.Outdent()
		p.P("}")
		p.P("set {", oneofProp, " = .", f.name, "(newValue)}")
		p.Outdent()
		p.P("}")
	case f.hasStorage():
		capName := capitalizedPropertyName(string(d.Name()))
		p.P(f.vis, "var ", f.name, ": ", swiftType, " {")
		p.Indent()
		p.P("get {return ", f.storageName(), " ?? ", f.n.defaultValue(d), "}")
		p.P("set {", f.storageName(), " = newValue}")
		p.Outdent()
		p.P("}")
		p.P("/// Returns true if `", f.name, "` has been explicitly set.")
		p.P(f.vis, "var has", capName, ": Bool {return self.", f.storageName(), " != nil}")
		p.P("/// Clears the value of `", f.name, "`. Subsequent reads from it will return its default value.")
		p.P(f.vis, "mutating func clear", capName, "() {self.", f.storageName(), " = nil}")
	case d.IsMap():
		p.P(f.vis, "var ", f.name, ": ", swiftType, " = [:]")
	case d.IsList():
		p.P(f.vis, "var ", f.name, ": ", swiftType, " = []")
	default:
		p.P(f.vis, "var ", f.name, ": ", swiftType, " = ", f.n.defaultValue(d))
	}
	p.P()
}

// generateStorage declares the optional backing property, if any.
func (f *fieldGenerator) generateStorage(p *printer) {
	if !f.hasStorage() {
		return
	}
	p.P("fileprivate var ", f.storageName(), ": ", f.n.swiftType(f.desc()), "? = nil")
}

// generateDecode writes the case of the decodeMessage switch for the field.
func (f *fieldGenerator) generateDecode(p *printer) {
	d := f.desc()
	kind := kindNames[d.Kind()]
	switch {
	case d.IsMap():
		p.P("case ", f.number(), ": try { try decoder.decodeMapField(fieldType: ", f.n.mapFieldType(d), ".self, value: &self.", f.name, ") }()")
	case d.IsList():
		p.P("case ", f.number(), ": try { try decoder.decodeRepeated", kind, "Field(value: &self.", f.name, ") }()")
	case f.inOneof():
		oneofProp := quoteIfKeyword(propertyName(string(f.field.Oneof.Desc.Name())))
		p.P("case ", f.number(), ": try {")
		p.Indent()
		p.P("var v: ", f.n.swiftValueType(d), "?")
		p.P("try decoder.decodeSingular", kind, "Field(value: &v)")
		p.P("if let v = v {")
		p.Indent()
		p.P("if self.", oneofProp, " != nil {try decoder.handleConflictingOneOf()}")
		p.P("self.", oneofProp, " = .", f.name, "(v)")
		p.Outdent()
		p.P("}")
		p.Outdent()
		p.P("}()")
	case f.hasStorage():
		p.P("case ", f.number(), ": try { try decoder.decodeSingular", kind, "Field(value: &self.", f.storageName(), ") }()")
	default:
		p.P("case ", f.number(), ": try { try decoder.decodeSingular", kind, "Field(value: &self.", f.name, ") }()")
	}
}

// generateTraverse writes the visitor call for the field.
func (f *fieldGenerator) generateTraverse(p *printer) {
	d := f.desc()
	kind := kindNames[d.Kind()]
	switch {
	case d.IsMap():
		p.P("if !self.", f.name, ".isEmpty {")
		p.Indent()
		p.P("try visitor.visitMapField(fieldType: ", f.n.mapFieldType(d), ".self, value: self.", f.name, ", fieldNumber: ", f.number(), ")")
		p.Outdent()
		p.P("}")
	case d.IsList():
		visit := "Repeated"
		if d.IsPacked() {
			visit = "Packed"
		}
		p.P("if !self.", f.name, ".isEmpty {")
		p.Indent()
		p.P("try visitor.visit", visit, kind, "Field(value: self.", f.name, ", fieldNumber: ", f.number(), ")")
		p.Outdent()
		p.P("}")
	case f.inOneof():
		oneofProp := quoteIfKeyword(propertyName(string(f.field.Oneof.Desc.Name())))
		p.P("if case .", f.name, "(let v)? = self.", oneofProp, " {")
		p.Indent()
		p.P("try visitor.visitSingular", kind, "Field(value: v, fieldNumber: ", f.number(), ")")
		p.Outdent()
		p.P("}")
	case f.hasStorage():
		p.P("try { if let v = self.", f.storageName(), " {")
		p.Indent()
		p.P("try visitor.visitSingular", kind, "Field(value: v, fieldNumber: ", f.number(), ")")
		p.Outdent()
		p.P("} }()")
	default:
		p.P("if ", f.nonDefaultCondition(), " {")
		p.Indent()
		p.P("try visitor.visitSingular", kind, "Field(value: self.", f.name, ", fieldNumber: ", f.number(), ")")
		p.Outdent()
		p.P("}")
	}
}

// nonDefaultCondition is the Swift condition under which a field without
// presence is written.
func (f *fieldGenerator) nonDefaultCondition() string {
	d := f.desc()
	switch d.Kind() {
	case protoreflect.StringKind, protoreflect.BytesKind:
		return "!self." + f.name + ".isEmpty"
	default:
		return "self." + f.name + " != " + f.n.defaultValue(d)
	}
}

// equalityTarget is the stored property compared by ==.
func (f *fieldGenerator) equalityTarget() string {
	if f.hasStorage() {
		return f.storageName()
	}
	return f.name
}
