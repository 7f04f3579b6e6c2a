package plugin

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"
)

// enumGenerator emits the Swift code for one proto enum.
type enumGenerator struct {
	n    *namer
	enum *protogen.Enum
	vis  string

	// mainValues holds the first value declared for each number; aliases
	// maps the name of such a value to the values sharing its number.
	mainValues []*protogen.EnumValue
	aliases    map[string][]*protogen.EnumValue
}

var _ typeGenerator = (*enumGenerator)(nil)

func newEnumGenerator(n *namer, enum *protogen.Enum, opts *GeneratorOptions) *enumGenerator {
	g := &enumGenerator{
		n:       n,
		enum:    enum,
		vis:     opts.Visibility.declarationPrefix(),
		aliases: make(map[string][]*protogen.EnumValue),
	}
	byNumber := make(map[int32]*protogen.EnumValue)
	for _, v := range enum.Values {
		num := int32(v.Desc.Number())
		if first, ok := byNumber[num]; ok {
			g.aliases[string(first.Desc.Name())] = append(g.aliases[string(first.Desc.Name())], v)
			continue
		}
		byNumber[num] = v
		g.mainValues = append(g.mainValues, v)
	}
	return g
}

func (g *enumGenerator) fullName() string {
	return g.n.fullTypeName(g.enum.Desc)
}

func (g *enumGenerator) caseName(v *protogen.EnumValue) string {
	return quoteIfKeyword(enumCaseName(g.enum.Desc, v.Desc))
}

// isOpen reports whether unknown values are preserved, which adds the
// UNRECOGNIZED case.
func (g *enumGenerator) isOpen() bool {
	return !g.enum.Desc.IsClosed()
}

func (g *enumGenerator) generateMainDefinition(p *printer) error {
	p.Comments(documentationComments(protoEntity{desc: g.enum.Desc, comments: g.enum.Comments}, "enum"))
	p.P(g.vis, "enum ", g.n.relativeTypeName(g.enum.Desc), ": SwiftProtobuf.Enum, Sendable {")
	p.Indent()
	p.P(g.vis, "typealias RawValue = Int")

	for _, v := range g.mainValues {
		p.Comments(documentationComments(protoEntity{desc: v.Desc, comments: v.Comments}, "enum value"))
		p.P("case ", g.caseName(v), " // = ", int32(v.Desc.Number()))
	}
	if g.isOpen() {
		p.P("case UNRECOGNIZED(Int)")
	}
	p.P()

	p.P(g.vis, "init() {")
	p.Indent()
	if len(g.mainValues) > 0 {
		p.P("self = .", g.caseName(g.mainValues[0]))
	}
	p.Outdent()
	p.P("}")
	p.P()

	p.P(g.vis, "init?(rawValue: Int) {")
	p.Indent()
	p.P("switch rawValue {")
	for _, v := range g.mainValues {
		p.P("case ", int32(v.Desc.Number()), ": self = .", g.caseName(v))
	}
	if g.isOpen() {
		p.P("default: self = .UNRECOGNIZED(rawValue)")
	} else {
		p.P("default: return nil")
	}
	p.P("}")
	p.Outdent()
	p.P("}")
	p.P()

	p.P(g.vis, "var rawValue: Int {")
	p.Indent()
	p.P("switch self {")
	for _, v := range g.mainValues {
		p.P("case .", g.caseName(v), ": return ", int32(v.Desc.Number()))
	}
	if g.isOpen() {
		p.P("case .UNRECOGNIZED(let i): return i")
	}
	p.P("}")
	p.Outdent()
	p.P("}")

	for _, v := range g.mainValues {
		for _, alias := range g.aliases[string(v.Desc.Name())] {
			p.P()
			p.Comments(documentationComments(protoEntity{desc: alias.Desc, comments: alias.Comments}, "enum value"))
			p.P(g.vis, "static let ", g.caseName(alias), " = ", g.caseName(v))
		}
	}

	p.Outdent()
	p.P("}")
	return nil
}

func (g *enumGenerator) generateCaseIterable(p *printer) {
	p.P("extension ", g.fullName(), ": CaseIterable {")
	p.Indent()
	if !g.isOpen() {
		p.P("// Support synthesized by the compiler.")
	} else {
		p.P("// The compiler won't synthesize support with the UNRECOGNIZED case.")
		p.P(g.vis, "static let allCases: [", g.fullName(), "] = [")
		p.Indent()
		for _, v := range g.mainValues {
			p.P(".", g.caseName(v), ",")
		}
		p.Outdent()
		p.P("]")
	}
	p.Outdent()
	p.P("}")
}

func (g *enumGenerator) generateRuntimeSupport(p *printer) {
	p.P("extension ", g.fullName(), ": SwiftProtobuf._ProtoNameProviding {")
	p.Indent()
	p.P(g.vis, "static let _protobuf_nameMap: SwiftProtobuf._NameMap = [")
	p.Indent()
	for _, v := range g.mainValues {
		name := string(v.Desc.Name())
		aliases := g.aliases[name]
		if len(aliases) == 0 {
			p.P(int32(v.Desc.Number()), ": .same(proto: ", fmt.Sprintf("%q", name), "),")
			continue
		}
		quoted := make([]string, len(aliases))
		for i, a := range aliases {
			quoted[i] = fmt.Sprintf("%q", string(a.Desc.Name()))
		}
		p.P(int32(v.Desc.Number()), ": .aliased(proto: ", fmt.Sprintf("%q", name), ", aliases: [", strings.Join(quoted, ", "), "]),")
	}
	p.Outdent()
	p.P("]")
	p.Outdent()
	p.P("}")
}
