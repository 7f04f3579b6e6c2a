package plugin

import (
	"path"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// -----------------------------------------------------------------------------
// Swift Identifiers
// -----------------------------------------------------------------------------

// swiftKeywords cannot be used as bare identifiers.
var swiftKeywords = map[string]bool{
	"associatedtype": true, "class": true, "deinit": true, "enum": true,
	"extension": true, "fileprivate": true, "func": true, "import": true,
	"init": true, "inout": true, "internal": true, "let": true, "open": true,
	"operator": true, "private": true, "protocol": true, "public": true,
	"rethrows": true, "static": true, "struct": true, "subscript": true,
	"typealias": true, "var": true, "break": true, "case": true,
	"continue": true, "default": true, "defer": true, "do": true, "else": true,
	"fallthrough": true, "for": true, "guard": true, "if": true, "in": true,
	"repeat": true, "return": true, "switch": true, "where": true,
	"while": true, "as": true, "catch": true, "false": true, "is": true,
	"nil": true, "super": true, "self": true, "Self": true, "throw": true,
	"throws": true, "true": true, "try": true, "Any": true, "Type": true,
	"Protocol": true, "package": true,
}

// reservedTypeNames clash with Swift or SwiftProtobuf types when used for a
// nested or unprefixed generated type.
var reservedTypeNames = map[string]bool{
	"Type": true, "Protocol": true, "Any": true, "Self": true, "Error": true,
	"Data": true, "String": true, "Int": true, "Bool": true, "Double": true,
	"Float": true, "Equatable": true, "Hashable": true, "Sendable": true,
	"Message": true, "Enum": true, "Foundation": true, "SwiftProtobuf": true,
	"Extensions": true,
}

// reservedPropertyNames clash with members every generated message has.
var reservedPropertyNames = map[string]bool{
	"unknownFields": true, "hashValue": true, "debugDescription": true,
	"isInitialized": true, "protoMessageName": true, "_": true,
}

// isValidSwiftIdentifier reports whether s can be used unquoted as a Swift
// identifier.
func isValidSwiftIdentifier(s string) bool {
	if s == "" || swiftKeywords[s] {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// quoteIfKeyword wraps keywords in backticks.
func quoteIfKeyword(s string) string {
	if swiftKeywords[s] {
		return "`" + s + "`"
	}
	return s
}

func upperCamel(s string) string {
	return camelize(s, inflect.Camelize)
}

func lowerCamel(s string) string {
	return camelize(s, inflect.CamelizeDownFirst)
}

// camelize applies convert to a proto name. Names made only of underscores
// have no words to convert and are returned as they are. A result starting
// with a digit is prefixed with an underscore.
func camelize(s string, convert func(string) string) string {
	if strings.Trim(s, "_") == "" {
		return s
	}
	out := convert(s)
	if r, _ := utf8.DecodeRuneInString(out); unicode.IsDigit(r) {
		return "_" + out
	}
	return out
}

// upperFirst upper cases the first rune of s.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// -----------------------------------------------------------------------------
// Namer
// -----------------------------------------------------------------------------

// namer picks Swift names for the declarations of one file and the modules it
// must import.
type namer struct {
	file     *protogen.File
	mappings *ModuleMappings
}

func newNamer(file *protogen.File, mappings *ModuleMappings) *namer {
	return &namer{file: file, mappings: mappings}
}

// typePrefix is prepended to every top-level type generated for fd. It is the
// swift_prefix option when present, otherwise the camel-cased package.
func typePrefix(fd protoreflect.FileDescriptor) string {
	if opts, ok := fd.Options().(*descriptorpb.FileOptions); ok && opts != nil && opts.SwiftPrefix != nil {
		return opts.GetSwiftPrefix()
	}
	pkg := string(fd.Package())
	if pkg == "" {
		return ""
	}
	parts := strings.Split(pkg, ".")
	for i, part := range parts {
		parts[i] = upperCamel(part)
	}
	return strings.Join(parts, "_") + "_"
}

func (n *namer) prefix() string {
	return typePrefix(n.file.Desc)
}

// fullTypeName returns the fully qualified Swift name of a message or enum,
// which may be declared in another file.
func (n *namer) fullTypeName(desc protoreflect.Descriptor) string {
	suffix := "Message"
	if _, ok := desc.(protoreflect.EnumDescriptor); ok {
		suffix = "Enum"
	}
	if parent, ok := desc.Parent().(protoreflect.MessageDescriptor); ok {
		return n.fullTypeName(parent) + "." + sanitizeTypeName(string(desc.Name()), suffix)
	}
	prefix := typePrefix(desc.ParentFile())
	if prefix == "" {
		return sanitizeTypeName(string(desc.Name()), suffix)
	}
	return prefix + string(desc.Name())
}

// relativeTypeName is the name used in the declaration of desc, which is
// nested inside its parent's declaration.
func (n *namer) relativeTypeName(desc protoreflect.Descriptor) string {
	if _, ok := desc.Parent().(protoreflect.MessageDescriptor); ok {
		suffix := "Message"
		if _, ok := desc.(protoreflect.EnumDescriptor); ok {
			suffix = "Enum"
		}
		return sanitizeTypeName(string(desc.Name()), suffix)
	}
	return n.fullTypeName(desc)
}

func sanitizeTypeName(name, suffix string) string {
	if reservedTypeNames[name] {
		return name + suffix
	}
	return name
}

// propertyName is the Swift property for a field or oneof.
func propertyName(protoName string) string {
	name := lowerCamel(protoName)
	if reservedPropertyNames[name] {
		return name + "_p"
	}
	return name
}

// capitalizedPropertyName is used to build hasFoo/clearFoo helpers.
func capitalizedPropertyName(protoName string) string {
	return upperFirst(propertyName(protoName))
}

// oneofEnumName is the Swift enum holding the cases of a oneof.
func oneofEnumName(o *protogen.Oneof) string {
	return "OneOf_" + upperCamel(string(o.Desc.Name()))
}

// enumCaseName strips the UPPER_SNAKE enum name prefix from a value name and
// lower camel cases the rest: STATUS_ACTIVE in Status becomes active.
func enumCaseName(enum protoreflect.EnumDescriptor, value protoreflect.EnumValueDescriptor) string {
	name := string(value.Name())
	prefix := strings.ToUpper(inflect.Underscore(string(enum.Name()))) + "_"
	if stripped := strings.TrimPrefix(name, prefix); stripped != name && stripped != "" && !unicode.IsDigit(rune(stripped[0])) {
		name = stripped
	}
	name = lowerCamel(cases.Lower(language.Und).String(name))
	if name == "_" {
		return "__"
	}
	return name
}

// extensionScope is the message an extension is declared in, or nil for an
// extension declared at file scope.
func extensionScope(ext *protogen.Extension) protoreflect.MessageDescriptor {
	if ext.Parent == nil {
		return nil
	}
	return ext.Parent.Desc
}

// extensionName is the Swift constant declaring an extension field.
func (n *namer) extensionName(ext *protogen.Extension) string {
	if scope := extensionScope(ext); scope != nil {
		return n.fullTypeName(scope) + ".Extensions." + lowerCamel(string(ext.Desc.Name()))
	}
	return n.prefix() + "Extensions_" + lowerCamel(string(ext.Desc.Name()))
}

// extensionPropertyName is the accessor added to the extended message.
func (n *namer) extensionPropertyName(ext *protogen.Extension) string {
	if scope := extensionScope(ext); scope != nil {
		return strings.ReplaceAll(n.fullTypeName(scope), ".", "_") + "_" + lowerCamel(string(ext.Desc.Name()))
	}
	return n.prefix() + lowerCamel(string(ext.Desc.Name()))
}

// extensionRegistryName is the SimpleExtensionMap listing every extension of
// the file.
func (n *namer) extensionRegistryName() string {
	base := path.Base(n.file.Desc.Path())
	base = strings.TrimSuffix(base, path.Ext(base))
	return n.prefix() + upperCamel(base) + "_Extensions"
}

// neededModules returns the Swift modules holding the generated code of the
// files imported by this file, including anything those files re-export
// through public imports. The file's own module is excluded. The result is
// sorted.
func (n *namer) neededModules() []string {
	own := n.mappings.moduleFor(n.file.Desc.Path())
	seen := make(map[string]bool)
	var modules []string

	var visit func(imports protoreflect.FileImports, publicOnly bool)
	visit = func(imports protoreflect.FileImports, publicOnly bool) {
		for i := 0; i < imports.Len(); i++ {
			imp := imports.Get(i)
			if publicOnly && !imp.IsPublic {
				continue
			}
			if module := n.mappings.moduleFor(imp.Path()); module != "" && module != own && !seen[module] {
				seen[module] = true
				modules = append(modules, module)
			}
			visit(imp.Imports(), true)
		}
	}
	visit(n.file.Desc.Imports(), false)

	sort.Strings(modules)
	return modules
}
