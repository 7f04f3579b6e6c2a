package plugin

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// -----------------------------------------------------------------------------
// Documentation Comments
// -----------------------------------------------------------------------------

const (
	// defaultCommentPrefix starts every documentation comment line.
	defaultCommentPrefix = "///"

	// defaultLeadingDetachedPrefix starts comment lines that were detached from
	// the declaration in the .proto file (separated by a blank line). They are
	// kept as plain comments so they don't end up in the symbol documentation.
	defaultLeadingDetachedPrefix = "//"
)

// commentSource is anything that can be documented in the generated code: a
// file, message, enum, enum value, field or extension.
type commentSource interface {
	// deprecated reports whether the entity carries the deprecated option.
	deprecated() bool

	// protoSourceComments renders the comments attached to the entity in the
	// .proto source, one prefixed line per comment line. The result is empty
	// or ends in a newline.
	protoSourceComments(commentPrefix, leadingDetachedPrefix string) string
}

type commentStyle struct {
	prefix         string
	detachedPrefix string
}

// commentOption overrides part of the default comment style.
type commentOption func(*commentStyle)

func withCommentPrefix(prefix string) commentOption {
	return func(s *commentStyle) { s.prefix = prefix }
}

func withLeadingDetachedPrefix(prefix string) commentOption {
	return func(s *commentStyle) { s.detachedPrefix = prefix }
}

// documentationComments returns the source comments of src followed by a
// deprecation note when src is deprecated. kind names the entity in the note
// ("message", "field", ...).
func documentationComments(src commentSource, kind string, opts ...commentOption) string {
	style := commentStyle{
		prefix:         defaultCommentPrefix,
		detachedPrefix: defaultLeadingDetachedPrefix,
	}
	for _, opt := range opts {
		opt(&style)
	}

	comments := src.protoSourceComments(style.prefix, style.detachedPrefix)
	if !src.deprecated() {
		return comments
	}
	return comments + deprecationAnnotation(style.prefix, kind)
}

func deprecationAnnotation(prefix, kind string) string {
	return fmt.Sprintf("%s NOTE: This %s was marked as deprecated in the .proto file.\n", prefix, kind)
}

// formatCommentSet renders the leading detached and leading comments of a
// declaration. Each detached block is followed by a blank line so it stays
// visually separate from the declaration. Trailing comments are not rendered.
func formatCommentSet(cs protogen.CommentSet, commentPrefix, leadingDetachedPrefix string) string {
	var b strings.Builder
	for _, detached := range cs.LeadingDetached {
		if text := prefixCommentLines(string(detached), leadingDetachedPrefix); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	b.WriteString(prefixCommentLines(string(cs.Leading), commentPrefix))
	return b.String()
}

func prefixCommentLines(text, prefix string) string {
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// Descriptor Adapters
// -----------------------------------------------------------------------------

// protoEntity adapts a descriptor and its protogen comments to commentSource.
type protoEntity struct {
	desc     protoreflect.Descriptor
	comments protogen.CommentSet
}

func (e protoEntity) deprecated() bool {
	return isDeprecated(e.desc)
}

func (e protoEntity) protoSourceComments(commentPrefix, leadingDetachedPrefix string) string {
	return formatCommentSet(e.comments, commentPrefix, leadingDetachedPrefix)
}

// fileEntity returns the commentSource for a whole file. A file's comments are
// the ones attached to its syntax statement, or to its package statement when
// the file has no syntax statement.
func fileEntity(file *protogen.File) protoEntity {
	locs := file.Desc.SourceLocations()
	loc := locs.ByPath(protoreflect.SourcePath{fileSyntaxFieldNumber})
	if loc.LeadingComments == "" && len(loc.LeadingDetachedComments) == 0 {
		loc = locs.ByPath(protoreflect.SourcePath{filePackageFieldNumber})
	}

	cs := protogen.CommentSet{Leading: protogen.Comments(loc.LeadingComments)}
	for _, c := range loc.LeadingDetachedComments {
		cs.LeadingDetached = append(cs.LeadingDetached, protogen.Comments(c))
	}
	return protoEntity{desc: file.Desc, comments: cs}
}

// Field numbers within google.protobuf.FileDescriptorProto.
const (
	filePackageFieldNumber = 2
	fileSyntaxFieldNumber  = 12
)

// isDeprecated reports whether the descriptor's options set deprecated = true.
func isDeprecated(desc protoreflect.Descriptor) bool {
	switch opts := desc.Options().(type) {
	case *descriptorpb.FileOptions:
		return opts.GetDeprecated()
	case *descriptorpb.MessageOptions:
		return opts.GetDeprecated()
	case *descriptorpb.FieldOptions:
		return opts.GetDeprecated()
	case *descriptorpb.EnumOptions:
		return opts.GetDeprecated()
	case *descriptorpb.EnumValueOptions:
		return opts.GetDeprecated()
	}
	return false
}
