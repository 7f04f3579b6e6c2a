package plugin

import (
	"bytes"
	"fmt"
	"strings"
)

// indentUnit is the indentation used for each nesting level of Swift output.
const indentUnit = "  "

// printer accumulates Swift source text for one output file.
//
// Its P mirrors protogen.GeneratedFile.P. The output file itself is only
// created once the whole schema file generated without error.
type printer struct {
	buf    bytes.Buffer
	indent string
}

// P prints a line to the buffer at the current indentation. The arguments are
// concatenated with fmt.Fprint. A call with no arguments prints an empty line
// with no trailing whitespace.
func (p *printer) P(v ...any) {
	line := fmt.Sprint(v...)
	if line == "" {
		p.buf.WriteByte('\n')
		return
	}
	p.buf.WriteString(p.indent)
	p.buf.WriteString(line)
	p.buf.WriteByte('\n')
}

// Comments prints a block of pre-rendered comment lines, indenting each one.
// The block is expected to end with a newline; an empty block prints nothing.
func (p *printer) Comments(block string) {
	if block == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
		p.P(line)
	}
}

// Raw appends text verbatim, without indentation.
func (p *printer) Raw(s string) {
	p.buf.WriteString(s)
}

func (p *printer) Indent() {
	p.indent += indentUnit
}

func (p *printer) Outdent() {
	p.indent = strings.TrimSuffix(p.indent, indentUnit)
}

// IsEmpty reports whether nothing has been printed yet.
func (p *printer) IsEmpty() bool {
	return p.buf.Len() == 0
}

// Content returns everything printed so far.
func (p *printer) Content() string {
	return p.buf.String()
}
