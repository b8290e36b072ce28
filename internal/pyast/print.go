package pyast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Render emits the canonical source form of the document: one entry per
// line, single-space indent, trailing commas, single-quoted strings. The
// rendering is a fixed point of Parse followed by Render, so re-patching an
// already-rendered file never changes it again.
func Render(doc *Document) []byte {
	var buf bytes.Buffer
	buf.WriteString(doc.Target)
	buf.WriteString(" = {")
	if len(doc.Entries) == 0 {
		buf.WriteString("}\n")
		return buf.Bytes()
	}
	buf.WriteByte('\n')
	for _, e := range doc.Entries {
		buf.WriteByte(' ')
		buf.WriteString(Quote(e.Key))
		buf.WriteString(": ")
		switch e.Value.Kind {
		case StringValue:
			buf.WriteString(Quote(e.Value.Str))
		case IntValue:
			buf.WriteString(strconv.FormatInt(e.Value.Int, 10))
		}
		buf.WriteString(",\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// Quote renders s as a Python string literal. Single quotes are preferred;
// like repr(), a value containing single quotes but no double quotes is
// rendered double-quoted instead of escaped.
func Quote(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var sb strings.Builder
	sb.WriteByte(quote)
	for _, r := range s {
		switch r {
		case rune(quote):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString(fmt.Sprintf(`\x%02x`, r))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
