package pyast

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokAssign
	tokLBrace
	tokRBrace
	tokColon
	tokComma
	tokString
	tokInt
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokName:
		return "identifier"
	case tokAssign:
		return "'='"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokColon:
		return "':'"
	case tokComma:
		return "','"
	case tokString:
		return "string literal"
	case tokInt:
		return "int literal"
	}
	return "unknown token"
}

type token struct {
	kind tokenKind
	text string // identifier name or decoded string value
	num  int64
	line int
}

type lexer struct {
	src    []byte
	pos    int
	line   int
	pushed *token
}

func (lx *lexer) pushback(tok token) {
	lx.pushed = &tok
}

func (lx *lexer) next() (token, error) {
	if lx.pushed != nil {
		tok := *lx.pushed
		lx.pushed = nil
		return tok, nil
	}
	lx.skipSpace()
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, line: lx.line}, nil
	}

	c := lx.src[lx.pos]
	switch {
	case c == '=':
		lx.pos++
		return token{kind: tokAssign, line: lx.line}, nil
	case c == '{':
		lx.pos++
		return token{kind: tokLBrace, line: lx.line}, nil
	case c == '}':
		lx.pos++
		return token{kind: tokRBrace, line: lx.line}, nil
	case c == ':':
		lx.pos++
		return token{kind: tokColon, line: lx.line}, nil
	case c == ',':
		lx.pos++
		return token{kind: tokComma, line: lx.line}, nil
	case c == '\'' || c == '"':
		return lx.scanString()
	case c >= '0' && c <= '9' || c == '-':
		return lx.scanInt()
	case isNameStart(c):
		return lx.scanName()
	default:
		return token{}, shapeErrf(lx.line, "unexpected character %q", c)
	}
}

// skipSpace advances over whitespace, comments, and backslash-newline
// continuations, tracking line numbers.
func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		switch c := lx.src[lx.pos]; c {
		case ' ', '\t', '\r':
			lx.pos++
		case '\n':
			lx.line++
			lx.pos++
		case '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case '\\':
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '\n' {
				lx.line++
				lx.pos += 2
			} else {
				return
			}
		default:
			return
		}
	}
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}

func (lx *lexer) scanName() (token, error) {
	start := lx.pos
	for lx.pos < len(lx.src) && isNameChar(lx.src[lx.pos]) {
		lx.pos++
	}
	return token{kind: tokName, text: string(lx.src[start:lx.pos]), line: lx.line}, nil
}

func (lx *lexer) scanInt() (token, error) {
	start := lx.pos
	if lx.src[lx.pos] == '-' {
		lx.pos++
	}
	for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '9' {
		lx.pos++
	}
	text := string(lx.src[start:lx.pos])
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token{}, shapeErrf(lx.line, "bad int literal %q", text)
	}
	return token{kind: tokInt, num: n, line: lx.line}, nil
}

// scanString decodes a single- or double-quoted Python string literal.
// Triple-quoted and prefixed (r'', b'', f'') literals are not produced by
// the sysconfigdata generator and are rejected.
func (lx *lexer) scanString() (token, error) {
	quote := lx.src[lx.pos]
	startLine := lx.line
	lx.pos++
	if lx.pos+1 < len(lx.src) && lx.src[lx.pos] == quote && lx.src[lx.pos+1] == quote {
		return token{}, shapeErrf(startLine, "triple-quoted strings are not supported")
	}

	var sb strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch c {
		case quote:
			lx.pos++
			return token{kind: tokString, text: sb.String(), line: startLine}, nil
		case '\n':
			return token{}, shapeErrf(startLine, "unterminated string literal")
		case '\\':
			lx.pos++
			if err := lx.scanEscape(&sb, startLine); err != nil {
				return token{}, err
			}
		default:
			sb.WriteByte(c)
			lx.pos++
		}
	}
	return token{}, shapeErrf(startLine, "unterminated string literal")
}

func (lx *lexer) scanEscape(sb *strings.Builder, line int) error {
	if lx.pos >= len(lx.src) {
		return shapeErrf(line, "unterminated string literal")
	}
	c := lx.src[lx.pos]
	lx.pos++
	switch c {
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '\n':
		lx.line++ // line continuation inside a literal
	case 'x':
		return lx.scanHexEscape(sb, line, 2)
	case 'u':
		return lx.scanHexEscape(sb, line, 4)
	case 'U':
		return lx.scanHexEscape(sb, line, 8)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := int64(c - '0')
		for i := 0; i < 2 && lx.pos < len(lx.src); i++ {
			d := lx.src[lx.pos]
			if d < '0' || d > '7' {
				break
			}
			n = n*8 + int64(d-'0')
			lx.pos++
		}
		sb.WriteRune(rune(n))
	default:
		// Python would keep the backslash literally here; refusing is
		// safer since the generator never emits such sequences.
		return shapeErrf(line, "unsupported escape sequence \\%c", c)
	}
	return nil
}

func (lx *lexer) scanHexEscape(sb *strings.Builder, line, digits int) error {
	if lx.pos+digits > len(lx.src) {
		return shapeErrf(line, "truncated hex escape")
	}
	n, err := strconv.ParseUint(string(lx.src[lx.pos:lx.pos+digits]), 16, 32)
	if err != nil {
		return shapeErrf(line, "bad hex escape")
	}
	lx.pos += digits
	sb.WriteRune(rune(n))
	return nil
}
