// Package pyast parses the narrow slice of Python source that a generated
// sysconfigdata module uses: a single assignment whose right-hand side is a
// flat dict literal with string keys and string or int values. Anything
// outside that shape is rejected so the caller never edits a file it does
// not fully understand.
package pyast

import (
	"errors"
	"fmt"
)

// ErrShape reports that the source is syntactically valid Python but does
// not match the single-assignment flat-dict shape this package supports.
var ErrShape = errors.New("unexpected sysconfigdata shape")

// ValueKind discriminates the two literal kinds a dict value may hold.
type ValueKind int

const (
	// StringValue is a (possibly concatenated) Python string literal.
	StringValue ValueKind = iota
	// IntValue is a decimal integer literal.
	IntValue
)

// Value is one dict value, either a string or an integer.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
}

// String returns the string payload and true when the value is a string.
func (v Value) String() (string, bool) {
	if v.Kind != StringValue {
		return "", false
	}
	return v.Str, true
}

// Entry is one key/value pair of the dict, in source order.
type Entry struct {
	Key   string
	Value Value
}

// Document is the parsed form of a sysconfigdata module: the assignment
// target name and the dict entries in their original order. Duplicate keys
// are preserved as-is.
type Document struct {
	Target  string
	Entries []Entry
}

// SetString replaces the value of entry i with a string literal.
func (d *Document) SetString(i int, s string) {
	d.Entries[i].Value = Value{Kind: StringValue, Str: s}
}

// Parse reads src and returns the Document, or an error wrapping ErrShape
// when the module does not consist of exactly one flat str/(str|int) dict
// assignment. Comments and blank lines around the assignment are ignored.
func Parse(src []byte) (*Document, error) {
	lx := &lexer{src: src, line: 1}

	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokName {
		return nil, shapeErrf(tok.line, "expected assignment target, got %s", tok.kind)
	}
	doc := &Document{Target: tok.text}

	if err := expect(lx, tokAssign); err != nil {
		return nil, err
	}
	if err := expect(lx, tokLBrace); err != nil {
		return nil, err
	}

	for {
		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokRBrace {
			break
		}
		key, err := parseString(lx, tok)
		if err != nil {
			return nil, fmt.Errorf("dict key: %w", err)
		}
		if err := expect(lx, tokColon); err != nil {
			return nil, err
		}
		val, next, err := parseValue(lx)
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", key, err)
		}
		doc.Entries = append(doc.Entries, Entry{Key: key, Value: val})

		switch next.kind {
		case tokComma:
			// trailing comma before } is handled by the loop
		case tokRBrace:
			return doc, expectEOF(lx)
		default:
			return nil, shapeErrf(next.line, "expected ',' or '}', got %s", next.kind)
		}
	}
	return doc, expectEOF(lx)
}

// parseString consumes a string literal starting at tok, folding Python
// implicit adjacent-literal concatenation (pprint wraps long values that
// way). The token following the string is pushed back.
func parseString(lx *lexer, tok token) (string, error) {
	if tok.kind != tokString {
		return "", shapeErrf(tok.line, "expected string literal, got %s", tok.kind)
	}
	s := tok.text
	for {
		next, err := lx.next()
		if err != nil {
			return "", err
		}
		if next.kind != tokString {
			lx.pushback(next)
			return s, nil
		}
		s += next.text
	}
}

// parseValue parses one dict value (string or int literal) and returns it
// together with the token that follows it.
func parseValue(lx *lexer) (Value, token, error) {
	tok, err := lx.next()
	if err != nil {
		return Value{}, token{}, err
	}
	switch tok.kind {
	case tokString:
		s, err := parseString(lx, tok)
		if err != nil {
			return Value{}, token{}, err
		}
		next, err := lx.next()
		if err != nil {
			return Value{}, token{}, err
		}
		return Value{Kind: StringValue, Str: s}, next, nil
	case tokInt:
		next, err := lx.next()
		if err != nil {
			return Value{}, token{}, err
		}
		return Value{Kind: IntValue, Int: tok.num}, next, nil
	default:
		return Value{}, token{}, shapeErrf(tok.line, "expected string or int literal, got %s", tok.kind)
	}
}

func expect(lx *lexer, kind tokenKind) error {
	tok, err := lx.next()
	if err != nil {
		return err
	}
	if tok.kind != kind {
		return shapeErrf(tok.line, "expected %s, got %s", kind, tok.kind)
	}
	return nil
}

// expectEOF rejects any statement after the dict assignment.
func expectEOF(lx *lexer) error {
	tok, err := lx.next()
	if err != nil {
		return err
	}
	if tok.kind != tokEOF {
		return shapeErrf(tok.line, "trailing %s after dict assignment", tok.kind)
	}
	return nil
}

func shapeErrf(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrShape, line, fmt.Sprintf(format, args...))
}
