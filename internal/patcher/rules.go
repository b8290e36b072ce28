package patcher

import "strings"

// Rule rewrites a single variable's value. The two implementations cover
// the two update shapes: whole-word substitution and unconditional
// replacement. Dispatch is static; callers never inspect the concrete type.
type Rule interface {
	Apply(value string) string
}

// WordReplace substitutes Word with To wherever Word appears as a whole
// token, delimited by whitespace or the value's start/end. Substrings of
// longer tokens (like "clang" inside "/opt/clang-tool") are left alone.
type WordReplace struct {
	Word string
	To   string
}

// Apply returns value with every whole-word occurrence of r.Word replaced.
func (r WordReplace) Apply(value string) string {
	if r.Word == "" {
		return value
	}
	var sb strings.Builder
	i := 0
	for {
		j := strings.Index(value[i:], r.Word)
		if j < 0 {
			sb.WriteString(value[i:])
			return sb.String()
		}
		start := i + j
		end := start + len(r.Word)
		if boundary(value, start-1) && boundary(value, end) {
			sb.WriteString(value[i:start])
			sb.WriteString(r.To)
			i = end
		} else {
			sb.WriteString(value[i : start+1])
			i = start + 1
		}
	}
}

// boundary reports whether position idx in s delimits a word: either off
// either end of the string or holding an ASCII whitespace byte.
func boundary(s string, idx int) bool {
	if idx < 0 || idx >= len(s) {
		return true
	}
	switch s[idx] {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// SetValue unconditionally replaces the whole value.
type SetValue string

// Apply returns the fixed replacement value.
func (r SetValue) Apply(string) string { return string(r) }

// DefaultUpdates returns the built-in variable-update table: the compiler
// and linker driver variables recorded at build time point at clang, which
// relocated installations replace with the system toolchain aliases.
// The returned map is a fresh copy; callers may extend it freely.
func DefaultUpdates() map[string]Rule {
	return map[string]Rule{
		"CC":          WordReplace{Word: "clang", To: "cc"},
		"CXX":         WordReplace{Word: "clang++", To: "c++"},
		"BLDSHARED":   WordReplace{Word: "clang", To: "cc"},
		"LDSHARED":    WordReplace{Word: "clang", To: "cc"},
		"LDCXXSHARED": WordReplace{Word: "clang++", To: "c++"},
		"LINKCC":      WordReplace{Word: "clang", To: "cc"},
		"AR":          SetValue("ar"),
	}
}
