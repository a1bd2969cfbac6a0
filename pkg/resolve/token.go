package resolve

import (
	"regexp"
)

// TokenKind distinguishes the two reference forms.
type TokenKind int

const (
	// Literal is plain text between references.
	Literal TokenKind = iota
	// EnvironmentReference is ${NAME} or ${NAME:-default}.
	EnvironmentReference
	// ParameterReference is #[Key].
	ParameterReference
)

func (k TokenKind) String() string {
	switch k {
	case EnvironmentReference:
		return "env"
	case ParameterReference:
		return "param"
	default:
		return "literal"
	}
}

// Token is one segment of a tokenized string value.
type Token struct {
	Kind TokenKind
	// Text is the literal text, or the raw reference as written.
	Text string
	// Name is the variable name or referenced key.
	Name string
	// Default is the fallback of ${NAME:-default}; HasDefault tells an empty
	// default apart from none.
	Default    string
	HasDefault bool
}

var tokenPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}|#\[([A-Za-z_][A-Za-z0-9_]*)\]`)

// Tokenize splits s into literal and reference segments. It never fails:
// text that does not match the reference grammar is literal.
func Tokenize(s string) []Token {
	matches := tokenPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return []Token{{Kind: Literal, Text: s}}
	}

	tokens := make([]Token, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			tokens = append(tokens, Token{Kind: Literal, Text: s[last:m[0]]})
		}
		raw := s[m[0]:m[1]]
		if m[2] >= 0 {
			tok := Token{Kind: EnvironmentReference, Text: raw, Name: s[m[2]:m[3]]}
			if m[4] >= 0 {
				tok.HasDefault = true
				tok.Default = s[m[6]:m[7]]
			}
			tokens = append(tokens, tok)
		} else {
			tokens = append(tokens, Token{Kind: ParameterReference, Text: raw, Name: s[m[8]:m[9]]})
		}
		last = m[1]
	}
	if last < len(s) {
		tokens = append(tokens, Token{Kind: Literal, Text: s[last:]})
	}
	return tokens
}

// HasTokens reports whether v, or any string nested in it, contains a
// reference.
func HasTokens(v any) bool {
	found := false
	walkStrings(v, func(s string) {
		if !found && tokenPattern.MatchString(s) {
			found = true
		}
	})
	return found
}

// ParameterRefs returns the keys referenced by #[Key] tokens in v, in order
// of appearance, without duplicates.
func ParameterRefs(v any) []string {
	var refs []string
	seen := make(map[string]bool)
	walkStrings(v, func(s string) {
		for _, tok := range Tokenize(s) {
			if tok.Kind == ParameterReference && !seen[tok.Name] {
				seen[tok.Name] = true
				refs = append(refs, tok.Name)
			}
		}
	})
	return refs
}

// walkStrings calls fn for every string in v, descending into lists and
// mappings. Mapping values are visited in sorted key order.
func walkStrings(v any, fn func(string)) {
	switch t := v.(type) {
	case string:
		fn(t)
	case []any:
		for _, item := range t {
			walkStrings(item, fn)
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			walkStrings(t[k], fn)
		}
	}
}
