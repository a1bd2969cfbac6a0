package resolve

import (
	"fmt"
	"strings"
)

// Error kinds reported by the resolver.
const (
	KindUnresolvedReference = "UnresolvedReference"
	KindCyclicReference     = "CyclicReference"
)

// UnresolvedReference reports a #[Key] naming an unknown option, or a
// ${VAR} naming an unset environment variable without a default.
type UnresolvedReference struct {
	// Reference is EnvironmentReference or ParameterReference.
	Reference TokenKind
	// Key is the option whose value holds the reference.
	Key string
	// Name is the missing variable or option.
	Name string
}

// Kind returns KindUnresolvedReference.
func (e *UnresolvedReference) Kind() string { return KindUnresolvedReference }

func (e *UnresolvedReference) Error() string {
	if e.Reference == EnvironmentReference {
		return fmt.Sprintf("unresolved reference in %s: environment variable %s is not set", e.Key, e.Name)
	}
	return fmt.Sprintf("unresolved reference in %s: unknown key #[%s]", e.Key, e.Name)
}

// CyclicReference reports a reference cycle. Path starts and ends with the
// same key, e.g. [A B A]; a self-reference is [A A].
type CyclicReference struct {
	Path []string
}

// Kind returns KindCyclicReference.
func (e *CyclicReference) Kind() string { return KindCyclicReference }

func (e *CyclicReference) Error() string {
	return "cyclic reference: " + strings.Join(e.Path, " -> ")
}

// Keys returns the distinct keys on the cycle.
func (e *CyclicReference) Keys() []string {
	if len(e.Path) <= 1 {
		return e.Path
	}
	return e.Path[:len(e.Path)-1]
}
