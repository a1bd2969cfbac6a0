// Package resolve substitutes ${VAR} environment references and #[Key]
// cross-references inside a configuration document.
//
// Keys form a directed graph (A -> B when A's value mentions #[B]). The
// graph is walked depth-first in document order with an explicit visiting
// mark per key, so a cycle is reported with its full path no matter which
// key the walk entered it from. Keys are substituted in post-order and
// memoized: every key is rewritten exactly once, and substituted text is
// never scanned again for further references.
package resolve

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Source is an ordered configuration document.
type Source interface {
	Keys() []string
	Get(key string) (any, bool)
}

// Environment maps variable names to values. It is passed explicitly so
// resolution never reads process state.
type Environment map[string]string

// EnvironFromOS snapshots the process environment.
func EnvironFromOS() Environment {
	env := make(Environment)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Result holds the resolved value of every key.
type Result struct {
	values map[string]any
	envs   map[string][]string
}

// Value returns the resolved value of key.
func (r *Result) Value(key string) any {
	return r.values[key]
}

// EnvVars returns the environment variables that fed key, directly or
// through the keys it references, sorted by name.
func (r *Result) EnvVars(key string) []string {
	out := make([]string, len(r.envs[key]))
	copy(out, r.envs[key])
	return out
}

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

type resolver struct {
	src    Source
	env    Environment
	raw    map[string]any
	deps   map[string][]string
	states map[string]visitState
	stack  []string
	result *Result
}

// Resolve resolves every key of src against env.
//
// It fails with *UnresolvedReference when a ${VAR} has no value and no
// default or a #[Key] names an unknown key, and with *CyclicReference when
// keys reference each other in a loop.
func Resolve(src Source, env Environment) (*Result, error) {
	keys := src.Keys()
	r := &resolver{
		src:    src,
		env:    env,
		raw:    make(map[string]any, len(keys)),
		deps:   make(map[string][]string, len(keys)),
		states: make(map[string]visitState, len(keys)),
		result: &Result{
			values: make(map[string]any, len(keys)),
			envs:   make(map[string][]string, len(keys)),
		},
	}
	for _, k := range keys {
		v, _ := src.Get(k)
		r.raw[k] = v
	}

	// Environment references are leaves; check them all before walking.
	for _, k := range keys {
		if err := r.checkEnv(k); err != nil {
			return nil, err
		}
	}

	for _, k := range keys {
		refs := ParameterRefs(r.raw[k])
		for _, ref := range refs {
			if _, ok := r.raw[ref]; !ok {
				return nil, &UnresolvedReference{Reference: ParameterReference, Key: k, Name: ref}
			}
		}
		r.deps[k] = refs
	}

	for _, k := range keys {
		if err := r.visit(k); err != nil {
			return nil, err
		}
	}

	return r.result, nil
}

func (r *resolver) checkEnv(key string) error {
	var missing string
	walkStrings(r.raw[key], func(s string) {
		if missing != "" {
			return
		}
		for _, tok := range Tokenize(s) {
			if tok.Kind != EnvironmentReference {
				continue
			}
			if _, ok := r.env[tok.Name]; !ok && !tok.HasDefault {
				missing = tok.Name
				return
			}
		}
	})
	if missing != "" {
		return &UnresolvedReference{Reference: EnvironmentReference, Key: key, Name: missing}
	}
	return nil
}

func (r *resolver) visit(key string) error {
	switch r.states[key] {
	case stateDone:
		return nil
	case stateVisiting:
		return &CyclicReference{Path: r.cyclePath(key)}
	}

	r.states[key] = stateVisiting
	r.stack = append(r.stack, key)

	for _, dep := range r.deps[key] {
		if err := r.visit(dep); err != nil {
			return err
		}
	}

	r.stack = r.stack[:len(r.stack)-1]

	envs := make(map[string]bool)
	r.result.values[key] = r.substitute(r.raw[key], envs)
	for _, dep := range r.deps[key] {
		for _, name := range r.result.envs[dep] {
			envs[name] = true
		}
	}
	r.result.envs[key] = sortedSet(envs)

	r.states[key] = stateDone
	return nil
}

// cyclePath returns the active path from key's first occurrence, closed
// on key.
func (r *resolver) cyclePath(key string) []string {
	start := 0
	for i, k := range r.stack {
		if k == key {
			start = i
			break
		}
	}
	path := make([]string, 0, len(r.stack)-start+1)
	path = append(path, r.stack[start:]...)
	return append(path, key)
}

func (r *resolver) substitute(v any, envs map[string]bool) any {
	switch t := v.(type) {
	case string:
		return r.substituteString(t, envs)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = r.substitute(item, envs)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = r.substitute(item, envs)
		}
		return out
	default:
		return v
	}
}

func (r *resolver) substituteString(s string, envs map[string]bool) any {
	tokens := Tokenize(s)

	// A lone #[Key] pointing at a non-string scalar keeps its type.
	if len(tokens) == 1 && tokens[0].Kind == ParameterReference {
		switch target := r.result.values[tokens[0].Name].(type) {
		case int, float64, bool, nil:
			return target
		}
	}

	var b strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case Literal:
			b.WriteString(tok.Text)
		case EnvironmentReference:
			if val, ok := r.env[tok.Name]; ok {
				envs[tok.Name] = true
				b.WriteString(val)
			} else {
				b.WriteString(tok.Default)
			}
		case ParameterReference:
			b.WriteString(Stringify(r.result.values[tok.Name]))
		}
	}
	return b.String()
}

// Stringify renders a resolved value for embedding in a string. Lists and
// mappings render as JSON with sorted keys; null renders as "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
