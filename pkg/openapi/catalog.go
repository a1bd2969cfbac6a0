package openapi

import "strings"

// DefaultTag is the implicit tag of operations that declare none.
const DefaultTag = "default"

// Catalog is the ordered set of operations of one OpenAPI document.
type Catalog struct {
	Title          string `json:"title" yaml:"title"`
	Version        string `json:"version" yaml:"version"`
	OpenAPIVersion string `json:"openapi" yaml:"openapi"`
	// Tags are the top-level tag declarations, in document order.
	Tags []Tag `json:"tags,omitempty" yaml:"tags,omitempty"`
	// Operations are in document order of paths, then of methods.
	Operations []*Operation `json:"operations" yaml:"operations"`
}

// Tag is a top-level tag declaration.
type Tag struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Operation is one method on one path.
type Operation struct {
	ID string `json:"operationId" yaml:"operationId"`
	// DerivedID is true when the document had no operationId and ID was
	// built from the method and path.
	DerivedID   bool     `json:"derivedId,omitempty" yaml:"derivedId,omitempty"`
	Method      string   `json:"method" yaml:"method"`
	Path        string   `json:"path" yaml:"path"`
	Tags        []string `json:"tags" yaml:"tags"`
	Summary     string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	// CLI holds the x-cli-* extensions of the operation.
	CLI CLIExtensions `json:"cli,omitzero" yaml:"cli,omitempty"`

	Parameters  []Parameter  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   []Response   `json:"responses,omitempty" yaml:"responses,omitempty"`
}

// ParameterLocation is where a parameter is sent.
type ParameterLocation string

const (
	InPath   ParameterLocation = "path"
	InQuery  ParameterLocation = "query"
	InHeader ParameterLocation = "header"
	InCookie ParameterLocation = "cookie"
)

// Parameter is a path, query, header or cookie parameter.
type Parameter struct {
	Name        string            `json:"name" yaml:"name"`
	In          ParameterLocation `json:"in" yaml:"in"`
	Type        string            `json:"type" yaml:"type"`
	Format      string            `json:"format,omitempty" yaml:"format,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any             `json:"enum,omitempty" yaml:"enum,omitempty"`
	Deprecated  bool              `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// RequestBody is the request body of an operation, with the top-level
// properties of its object schema flattened.
type RequestBody struct {
	ContentType string         `json:"contentType" yaml:"contentType"`
	Required    bool           `json:"required,omitempty" yaml:"required,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  []BodyProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// BodyProperty is one top-level property of a request body schema.
type BodyProperty struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Response is a declared response status.
type Response struct {
	Status      string `json:"status" yaml:"status"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Operation returns the operation with the given identifier.
func (c *Catalog) Operation(id string) (*Operation, bool) {
	for _, op := range c.Operations {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// TagNames returns every tag used by an operation, in first-seen order.
func (c *Catalog) TagNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, op := range c.Operations {
		for _, tag := range op.Tags {
			if !seen[tag] {
				seen[tag] = true
				names = append(names, tag)
			}
		}
	}
	return names
}

// HasTag reports whether any operation carries tag.
func (c *Catalog) HasTag(tag string) bool {
	for _, op := range c.Operations {
		for _, t := range op.Tags {
			if t == tag {
				return true
			}
		}
	}
	return false
}

// TagDescription returns the description declared for tag, if any.
func (c *Catalog) TagDescription(tag string) string {
	for _, t := range c.Tags {
		if t.Name == tag {
			return t.Description
		}
	}
	return ""
}

// PathParameters returns the path parameters of op in the order they appear
// in its path template.
func (op *Operation) PathParameters() []Parameter {
	var out []Parameter
	for _, name := range pathTemplateNames(op.Path) {
		for _, p := range op.Parameters {
			if p.In == InPath && p.Name == name {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func pathTemplateNames(path string) []string {
	var names []string
	for {
		start := strings.IndexByte(path, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(path[start:], '}')
		if end < 0 {
			return names
		}
		names = append(names, path[start+1:start+end])
		path = path[start+end+1:]
	}
}
