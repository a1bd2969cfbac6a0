// Package openapi loads OpenAPI 3.x documents into an operation catalog.
//
// The parser decodes a document by content (JSON first, then YAML), rejects
// anything that is not OpenAPI 3 before reading a single operation, builds
// the model with kin-openapi and flattens it into a Catalog whose operations
// keep the order of the document.
//
// # Supported Formats
//
//   - OpenAPI 3.0.x (JSON/YAML)
//   - OpenAPI 3.1.x (JSON/YAML)
//
// Swagger 2.0 documents fail with UnsupportedVersion.
//
// # Example Usage
//
//	parser := openapi.NewParser()
//	catalog, err := parser.ParseFile(ctx, "openapi.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, op := range catalog.Operations {
//	    fmt.Printf("%s %s %s\n", op.ID, op.Method, op.Path)
//	}
//
// Every operation has an identifier: operations without an operationId get
// one derived from the method and path ("get_users_userId"). Operations
// without tags carry the single tag DefaultTag.
package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/cliwizard/cliwizard/pkg/naming"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Parser turns OpenAPI documents into catalogs.
type Parser struct {
	// DisableValidation skips OpenAPI spec validation
	DisableValidation bool
	// AllowRemoteRefs enables loading remote $ref references
	AllowRemoteRefs bool
}

// NewParser creates a new Parser instance with default settings.
func NewParser() *Parser {
	return &Parser{}
}

// Document formats recognized by the parser.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var httpMethods = []string{
	http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete,
	http.MethodOptions, http.MethodHead, http.MethodPatch, http.MethodTrace,
}

// Parse parses an OpenAPI document from a byte slice.
func (p *Parser) Parse(ctx context.Context, data []byte) (*Catalog, error) {
	root, _, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}

	version, err := detectVersion(root)
	if err != nil {
		return nil, err
	}

	doc, err := p.load(ctx, data)
	if err != nil {
		return nil, err
	}

	catalog, err := buildCatalog(root, doc)
	if err != nil {
		return nil, err
	}
	catalog.OpenAPIVersion = version
	return catalog, nil
}

// ParseFile parses an OpenAPI document from a file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(ctx, data)
}

// DetectFormat reports whether data is a JSON or a YAML document.
func DetectFormat(data []byte) (string, error) {
	_, format, err := decodeDocument(data)
	return format, err
}

// decodeDocument decodes data as JSON, falling back to YAML, and returns the
// top-level mapping node.
func decodeDocument(data []byte) (*yaml.Node, string, error) {
	if json.Valid(data) {
		root, err := jsonNode(json.NewDecoder(bytes.NewReader(data)))
		if err != nil {
			return nil, "", malformed("invalid JSON document", err)
		}
		if root.Kind != yaml.MappingNode {
			return nil, "", malformed("top-level value must be a mapping", nil)
		}
		return root, FormatJSON, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "", malformed("document is neither valid JSON nor valid YAML", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, "", malformed("document is empty", nil)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, "", malformed("top-level value must be a mapping", nil)
	}
	return root, FormatYAML, nil
}

// jsonNode reads one JSON value into a yaml.Node, keeping object key order.
func jsonNode(dec *json.Decoder) (*yaml.Node, error) {
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if t == '{' {
			node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		for dec.More() {
			if node.Kind == yaml.MappingNode {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(key)})
			}
			child, err := jsonNode(dec)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return node, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}, nil
	case json.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: t.String()}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(t)}, nil
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
}

// detectVersion gates on the openapi (or swagger) field.
func detectVersion(root *yaml.Node) (string, error) {
	if v := mappingValue(root, "openapi"); v != nil {
		version := strings.TrimSpace(v.Value)
		if v.Kind != yaml.ScalarNode || version == "" {
			return "", malformed("openapi field must be a version string", nil)
		}
		if major, _, _ := strings.Cut(version, "."); major != "3" {
			return "", &UnsupportedVersion{Version: version}
		}
		return version, nil
	}
	if v := mappingValue(root, "swagger"); v != nil {
		return "", &UnsupportedVersion{Version: strings.TrimSpace(v.Value)}
	}
	return "", malformed("could not determine spec version (missing 'openapi' field)", nil)
}

func (p *Parser) load(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = p.AllowRemoteRefs

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, malformed("failed to load OpenAPI 3.x", err)
	}

	if !p.DisableValidation {
		if err := doc.Validate(ctx); err != nil {
			return nil, malformed("spec validation failed", err)
		}
	}
	return doc, nil
}

func buildCatalog(root *yaml.Node, doc *openapi3.T) (*Catalog, error) {
	catalog := &Catalog{}
	if doc.Info != nil {
		catalog.Title = doc.Info.Title
		catalog.Version = doc.Info.Version
	}
	for _, tag := range doc.Tags {
		if tag != nil {
			catalog.Tags = append(catalog.Tags, Tag{Name: tag.Name, Description: tag.Description})
		}
	}

	if doc.Paths == nil {
		return catalog, nil
	}

	ids := make(map[string]string)
	for _, path := range orderedPaths(root, doc) {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}
		for _, method := range orderedMethods(mappingValue(mappingValue(root, "paths"), path), item) {
			operation := item.GetOperation(method)
			if operation == nil {
				continue
			}

			op := newOperation(method, path, item, operation)
			cli, err := parseCLIExtensions(operation.Extensions)
			if err != nil {
				return nil, &MalformedSpec{Reason: err.Error(), Operation: op.ID}
			}
			op.CLI = cli
			if prev, dup := ids[op.ID]; dup {
				return nil, &MalformedSpec{
					Reason:    fmt.Sprintf("duplicate operation identifier (also used by %s)", prev),
					Operation: op.ID,
				}
			}
			ids[op.ID] = op.Method + " " + op.Path
			catalog.Operations = append(catalog.Operations, op)
		}
	}
	return catalog, nil
}

func newOperation(method, path string, item *openapi3.PathItem, operation *openapi3.Operation) *Operation {
	op := &Operation{
		ID:          operation.OperationID,
		Method:      method,
		Path:        path,
		Summary:     operation.Summary,
		Description: operation.Description,
		Deprecated:  operation.Deprecated,
		Tags:        append([]string(nil), operation.Tags...),
		Parameters:  mergeParameters(item.Parameters, operation.Parameters),
	}
	if op.ID == "" {
		op.ID = DeriveOperationID(method, path)
		op.DerivedID = true
	}
	if len(op.Tags) == 0 {
		op.Tags = []string{DefaultTag}
	}
	if operation.RequestBody != nil && operation.RequestBody.Value != nil {
		op.RequestBody = newRequestBody(operation.RequestBody.Value)
	}
	if operation.Responses != nil {
		responses := operation.Responses.Map()
		statuses := make([]string, 0, len(responses))
		for status := range responses {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			r := Response{Status: status}
			if ref := responses[status]; ref != nil && ref.Value != nil && ref.Value.Description != nil {
				r.Description = *ref.Value.Description
			}
			op.Responses = append(op.Responses, r)
		}
	}
	return op
}

// DeriveOperationID builds the identifier of an operation without an
// operationId: the lower-case method and the path slug.
func DeriveOperationID(method, path string) string {
	slug := naming.Slug(path)
	if slug == "" {
		slug = "root"
	}
	return strings.ToLower(method) + "_" + slug
}

// mergeParameters overlays operation parameters on path-level ones; an
// operation parameter replaces a path-level one with the same name and
// location.
func mergeParameters(pathLevel, opLevel openapi3.Parameters) []Parameter {
	var out []Parameter
	index := make(map[string]int)
	add := func(params openapi3.Parameters) {
		for _, ref := range params {
			if ref == nil || ref.Value == nil {
				continue
			}
			param := newParameter(ref.Value)
			key := string(param.In) + ":" + param.Name
			if i, ok := index[key]; ok {
				out[i] = param
				continue
			}
			index[key] = len(out)
			out = append(out, param)
		}
	}
	add(pathLevel)
	add(opLevel)
	return out
}

func newParameter(p *openapi3.Parameter) Parameter {
	param := Parameter{
		Name:        p.Name,
		In:          ParameterLocation(p.In),
		Required:    p.Required || p.In == openapi3.ParameterInPath,
		Description: p.Description,
		Deprecated:  p.Deprecated,
	}
	param.Type, param.Format = schemaType(p.Schema)
	if p.Schema != nil && p.Schema.Value != nil {
		param.Default = p.Schema.Value.Default
		param.Enum = p.Schema.Value.Enum
	}
	return param
}

func newRequestBody(body *openapi3.RequestBody) *RequestBody {
	rb := &RequestBody{
		Required:    body.Required,
		Description: body.Description,
	}

	media := body.Content.Get("application/json")
	rb.ContentType = "application/json"
	if media == nil {
		types := make([]string, 0, len(body.Content))
		for ct := range body.Content {
			types = append(types, ct)
		}
		if len(types) == 0 {
			rb.ContentType = ""
			return rb
		}
		sort.Strings(types)
		rb.ContentType = types[0]
		media = body.Content[types[0]]
	}

	if media != nil && media.Schema != nil {
		rb.Properties = flattenProperties(media.Schema.Value)
	}
	return rb
}

// flattenProperties collects the top-level properties of an object schema,
// merging allOf members. Properties are sorted by name.
func flattenProperties(schema *openapi3.Schema) []BodyProperty {
	props := make(map[string]BodyProperty)
	required := make(map[string]bool)
	visited := make(map[*openapi3.Schema]bool)

	var collect func(s *openapi3.Schema)
	collect = func(s *openapi3.Schema) {
		if s == nil || visited[s] {
			return
		}
		visited[s] = true
		for _, sub := range s.AllOf {
			if sub != nil {
				collect(sub.Value)
			}
		}
		for _, name := range s.Required {
			required[name] = true
		}
		for name, ref := range s.Properties {
			prop := BodyProperty{Name: name}
			prop.Type, prop.Format = schemaType(ref)
			if ref != nil && ref.Value != nil {
				prop.Description = ref.Value.Description
				prop.Default = ref.Value.Default
				prop.Enum = ref.Value.Enum
			}
			props[name] = prop
		}
	}
	collect(schema)

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]BodyProperty, 0, len(names))
	for _, name := range names {
		prop := props[name]
		prop.Required = required[name]
		out = append(out, prop)
	}
	return out
}

// schemaType returns the first non-null type of a schema, inferring object
// and array when the type is omitted.
func schemaType(ref *openapi3.SchemaRef) (string, string) {
	if ref == nil || ref.Value == nil {
		return "string", ""
	}
	s := ref.Value
	if s.Type != nil {
		for _, t := range s.Type.Slice() {
			if t != openapi3.TypeNull {
				return t, s.Format
			}
		}
	}
	switch {
	case len(s.Properties) > 0:
		return openapi3.TypeObject, s.Format
	case s.Items != nil:
		return openapi3.TypeArray, s.Format
	}
	return openapi3.TypeString, s.Format
}

// orderedPaths returns the paths in document order. Paths known to the model
// but absent from the node tree are appended sorted.
func orderedPaths(root *yaml.Node, doc *openapi3.T) []string {
	seen := make(map[string]bool)
	var out []string
	for _, key := range mappingKeys(mappingValue(root, "paths")) {
		if doc.Paths.Value(key) != nil && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	var rest []string
	for path := range doc.Paths.Map() {
		if !seen[path] {
			rest = append(rest, path)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// orderedMethods returns the upper-case methods of item in document order,
// then any remaining methods in canonical order (e.g. for a $ref'd item).
func orderedMethods(node *yaml.Node, item *openapi3.PathItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, key := range mappingKeys(node) {
		method := strings.ToUpper(key)
		if isHTTPMethod(method) && !seen[method] {
			seen[method] = true
			out = append(out, method)
		}
	}
	for _, method := range httpMethods {
		if !seen[method] && item.GetOperation(method) != nil {
			out = append(out, method)
		}
	}
	return out
}

func isHTTPMethod(m string) bool {
	for _, method := range httpMethods {
		if m == method {
			return true
		}
	}
	return false
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func mappingKeys(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}
