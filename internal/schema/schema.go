// Package schema defines the declarative tool parameter schema and its
// translation into the JSON-schema shape the LLM providers expect.
//
// Tool definitions own a plain, library-independent Params map instead
// of leaking a validation library's internals. Translate is the only
// place that knows what the wire format looks like.
package schema

import "sort"

// Kind classifies a single parameter.
type Kind string

const (
	String  Kind = "string"
	Boolean Kind = "boolean"
	Number  Kind = "number"
	Enum    Kind = "enum"
)

// Param describes one named tool parameter.
type Param struct {
	Kind        Kind
	Optional    bool
	Description string
	Enum        []string // only for Kind == Enum
}

// Params maps parameter name to its declaration. A nil or empty map is
// a valid schema for a tool that takes no arguments.
type Params map[string]Param

// Optional wraps p as optional. Convenience for inline declarations.
func Optional(p Param) Param {
	p.Optional = true
	return p
}

// jsonType maps a parameter kind to its JSON-schema type string.
// Unrecognized kinds degrade to "string" so an unfamiliar declaration
// never blocks tool registration.
func jsonType(k Kind) string {
	switch k {
	case String, Enum:
		return "string"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	default:
		return "string"
	}
}

// Translate converts a declarative Params map into the JSON-schema
// object form used by function-calling APIs:
//
//	{"type": "object", "properties": {...}, "required": [...]}
//
// Optionality is expressed solely through absence from "required".
// Enum parameters carry an explicit "enum" array.
func Translate(params Params) map[string]any {
	properties := map[string]any{}
	required := []string{}

	// Sorted iteration keeps the wire form stable across calls.
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := params[name]
		prop := map[string]any{
			"type": jsonType(p.Kind),
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Kind == Enum && len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[name] = prop

		if !p.Optional {
			required = append(required, name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
