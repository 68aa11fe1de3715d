package types

// Tool describes a capability the model can invoke.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema *JSONSchema `json:"input_schema,omitempty"`
}

// ToolCall is a single tool invocation requested by the model.
//
// ID is opaque and provider-assigned; it is the pairing key between the
// assistant message that requested the call and the tool message that
// carries its result.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input,omitempty"`
}

// JSONSchema is the subset of JSON Schema used for tool input declarations.
type JSONSchema struct {
	Type        string                 `json:"type,omitempty"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Format      string                 `json:"format,omitempty"`
}

// ObjectSchema builds an object schema from property definitions.
func ObjectSchema(props map[string]*JSONSchema, required ...string) *JSONSchema {
	return &JSONSchema{Type: "object", Properties: props, Required: required}
}

// StringSchema builds a string property schema.
func StringSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

// EnumSchema builds a string property schema restricted to values.
func EnumSchema(description string, values ...string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description, Enum: values}
}

// BoolSchema builds a boolean property schema.
func BoolSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "boolean", Description: description}
}
