package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a JSON schema expressed as a generic map
func CompileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// MustCompileSchema is like CompileSchema but panics on error.
// Intended for package-level schemas known at compile time.
func MustCompileSchema(name string, schemaMap map[string]any) *jsonschema.Schema {
	schema, err := CompileSchema(name, schemaMap)
	if err != nil {
		panic(fmt.Sprintf("llm: schema %s: %v", name, err))
	}
	return schema
}

// ValidateJSON validates data against a compiled schema
func ValidateJSON(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: unmarshal data: %v", domain.ErrInvalidLLMResponse, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: json does not match schema: %v", domain.ErrInvalidLLMResponse, err)
	}
	return nil
}

// ExtractJSONObject returns the JSON object embedded in a model answer.
// Models sometimes wrap the object in markdown fences or add a sentence around it.
func ExtractJSONObject(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in answer", domain.ErrInvalidLLMResponse)
	}

	candidate := []byte(s[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("%w: malformed JSON object", domain.ErrInvalidLLMResponse)
	}
	return candidate, nil
}

// DecodeValidated extracts the JSON object from raw, validates it and decodes it into out
func DecodeValidated(raw string, schema *jsonschema.Schema, out any) error {
	payload, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}
	if err := ValidateJSON(schema, payload); err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode: %v", domain.ErrInvalidLLMResponse, err)
	}
	return nil
}
