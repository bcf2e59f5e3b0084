package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://github.com/nibzard/taskboard/task.schema.json"

// Schema is the JSON Schema for one serialized task.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Task",
  "type": "object",
  "required": ["id", "title", "status", "priority", "createdAt", "updatedAt"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string", "pattern": "\\S"},
    "description": {"type": ["string", "null"]},
    "status": {"enum": ["todo", "in-progress", "done"]},
    "priority": {"enum": ["low", "medium", "high"]},
    "createdAt": {"type": "string", "format": "date-time"},
    "updatedAt": {"type": "string", "format": "date-time"},
    "dueDate": {"type": ["string", "null"], "format": "date-time"},
    "tags": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(Schema)); err != nil {
			schemaErr = fmt.Errorf("add task schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile task schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateJSON validates one serialized task against Schema.
// The returned error joins every leaf violation as a ValidationError.
func ValidateJSON(raw []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return &ValidationError{Err: fmt.Errorf("parse task: %w", err)}
	}

	if err := schema.Validate(doc); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return err
		}
		var errs []error
		collectSchemaErrors(&errs, ve)
		if len(errs) == 1 {
			return errs[0]
		}
		return SchemaErrors(errs)
	}
	return nil
}

func collectSchemaErrors(errs *[]error, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Field: jsonPointerToField(err.InstanceLocation),
			Err:   fmt.Errorf("%s", err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(errs, cause)
	}
}

func jsonPointerToField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	ptr = strings.ReplaceAll(ptr, "~1", "/")
	ptr = strings.ReplaceAll(ptr, "~0", "~")
	return strings.ReplaceAll(ptr, "/", ".")
}

// SchemaErrors is a list of schema violations.
type SchemaErrors []error

func (s SchemaErrors) Error() string {
	parts := make([]string, len(s))
	for i, err := range s {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the individual violations to errors.Is and errors.As.
func (s SchemaErrors) Unwrap() []error {
	return s
}
