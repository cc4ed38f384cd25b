package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["slug", "online"],
	"properties": {
		"slug": {"type": "string", "pattern": "^[a-z0-9-]+$"},
		"online": {"type": "boolean"},
		"related": {"type": "array", "items": {"type": "string"}},
		"agency": {
			"type": "object",
			"required": ["name"],
			"properties": {"name": {"type": "string", "minLength": 1}}
		}
	}
}`

func TestValidateJSONString_Valid(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"slug": "ca-dmv-title-transfer", "online": true}`)
	assert.NoError(t, err)
}

func TestValidateJSONString_MissingField(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"slug": "ca-dmv-title-transfer"}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidateJSONString_WrongType(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"slug": "a", "online": "Yes"}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Equal(t, "online", validationErr.Errors[0].Field)
}

func TestValidateJSONString_NestedAndArrayFields(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"slug": "a", "online": true, "related": ["b", 3], "agency": {"name": ""}}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	fields := make([]string, 0, len(validationErr.Errors))
	for _, e := range validationErr.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "related.1")
	assert.Contains(t, fields, "agency.name")
}

func TestValidateJSONString_MalformedSchema(t *testing.T) {
	err := ValidateJSONString(`{ not a schema`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateJSONBytes(t *testing.T) {
	assert.NoError(t, ValidateJSONBytes(testSchema, []byte(`{"slug": "a", "online": false}`)))
	assert.Error(t, ValidateJSONBytes(testSchema, []byte(`{"slug": "Not A Slug", "online": false}`)))
}

func TestValidateJSONFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"slug": "a", "online": true}`), 0644))

	assert.NoError(t, ValidateJSONFile(testSchema, good))

	err := ValidateJSONFile(testSchema, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "slug", Message: "is required"},
			{Field: "online", Message: "invalid type"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "1. slug: is required")
	assert.Contains(t, msg, "2. online: invalid type")
}
