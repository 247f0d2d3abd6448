package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["plans"],
	"properties": {
		"plans": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "duration_days"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"duration_days": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o644))
	return path
}

func TestSchemaValidator_ValidateBytes(t *testing.T) {
	schemaPath := writeSchema(t)
	v := NewSchemaValidator()

	tests := []struct {
		name       string
		data       string
		violations int
	}{
		{"valid", `{"plans":[{"name":"Basic","duration_days":30}]}`, 0},
		{"empty list", `{"plans":[]}`, 0},
		{"missing plans", `{}`, 1},
		{"bad entry", `{"plans":[{"name":"","duration_days":0}]}`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBytes([]byte(tt.data), schemaPath)
			if tt.violations == 0 {
				assert.NoError(t, err)
				return
			}
			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Len(t, se.Violations, tt.violations)
			assert.Equal(t, "plans.schema.json", se.Schema)
		})
	}
}

func TestSchemaValidator_ValidateFile(t *testing.T) {
	schemaPath := writeSchema(t)
	dataPath := filepath.Join(t.TempDir(), "plans.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`{"plans":[{"name":"Pro","duration_days":90}]}`), 0o644))

	v := NewSchemaValidator()
	assert.NoError(t, v.ValidateFile(dataPath, schemaPath))
	assert.Error(t, v.ValidateFile(filepath.Join(t.TempDir(), "missing.json"), schemaPath))
}

func TestSchemaValidator_BadInputs(t *testing.T) {
	v := NewSchemaValidator()

	err := v.ValidateBytes([]byte(`{}`), "no/such/schema.json")
	assert.ErrorContains(t, err, "schema file not found")

	err = v.ValidateBytes([]byte(`{not json`), writeSchema(t))
	assert.ErrorContains(t, err, "failed to parse JSON document")

	broken := filepath.Join(t.TempDir(), "broken.schema.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"type": 12}`), 0o644))
	assert.Error(t, v.ValidateBytes([]byte(`{}`), broken))
}

func TestResolveSchemaPath_RepoRelative(t *testing.T) {
	path, err := resolveSchemaPath("configs/schemas/plans.schema.json")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
}
