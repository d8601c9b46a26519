package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"
)

func TestSchemaFromJSON(t *testing.T) {
	raw := []byte(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "what to search"},
			"limit": {"type": "integer"},
			"tags": {"type": "array", "items": {"type": "string"}},
			"mode": {"type": "string", "enum": ["fast", "deep"]}
		},
		"required": ["query"]
	}`)

	schema, err := SchemaFromJSON(raw)
	require.NoError(t, err)
	require.NotNil(t, schema)

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"query"}, schema.Required)

	query := schema.Properties["query"]
	require.NotNil(t, query)
	assert.Equal(t, genai.TypeString, query.Type)
	assert.Equal(t, "what to search", query.Description)

	assert.Equal(t, genai.TypeInteger, schema.Properties["limit"].Type)

	tags := schema.Properties["tags"]
	require.NotNil(t, tags)
	assert.Equal(t, genai.TypeArray, tags.Type)
	require.NotNil(t, tags.Items)
	assert.Equal(t, genai.TypeString, tags.Items.Type)

	assert.Equal(t, []string{"fast", "deep"}, schema.Properties["mode"].Enum)
}

func TestSchemaFromJSONNested(t *testing.T) {
	raw := []byte(`{
		"type": "array",
		"items": {
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"score": {"type": "number"},
				"active": {"type": "boolean"}
			},
			"required": ["name"]
		}
	}`)

	schema, err := SchemaFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, genai.TypeArray, schema.Type)
	require.NotNil(t, schema.Items)
	assert.Equal(t, genai.TypeNumber, schema.Items.Properties["score"].Type)
	assert.Equal(t, genai.TypeBoolean, schema.Items.Properties["active"].Type)
}

func TestSchemaFromJSONEmpty(t *testing.T) {
	schema, err := SchemaFromJSON(nil)
	assert.NoError(t, err)
	assert.Nil(t, schema)
}

func TestSchemaFromJSONUnsupportedType(t *testing.T) {
	_, err := SchemaFromJSON([]byte(`{"type": "tuple"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tuple")
}

func TestSchemaFromJSONMalformed(t *testing.T) {
	_, err := SchemaFromJSON([]byte(`{"type":`))
	assert.Error(t, err)
}
