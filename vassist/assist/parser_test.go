package assist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  \n{\"a\":1}\n  ", `{"a":1}`},
		{"fence with trailing text", "```json\n[1,2]\n```", `[1,2]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanJSON(tc.in))
		})
	}
}

func TestValidateJSON(t *testing.T) {
	schema := []byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"count": {"type": "integer"}
		},
		"required": ["name"]
	}`)

	assert.NoError(t, ValidateJSON(json.RawMessage(`{"name":"ok","count":3}`), schema))
	assert.NoError(t, ValidateJSON(json.RawMessage(`{"name":"ok"}`), schema))

	err := ValidateJSON(json.RawMessage(`{"count":3}`), schema)
	assert.Error(t, err, "missing required field")

	err = ValidateJSON(json.RawMessage(`{"name":42}`), schema)
	assert.Error(t, err, "wrong type")

	err = ValidateJSON(json.RawMessage(`{"name":`), schema)
	assert.Error(t, err, "malformed document")
}

func TestValidateJSONEmptySchema(t *testing.T) {
	assert.NoError(t, ValidateJSON(json.RawMessage(`[1,2,3]`), nil))
	assert.Error(t, ValidateJSON(json.RawMessage(`not json`), nil))
}
