package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommandWritesValidJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "config.schema.json")
	schemaOutput = out
	t.Cleanup(func() { schemaOutput = "" })

	var buf bytes.Buffer
	schemaCmd.SetOut(&buf)

	require.NoError(t, runSchema(schemaCmd, nil))
	assert.Contains(t, buf.String(), out)

	content, err := os.ReadFile(out)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(content, &schema))
	assert.Equal(t, "DittoStore Configuration", schema["title"])
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", schema["$schema"])
	assert.NotEmpty(t, schema["properties"], "config sections must be reflected")
}

func TestSchemaCommandPrintsToStdout(t *testing.T) {
	schemaOutput = ""

	var buf bytes.Buffer
	schemaCmd.SetOut(&buf)

	require.NoError(t, runSchema(schemaCmd, nil))

	var schema map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
	assert.Equal(t, "DittoStore Configuration", schema["title"])
}
