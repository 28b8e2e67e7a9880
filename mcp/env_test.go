package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/opsmesh/logging"
)

func TestExpandEnv_Resolved(t *testing.T) {
	t.Setenv("OPSMESH_TEST_TOKEN", "secret-value")

	out := ExpandEnv(map[string]string{
		"TOKEN": "${OPSMESH_TEST_TOKEN}",
		"PLAIN": "literal",
	}, logging.NoOpLogger{})

	assert.Equal(t, "secret-value", out["TOKEN"])
	assert.Equal(t, "literal", out["PLAIN"])
}

func TestExpandEnv_UnresolvedKeepsPlaceholder(t *testing.T) {
	out := ExpandEnv(map[string]string{
		"TOKEN": "${OPSMESH_TEST_DOES_NOT_EXIST}",
	}, logging.NoOpLogger{})

	assert.Equal(t, "${OPSMESH_TEST_DOES_NOT_EXIST}", out["TOKEN"])
}

func TestExpandEnv_Empty(t *testing.T) {
	assert.Nil(t, ExpandEnv(nil, logging.NoOpLogger{}))
	assert.Nil(t, ExpandEnv(map[string]string{}, logging.NoOpLogger{}))
}
