package tools

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/toolbridge/pkg/domain"
)

func TestSuccessEnvelopeShape(t *testing.T) {
	env := SuccessEnvelope(map[string]interface{}{"rows": 3})
	assert.True(t, env.Success)
	assert.Empty(t, env.Error)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Contains(t, decoded, "payload")
	assert.Contains(t, decoded, "timestamp")
	assert.NotContains(t, decoded, "error")

	_, err = time.Parse(time.RFC3339, decoded["timestamp"].(string))
	assert.NoError(t, err)
}

func TestFailureEnvelopeShape(t *testing.T) {
	env := FailureEnvelope("execute_query", errors.New("something broke"))
	assert.False(t, env.Success)
	assert.Equal(t, "execute_query", env.Tool)
	assert.Equal(t, "something broke", env.Error)
	assert.Empty(t, env.OperationID)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "payload")
}

func TestFailureEnvelopeSurfacesOperationID(t *testing.T) {
	remote := &domain.RemoteError{OperationID: "q-7", Message: "operation FAILED: nope"}
	env := FailureEnvelope("execute_query", remote)
	assert.Equal(t, "q-7", env.OperationID)

	timeout := &domain.TimeoutError{OperationID: "q-8", Deadline: "5m0s"}
	env = FailureEnvelope("execute_query", timeout)
	assert.Equal(t, "q-8", env.OperationID)

	// Wrapped errors still surface the id.
	env = FailureEnvelope("execute_query", errors.Join(errors.New("outer"), remote))
	assert.Equal(t, "q-7", env.OperationID)
}
