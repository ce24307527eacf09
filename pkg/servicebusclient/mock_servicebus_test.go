package servicebusclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockServiceBusClient_Send(t *testing.T) {
	client := NewMockServiceBusClient()
	ctx := context.Background()

	id, err := client.Send(ctx, "exports", []byte(`{"records":2}`),
		WithContentType("application/json"),
		WithProperties(map[string]interface{}{"records": 2}),
	)
	require.NoError(t, err)
	assert.Equal(t, "mock-msg-1", id)

	id, err = client.Send(ctx, "exports", []byte("{}"), WithMessageID("custom"))
	require.NoError(t, err)
	assert.Equal(t, "custom", id)

	messages := client.Messages("exports")
	require.Len(t, messages, 2)
	assert.Equal(t, "application/json", messages[0].ContentType)
	assert.Equal(t, 2, messages[0].Properties["records"])
	assert.Empty(t, client.Messages("other"))
}

func TestMockServiceBusClient_FailWith(t *testing.T) {
	client := NewMockServiceBusClient()
	client.FailWith(errors.New("namespace unreachable"))

	_, err := client.Send(context.Background(), "exports", nil)
	assert.EqualError(t, err, "namespace unreachable")
	assert.Empty(t, client.Messages("exports"))
}
