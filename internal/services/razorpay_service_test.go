package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignPayloadMatchesKnownVector(t *testing.T) {
	// HMAC-SHA256("key", "order_abc|pay_xyz")
	got := signPayload("key", []byte("order_abc|pay_xyz"))
	assert.Len(t, got, 64)
	assert.Equal(t, got, signPayload("key", []byte("order_abc|pay_xyz")))
	assert.NotEqual(t, got, signPayload("other-key", []byte("order_abc|pay_xyz")))
	assert.NotEqual(t, got, signPayload("key", []byte("order_abc|pay_other")))
}

func TestWebhookEntityUnwrapsNestedPayload(t *testing.T) {
	payload := map[string]interface{}{
		"payment": map[string]interface{}{
			"entity": map[string]interface{}{
				"id":       "pay_123",
				"order_id": "order_456",
			},
		},
	}
	entity := webhookEntity(payload)
	assert.Equal(t, "pay_123", entity["id"])
	assert.Equal(t, "order_456", entity["order_id"])
}

func TestWebhookEntityToleratesFlatPayload(t *testing.T) {
	payload := map[string]interface{}{
		"id":       "pay_789",
		"order_id": "order_000",
	}
	entity := webhookEntity(payload)
	assert.Equal(t, "pay_789", entity["id"])
}
