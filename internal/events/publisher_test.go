package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/observability"
)

func newTestPublisher(t *testing.T) (*StreamPublisher, *redis.Client, *observability.Metrics) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	metrics := observability.NewMetrics()
	return NewStreamPublisher(client, zap.NewNop(), metrics), client, metrics
}

func TestPublishAppendsToTopicStream(t *testing.T) {
	publisher, client, metrics := newTestPublisher(t)

	token := "tok-123"
	publisher.Publish(context.Background(), TopicEmailEvents, EmailEvent{
		Email:       "a@x.com",
		Token:       &token,
		RequestType: RequestNotExistingUser,
	})
	publisher.Close()

	messages, err := client.XRange(context.Background(), TopicEmailEvents, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)

	var event EmailEvent
	require.NoError(t, json.Unmarshal([]byte(messages[0].Values["data"].(string)), &event))
	assert.Equal(t, "a@x.com", event.Email)
	assert.Equal(t, RequestNotExistingUser, event.RequestType)
	require.NotNil(t, event.Token)
	assert.Equal(t, "tok-123", *event.Token)
	assert.Zero(t, metrics.PublishFailures(TopicEmailEvents))
}

func TestPublishPreservesEnqueueOrder(t *testing.T) {
	publisher, client, _ := newTestPublisher(t)

	// Back-to-back transitions for the same identity, no synchronization
	// between them. The dispatcher must deliver them in enqueue order.
	const pairs = 500
	for i := 0; i < pairs; i++ {
		publisher.Publish(context.Background(), TopicUserSendingEvents,
			IdentitySnapshot{UserID: fmt.Sprintf("u%d", i), Email: "pending@x.com"})
		publisher.Publish(context.Background(), TopicUserSendingEvents,
			IdentitySnapshot{UserID: fmt.Sprintf("u%d", i), Email: "active@x.com"})
	}
	publisher.Close()

	messages, err := client.XRange(context.Background(), TopicUserSendingEvents, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 2*pairs)

	for i := 0; i < pairs; i++ {
		var first, second IdentitySnapshot
		require.NoError(t, json.Unmarshal([]byte(messages[2*i].Values["data"].(string)), &first))
		require.NoError(t, json.Unmarshal([]byte(messages[2*i+1].Values["data"].(string)), &second))
		assert.Equal(t, fmt.Sprintf("u%d", i), first.UserID)
		assert.Equal(t, "pending@x.com", first.Email)
		assert.Equal(t, fmt.Sprintf("u%d", i), second.UserID)
		assert.Equal(t, "active@x.com", second.Email)
	}
}

func TestPublishFailureIsRecordedNotReturned(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	metrics := observability.NewMetrics()
	publisher := NewStreamPublisher(client, zap.NewNop(), metrics)

	// Take the server down so the XADD fails after the caller has moved on.
	mr.Close()

	publisher.Publish(context.Background(), TopicEmailEvents, EmailEvent{
		Email:       "a@x.com",
		RequestType: RequestResetPassword,
	})
	publisher.Close()

	assert.Equal(t, int64(1), metrics.PublishFailures(TopicEmailEvents))
}
