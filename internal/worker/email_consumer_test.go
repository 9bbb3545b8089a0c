package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/events"
)

func TestEmailConsumerHandlesActivationEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	token := "tok-abc"
	body, err := json.Marshal(events.EmailEvent{
		Email:       "a@x.com",
		Token:       &token,
		RequestType: events.RequestNotExistingUser,
	})
	require.NoError(t, err)

	_, err = client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: events.TopicEmailEvents,
		Values: map[string]any{"data": body},
	}).Result()
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	cfg := config.NotificationConfig{
		EmailFrom:     "noreply@example.com",
		ActivationURL: "http://localhost:8080/auth/activate-account",
	}
	consumer := NewEmailConsumer(client, zap.New(core), cfg, "0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("email sent").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	entry := logs.FilterMessage("email sent").All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "a@x.com", fields["to"])
	assert.Equal(t, "Activate your account", fields["subject"])
	assert.Equal(t, "http://localhost:8080/auth/activate-account?token=tok-abc", fields["link"])
}

func TestEmailConsumerResetEventLinksToResetURL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	token := "tok-reset"
	body, err := json.Marshal(events.EmailEvent{
		Email:       "a@x.com",
		Token:       &token,
		RequestType: events.RequestResetPassword,
	})
	require.NoError(t, err)

	_, err = client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: events.TopicEmailEvents,
		Values: map[string]any{"data": body},
	}).Result()
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	cfg := config.NotificationConfig{
		EmailFrom:     "noreply@example.com",
		ActivationURL: "http://localhost:8080/auth/activate-account",
		ResetURL:      "http://localhost:8080/auth/password/change-password",
	}
	consumer := NewEmailConsumer(client, zap.New(core), cfg, "0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("email sent").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	entry := logs.FilterMessage("email sent").All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "Reset your password", fields["subject"])
	assert.Equal(t, "http://localhost:8080/auth/password/change-password?token=tok-reset", fields["link"])
}

func TestEmailConsumerSkipsMalformedMessages(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: events.TopicEmailEvents,
		Values: map[string]any{"data": "not json"},
	}).Result()
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	consumer := NewEmailConsumer(client, zap.New(core), config.NotificationConfig{}, "0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("failed to decode email event").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	assert.Zero(t, logs.FilterMessage("email sent").Len())
}
