package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDisabledWithoutURL(t *testing.T) {
	assert.Nil(t, NewClient(&config.Config{}, logger.Nop()))
}

func TestSendPostsNormalizedNumber(t *testing.T) {
	var got webhookRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(&config.Config{
		SMSWebhookURL:    srv.URL,
		SMSWebhookToken:  "secret",
		SMSDefaultRegion: "US",
	}, logger.Nop())
	require.NotNil(t, client)

	err := client.Send(context.Background(), "(650) 253-0000", "New job")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got.To)
	assert.Equal(t, "New job", got.Message)
	assert.Equal(t, "Bearer secret", auth)
}

func TestSendClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad number", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(&config.Config{SMSWebhookURL: srv.URL}, logger.Nop())
	err := client.Send(context.Background(), "+16502530000", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendRejectsInvalidNumber(t *testing.T) {
	client := NewClient(&config.Config{SMSWebhookURL: "http://127.0.0.1:1"}, logger.Nop())
	err := client.Send(context.Background(), "not a number", "hi")
	require.Error(t, err)
}
