package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersvc/pkg/apperr"
	"ordersvc/pkg/logger"
)

func TestSend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(logger.New(io.Discard, logger.LevelInfo, "test", nil), srv.URL+"/", time.Second, nil)
	msg := Message{Subject: "New order", Body: "Order o-1", RecipientAddress: "manager@example.com"}

	require.NoError(t, c.Send(context.Background(), msg))
	assert.Equal(t, msg, got)
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(logger.New(io.Discard, logger.LevelInfo, "test", nil), srv.URL, time.Second, nil)
	err := c.Send(context.Background(), Message{Subject: "s", Body: "b", RecipientAddress: "a@example.com"})
	require.ErrorIs(t, err, apperr.ErrNotification)
}

func TestSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(logger.New(io.Discard, logger.LevelInfo, "test", nil), url, time.Second, nil)
	err := c.Send(context.Background(), Message{Subject: "s", Body: "b", RecipientAddress: "a@example.com"})
	require.ErrorIs(t, err, apperr.ErrNotification)
}
