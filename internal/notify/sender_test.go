package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSender_Send_Success(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL+"/", "key-1", "noreply@agentdesk.test", 5*time.Second)
	err := s.Send(context.Background(), Message{To: []string{"a@x.com"}, Subject: "hi", Text: "body"})
	require.NoError(t, err)

	assert.Equal(t, "noreply@agentdesk.test", got.From)
	assert.Equal(t, []string{"a@x.com"}, got.To)
	assert.Equal(t, "hi", got.Subject)
	assert.Equal(t, "body", got.Text)
}

func TestHTTPSender_Send_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"domain not verified"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "key-1", "noreply@agentdesk.test", 5*time.Second)
	err := s.Send(context.Background(), Message{To: []string{"a@x.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "domain not verified")
}

func TestHTTPSender_Send_NotConfigured(t *testing.T) {
	s := NewHTTPSender("", "", "", time.Second)
	err := s.Send(context.Background(), Message{To: []string{"a@x.com"}})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestLogSender_Send(t *testing.T) {
	s := NewLogSender(zerolog.Nop())
	assert.NoError(t, s.Send(context.Background(), Message{To: []string{"a@x.com"}, Subject: "hi"}))
}

func TestRenderWelcome(t *testing.T) {
	subject, body, err := RenderWelcome(Welcome{
		FullName: "Jane Doe",
		Email:    "jane@x.com",
		Password: "s3cret!",
		LoginURL: "https://agents.example.com/login",
	})
	require.NoError(t, err)
	assert.Equal(t, WelcomeSubject, subject)
	assert.Contains(t, body, "Hello Jane Doe,")
	assert.Contains(t, body, "jane@x.com")
	assert.Contains(t, body, "s3cret!")
	assert.Contains(t, body, "Sign in at https://agents.example.com/login")
}

func TestRenderWelcome_NoLoginURL(t *testing.T) {
	_, body, err := RenderWelcome(Welcome{FullName: "Jane", Email: "jane@x.com", Password: "p"})
	require.NoError(t, err)
	assert.NotContains(t, body, "Sign in at")
	assert.Contains(t, body, "change your password")
}

func TestRenderWelcome_EmptyRecipient(t *testing.T) {
	_, _, err := RenderWelcome(Welcome{FullName: "Jane"})
	assert.Error(t, err)
}
