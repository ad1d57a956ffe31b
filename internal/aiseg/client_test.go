package aiseg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aisegerrors "github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/errors"
)

func TestFetch_DigestChallengeThenSuccess(t *testing.T) {
	var authorized bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.Header().Set("WWW-Authenticate", `Digest realm="aiseg", nonce="abc123", qop="auth"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		authorized = true
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "user", "pass", time.Second)
	body, err := c.Fetch(context.Background(), "power", "test", "/page")

	require.NoError(t, err)
	assert.True(t, authorized)
	assert.Contains(t, string(body), "ok")
}

func TestFetch_NonAuthFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "user", "pass", time.Second)
	_, err := c.Fetch(context.Background(), "power", "test", "/page")

	require.Error(t, err)
	assert.True(t, aisegerrors.IsKind(err, aisegerrors.KindFetch))
}

func TestFetch_PersistentUnauthorizedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Digest realm="aiseg", nonce="abc123", qop="auth"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "user", "wrongpass", time.Second)
	_, err := c.Fetch(context.Background(), "power", "test", "/page")

	require.Error(t, err)
	assert.True(t, aisegerrors.IsKind(err, aisegerrors.KindAuth))
}

func TestFetch_TimeoutClassifiedDistinctly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "user", "pass", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, "power", "test", "/page")

	require.Error(t, err)
	assert.True(t, aisegerrors.IsKind(err, aisegerrors.KindTimeout))
}
