package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRelayClient_PostsJSON(t *testing.T) {
	var got AlertRequest
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"delivered":1}`))
	}))
	defer server.Close()

	client := NewRelayClient(server.URL, 2*time.Second)
	resp, err := client.Send(context.Background(), AlertRequest{Abnormality: "yes", Tokens: []string{"tok-A"}})
	require.NoError(t, err)

	require.Contains(t, contentType, "application/json")
	require.Equal(t, AlertRequest{Abnormality: "yes", Tokens: []string{"tok-A"}}, got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"delivered":1}`, string(resp.Body))
}

func TestRelayClient_ErrorStatusIsFailureAndNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewRelayClient(server.URL, 2*time.Second)
	_, err := client.Send(context.Background(), AlertRequest{Abnormality: "yes", Tokens: []string{"tok-A"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRelayClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewRelayClient(url, time.Second)
	_, err := client.Send(context.Background(), AlertRequest{Abnormality: "yes", Tokens: []string{"tok-A"}})
	require.Error(t, err)
}
