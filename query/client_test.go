package query

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New("https://node.test.invalid", time.Second)
	require.NoError(t, err)

	for _, bad := range []string{"", "node.test.invalid", "https://"} {
		_, err := New(bad, time.Second)
		require.Error(t, err, bad)
	}
}

func TestPools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pools", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"0.0.777","baseToken":"HBAR","swapToken":"HSUITE","price":0.0042},
			{"id":"0.0.778","baseToken":"HBAR","swapToken":"USDC","price":0.071}
		]`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)

	pools, err := c.Pools(context.Background())
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, "0.0.777", pools[0].ID)
	assert.Equal(t, "HSUITE", pools[0].SwapToken)
	assert.InDelta(t, 0.0042, pools[0].Price, 1e-9)
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/status", r.URL.Path)
		w.Write([]byte(`{"operator":"0.0.467726","network":"testnet","version":"2.1.0"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.0.467726", status.Operator)
	assert.Equal(t, "testnet", status.Network)
	assert.Equal(t, "2.1.0", status.Version)
}

func TestNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Pools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestUndecodableBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Pools(context.Background())
	require.Error(t, err)
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c, err := New(srv.URL, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = c.Status(ctx)
	require.Error(t, err)
}
