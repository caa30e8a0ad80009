package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "actor-1", "secret-token", srv.Client(), zap.NewNop())
	return client, srv
}

func TestGetMachinesShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare list", `[{"MachineID":"1"},{"MachineID":"2"}]`, 2},
		{"machines field", `{"machines":[{"MachineID":"1"}]}`, 1},
		{"data field", `{"data":[{"MachineID":"1"}]}`, 1},
		{"unknown shape", `{"weird":true}`, 0},
		{"scalar", `42`, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/machines", r.URL.Path)
				assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				w.Write([]byte(tc.body))
			})
			machines, err := client.GetMachines(context.Background())
			require.NoError(t, err)
			assert.Len(t, machines, tc.want)
		})
	}
}

func TestGetLastSalesShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare list", `[{"TransactionID":"t1"}]`, 1},
		{"transactions field", `{"transactions":[{"TransactionID":"t1"},{"TransactionID":"t2"}]}`, 2},
		{"sales field", `{"sales":[{"TransactionID":"t1"}]}`, 1},
		{"data field", `{"data":[{"TransactionID":"t1"}]}`, 1},
		{"unknown shape", `{"count":3}`, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/operational/v1/machines/m-9/lastSales", r.URL.Path)
				w.Write([]byte(tc.body))
			})
			sales, err := client.GetLastSales(context.Background(), "m-9")
			require.NoError(t, err)
			assert.Len(t, sales, tc.want)
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("401 auth", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := client.GetMachines(context.Background())
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, 401, authErr.Status)
	})

	t.Run("403 auth", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		_, err := client.GetMachines(context.Background())
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("429 rate limit", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := client.GetMachines(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 429, apiErr.Status)
		assert.Equal(t, "rate limit exceeded", apiErr.Error())
	})

	t.Run("500 with body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("upstream exploded"))
		})
		_, err := client.GetMachines(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 500, apiErr.Status)
		assert.Contains(t, apiErr.Body, "upstream exploded")
	})

	t.Run("transport failure", func(t *testing.T) {
		client, srv := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
		srv.Close()
		_, err := client.GetMachines(context.Background())
		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
	})
}

func TestValidateConnection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	})
	ok, err := client.ValidateConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	failing, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	ok, err = failing.ValidateConnection(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
}
