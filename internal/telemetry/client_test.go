package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/insights-digest/internal/infra"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(infra.TelemetryConfig{
		BaseURL:  baseURL,
		AppID:    "test-app",
		APIKey:   "secret-key",
		Timespan: "P1W",
		Timeout:  5 * time.Second,
	}, zap.NewNop())
}

const okBody = `{"tables":[{"rows":[[1234,12,"45.67",200,3,"12.34",5678,9,"99.99","120.5"]]}]}`

func TestFetchRequestShape(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	row, err := c.Fetch(context.Background(), "requests | count")
	require.NoError(t, err)
	require.Len(t, row, 10)

	assert.Equal(t, "/v1/apps/test-app/query", gotReq.URL.Path)
	q := gotReq.URL.Query()
	assert.Equal(t, "P1W", q.Get("timespan"))
	assert.Equal(t, "requests | count", q.Get("query"))

	assert.Equal(t, "secret-key", gotReq.Header.Get("x-api-key"))
	assert.Equal(t, "insights-digest", gotReq.Header.Get("x-ms-client-name"))

	// Корреляционный идентификатор: валидный UUID, продублирован в URL
	reqID := gotReq.Header.Get("x-ms-client-request-id")
	_, err = uuid.Parse(reqID)
	require.NoError(t, err, "request id must be a uuid, got %q", reqID)
	assert.Equal(t, reqID, q.Get("clientId"))
}

func TestFetchFreshCorrelationIDPerCall(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("x-ms-client-request-id"))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Fetch(context.Background(), "q")
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	row, err := c.Fetch(context.Background(), "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.Nil(t, row)
}

func TestFetchNetworkFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // закрыли заранее — соединение откажет

	c := newTestClient(t, srv.URL)
	_, err := c.Fetch(context.Background(), "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
}

func TestFetchEmptyTables(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no_tables", `{"tables":[]}`},
		{"no_rows", `{"tables":[{"rows":[]}]}`},
		{"empty_object", `{}`},
		{"not_json", `oops`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			row, err := c.Fetch(context.Background(), "q")

			// Пустой или кривой ответ — частичные данные, не ошибка
			require.NoError(t, err)
			assert.Empty(t, row)
		})
	}
}

func TestFetchShortRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tables":[{"rows":[[1234,12]]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	row, err := c.Fetch(context.Background(), "q")

	require.NoError(t, err)
	assert.Len(t, row, 2)
}
