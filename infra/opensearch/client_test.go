package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mstgnz/thaipay/infra/config"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	mu       sync.Mutex
	requests []string
	bodies   []map[string]any
	server   *httptest.Server
}

func newFakeCluster(t *testing.T) *fakeCluster {
	f := &fakeCluster{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			var doc map[string]any
			_ = json.Unmarshal(b, &doc)
			f.bodies = append(f.bodies, doc)
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/_doc"):
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
		default:
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(t *testing.T, url string, enabled bool) *Client {
	c, err := NewClient(&config.AppConfig{OpenSearchURL: url, EnableLogging: enabled, Environment: config.EnvDevelopment})
	require.NoError(t, err)
	return c
}

func TestClient_Index(t *testing.T) {
	cluster := newFakeCluster(t)
	c := newTestClient(t, cluster.server.URL, true)

	require.NoError(t, c.Index(context.Background(), "thaipay-test", map[string]string{"hello": "world"}))

	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	assert.Equal(t, []string{"POST /thaipay-test/_doc"}, cluster.requests)
	assert.Equal(t, "world", cluster.bodies[0]["hello"])
}

func TestClient_Disabled(t *testing.T) {
	cluster := newFakeCluster(t)
	c := newTestClient(t, cluster.server.URL, false)

	assert.False(t, c.IsEnabled())
	require.NoError(t, c.Index(context.Background(), "ignored", map[string]string{}))
	require.NoError(t, c.Setup(context.Background()))
	assert.Empty(t, cluster.requests)
}

func TestClient_SetupCreatesAuditIndex(t *testing.T) {
	cluster := newFakeCluster(t)
	c := newTestClient(t, cluster.server.URL, true)

	require.NoError(t, c.Setup(context.Background()))

	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	name := AuditIndexName(time.Now())
	assert.Equal(t, []string{"HEAD /" + name, "PUT /" + name}, cluster.requests)
}

func TestAuditLogger_Record(t *testing.T) {
	cluster := newFakeCluster(t)
	audit := NewAuditLogger(newTestClient(t, cluster.server.URL, true))

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	err := audit.Record(context.Background(), payment.AuditEvent{
		Action:        payment.AuditCallbackApplied,
		MerchantID:    "M1",
		Provider:      model.ProviderKBank,
		TransactionID: "TXN-1",
		FromStatus:    model.StatusPending,
		ToStatus:      model.StatusCompleted,
		Amount:        decimal.NewFromInt(100),
		At:            at,
	})
	require.NoError(t, err)

	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	assert.Equal(t, []string{"POST /thaipay-audit-2026.03/_doc"}, cluster.requests)
	doc := cluster.bodies[0]
	assert.Equal(t, "payment.callback_applied", doc["action"])
	assert.Equal(t, "completed", doc["to_status"])
	assert.Equal(t, "100.00", doc["amount"])
	assert.Equal(t, "2026-03-04T05:06:07.000Z", doc["timestamp"])
}
