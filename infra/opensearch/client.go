package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mstgnz/thaipay/infra/config"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

const indexPrefix = "thaipay"

// Client wraps the OpenSearch client
type Client struct {
	client  *opensearch.Client
	enabled bool
}

// NewClient creates a new OpenSearch client
func NewClient(cfg *config.AppConfig) (*Client, error) {
	opensearchConfig := opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !cfg.IsProduction(),
			},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		opensearchConfig.Username = cfg.OpenSearchUser
		opensearchConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, err
	}

	return &Client{client: client, enabled: cfg.EnableLogging}, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// IsEnabled returns whether OpenSearch logging is enabled
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// Setup creates the audit index template when it is missing.
func (c *Client) Setup(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	name := AuditIndexName(time.Now())

	exists := opensearchapi.IndicesExistsRequest{Index: []string{name}}
	res, err := exists.Do(ctx, c.client)
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	create := opensearchapi.IndicesCreateRequest{
		Index: name,
		Body:  strings.NewReader(auditMapping),
	}
	res, err = create.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}
	return nil
}

// Index stores doc in index. It is a no-op while logging is disabled.
func (c *Client) Index(ctx context.Context, index string, doc any) error {
	if !c.enabled {
		return nil
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: index,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}
	return nil
}

// AuditIndexName returns the monthly audit index for t.
func AuditIndexName(t time.Time) string {
	return fmt.Sprintf("%s-audit-%s", indexPrefix, t.UTC().Format("2006.01"))
}

const auditMapping = `{
	"mappings": {
		"properties": {
			"timestamp": {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
			"action": {"type": "keyword"},
			"merchant_id": {"type": "keyword"},
			"provider": {"type": "keyword"},
			"transaction_id": {"type": "keyword"},
			"payment_method_id": {"type": "keyword"},
			"from_status": {"type": "keyword"},
			"to_status": {"type": "keyword"},
			"amount": {"type": "keyword"},
			"message": {"type": "text"},
			"fields": {"type": "object", "enabled": false}
		}
	},
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	}
}`
