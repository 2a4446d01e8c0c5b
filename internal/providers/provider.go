package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

// Provider answers one availability search with its raw payload. The
// payload is opaque here; the normalizer reads it.
type Provider interface {
	Search(ctx context.Context, req *models.SearchRequest) ([]byte, error)
	Name() string
}

// HTTPProvider posts the search request as JSON to an inventory endpoint.
type HTTPProvider struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPProvider(name, url string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{name: name, url: url, client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Search(ctx context.Context, req *models.SearchRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hr.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider %s returned %d", p.name, resp.StatusCode)
	}
	return raw, nil
}
