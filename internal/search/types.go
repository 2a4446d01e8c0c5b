package search

// ProviderPayload is one provider's raw answer to a search.
type ProviderPayload struct {
	Provider string `json:"provider"`
	Raw      []byte `json:"-"`
}

type Stats struct {
	ProvidersTotal     int    `json:"providers_total"`
	ProvidersSucceeded int    `json:"providers_succeeded"`
	ProvidersFailed    int    `json:"providers_failed"`
	Cache              string `json:"cache"`
	DurationMs         int64  `json:"duration_ms"`
}

// AggregatedResult holds the payloads of every provider that answered, in
// provider order, so merging them is deterministic.
type AggregatedResult struct {
	Stats    Stats             `json:"stats"`
	Payloads []ProviderPayload `json:"payloads"`
}

// RateLimiter decides whether a client may run another search.
type RateLimiter interface {
	Allow(key string) bool
}
