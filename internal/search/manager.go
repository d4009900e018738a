package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	maxProviderErrors = 5
	providerCooldown  = time.Hour
)

type providerState struct {
	provider   Provider
	errorCount int
	disabledAt time.Time
	lastError  string
}

// Manager fans a query out to the configured providers in order, merging and
// deduplicating their results. Providers that keep failing are disabled for a
// cooldown period so a broken API key does not stall every analysis.
type Manager struct {
	mu        sync.Mutex
	providers []*providerState
	cache     *QueryCache
}

// NewManager builds a manager over the given providers, tried in order. The
// cache may be nil, in which case every search hits the providers.
func NewManager(cache *QueryCache, providers ...Provider) *Manager {
	manager := &Manager{cache: cache}
	for _, provider := range providers {
		manager.providers = append(manager.providers, &providerState{provider: provider})
	}
	return manager
}

func (m *Manager) available(state *providerState) bool {
	if state.errorCount < maxProviderErrors {
		return true
	}
	if time.Since(state.disabledAt) > providerCooldown {
		state.errorCount = 0
		state.lastError = ""
		return true
	}
	return false
}

// Search returns up to maxResults deduplicated hits for query. It stops
// querying further providers once maxResults have been collected. It only
// returns an empty slice when every provider failed or returned nothing.
func (m *Manager) Search(ctx context.Context, query string, maxResults int) []Result {
	if m.cache != nil {
		if cached, ok := m.cache.Get(ctx, query); ok {
			slog.Info("search cache hit", "query", query)
			return cached
		}
	}

	m.mu.Lock()
	candidates := make([]*providerState, 0, len(m.providers))
	for _, state := range m.providers {
		if m.available(state) {
			candidates = append(candidates, state)
		}
	}
	m.mu.Unlock()

	var results []Result
	seen := make(map[string]struct{})

	for _, state := range candidates {
		if len(results) >= maxResults {
			break
		}

		hits, err := state.provider.Search(ctx, query, maxResults-len(results))
		m.recordResult(state, err)
		if err != nil {
			slog.Warn("search provider failed", "provider", state.provider.Name(), "error", err)
			continue
		}

		for _, hit := range hits {
			if _, ok := seen[hit.Url]; ok {
				continue
			}
			seen[hit.Url] = struct{}{}
			results = append(results, hit)
			if len(results) >= maxResults {
				break
			}
		}
	}

	if m.cache != nil && len(results) > 0 {
		m.cache.Set(ctx, query, results)
	}

	return results
}

func (m *Manager) recordResult(state *providerState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		state.errorCount = 0
		state.lastError = ""
		return
	}

	state.errorCount++
	state.lastError = err.Error()
	if state.errorCount >= maxProviderErrors {
		slog.Error("search provider disabled after repeated errors", "provider", state.provider.Name())
		state.disabledAt = time.Now()
	}
}

// ProviderStatus describes the health of one search provider.
type ProviderStatus struct {
	Enabled    bool   `json:"enabled"`
	ErrorCount int    `json:"error_count"`
	LastError  string `json:"last_error,omitempty"`
}

// Status reports per provider health for the status endpoints.
func (m *Manager) Status() map[string]ProviderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := make(map[string]ProviderStatus, len(m.providers))
	for _, state := range m.providers {
		status[state.provider.Name()] = ProviderStatus{
			Enabled:    state.errorCount < maxProviderErrors || time.Since(state.disabledAt) > providerCooldown,
			ErrorCount: state.errorCount,
			LastError:  state.lastError,
		}
	}
	return status
}

// ResetErrors clears error counters, re-enabling all providers.
func (m *Manager) ResetErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, state := range m.providers {
		state.errorCount = 0
		state.lastError = ""
	}
}
