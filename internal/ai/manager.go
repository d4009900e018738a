package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// Responses shorter than this are treated as provider failures so the
	// manager falls through to the next backend.
	MinResponseLength = 500

	maxConsecutiveErrors = 3
	disableCooldown      = 5 * time.Minute
)

var ErrNoProviders = errors.New("no AI providers available")

type providerState struct {
	provider   Provider
	errorCount int
	disabledAt time.Time
}

// Manager tries providers in priority order, temporarily sidelining backends
// that keep failing. It is safe for concurrent use by pipeline workers.
type Manager struct {
	mu        sync.Mutex
	providers []*providerState
}

func NewManager(providers ...Provider) *Manager {
	m := &Manager{}
	for _, p := range providers {
		m.providers = append(m.providers, &providerState{provider: p})
	}
	return m
}

func (m *Manager) available(state *providerState) bool {
	if state.errorCount < maxConsecutiveErrors {
		return true
	}
	if time.Since(state.disabledAt) > disableCooldown {
		state.errorCount = 0
		return true
	}
	return false
}

func (m *Manager) candidates() []*providerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*providerState
	for _, state := range m.providers {
		if m.available(state) {
			out = append(out, state)
		}
	}
	return out
}

func (m *Manager) recordResult(state *providerState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		state.errorCount = 0
		return
	}

	state.errorCount++
	if state.errorCount >= maxConsecutiveErrors {
		state.disabledAt = time.Now()
		slog.Warn("AI provider disabled after repeated failures", "provider", state.provider.Name(), "errors", state.errorCount)
	}
}

// Generate returns the first sufficiently long response along with the name
// of the provider that produced it.
func (m *Manager) Generate(ctx context.Context, prompt string, maxTokens int) (string, string, error) {
	candidates := m.candidates()
	if len(candidates) == 0 {
		return "", "", ErrNoProviders
	}

	var lastErr error
	for _, state := range candidates {
		name := state.provider.Name()

		text, err := state.provider.Generate(ctx, prompt, maxTokens)
		if err == nil && len(text) < MinResponseLength {
			err = fmt.Errorf("response too short (%d chars) from %s", len(text), name)
		}

		m.recordResult(state, err)

		if err != nil {
			slog.Warn("AI provider failed, trying next", "provider", name, "error", err)
			lastErr = err
			continue
		}

		return text, name, nil
	}

	return "", "", fmt.Errorf("all AI providers failed: %w", lastErr)
}

// Status reports per-provider availability for the app-status endpoint.
func (m *Manager) Status() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := make(map[string]bool, len(m.providers))
	for _, state := range m.providers {
		status[state.provider.Name()] = m.available(state)
	}
	return status
}

// Validate probes every configured provider, regardless of disabled state.
func (m *Manager) Validate(ctx context.Context) map[string]string {
	m.mu.Lock()
	providers := make([]Provider, len(m.providers))
	for i, state := range m.providers {
		providers[i] = state.provider
	}
	m.mu.Unlock()

	results := make(map[string]string, len(providers))
	for _, p := range providers {
		if err := p.Test(ctx); err != nil {
			results[p.Name()] = fmt.Sprintf("ERROR: %v", err)
		} else {
			results[p.Name()] = "OK"
		}
	}
	return results
}

// ResetErrors clears failure counters, re-enabling sidelined providers.
func (m *Manager) ResetErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, state := range m.providers {
		state.errorCount = 0
		state.disabledAt = time.Time{}
	}
}
