package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > maxResults {
		return f.results[:maxResults], nil
	}
	return f.results, nil
}

func fakeResults(source string, n int) []Result {
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{
			Title:  fmt.Sprintf("%s result %d", source, i),
			Url:    fmt.Sprintf("https://example.com/%s/%d", source, i),
			Source: source,
		}
	}
	return results
}

func TestManagerMergesProviders(t *testing.T) {
	first := &fakeProvider{name: "google", results: fakeResults("google", 3)}
	second := &fakeProvider{name: "duckduckgo", results: fakeResults("duckduckgo", 3)}
	manager := NewManager(nil, first, second)

	results := manager.Search(context.Background(), "mercado", 10)
	assert.Len(t, results, 6)
	assert.Equal(t, "google", results[0].Source)
}

func TestManagerStopsAtMaxResults(t *testing.T) {
	first := &fakeProvider{name: "google", results: fakeResults("google", 10)}
	second := &fakeProvider{name: "duckduckgo", results: fakeResults("duckduckgo", 10)}
	manager := NewManager(nil, first, second)

	results := manager.Search(context.Background(), "mercado", 10)
	assert.Len(t, results, 10)
	assert.Zero(t, second.calls)
}

func TestManagerDeduplicatesByUrl(t *testing.T) {
	shared := Result{Title: "Shared", Url: "https://example.com/shared"}
	first := &fakeProvider{name: "google", results: []Result{shared}}
	second := &fakeProvider{name: "serper", results: []Result{shared, {Title: "Other", Url: "https://example.com/other"}}}
	manager := NewManager(nil, first, second)

	results := manager.Search(context.Background(), "mercado", 10)
	assert.Len(t, results, 2)
}

func TestManagerSkipsFailingProvider(t *testing.T) {
	first := &fakeProvider{name: "google", err: errors.New("quota exceeded")}
	second := &fakeProvider{name: "duckduckgo", results: fakeResults("duckduckgo", 2)}
	manager := NewManager(nil, first, second)

	results := manager.Search(context.Background(), "mercado", 10)
	assert.Len(t, results, 2)
	assert.Equal(t, "duckduckgo", results[0].Source)
}

func TestManagerDisablesProviderAfterRepeatedErrors(t *testing.T) {
	failing := &fakeProvider{name: "google", err: errors.New("down")}
	manager := NewManager(nil, failing)

	for i := 0; i < maxProviderErrors; i++ {
		manager.Search(context.Background(), "mercado", 10)
	}
	assert.False(t, manager.Status()["google"].Enabled)

	callsBefore := failing.calls
	manager.Search(context.Background(), "mercado", 10)
	assert.Equal(t, callsBefore, failing.calls)

	manager.ResetErrors()
	assert.True(t, manager.Status()["google"].Enabled)
}
