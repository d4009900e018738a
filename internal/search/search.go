package search

import "context"

// Result is a single web search hit returned by a provider.
type Result struct {
	Title   string `json:"title"`
	Url     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// Provider performs a web search against a single backend. Implementations
// return at most maxResults hits and an error when the backend is unusable.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
