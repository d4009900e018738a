package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const serperSearchURL = "https://google.serper.dev"

// SerperProvider searches via the Serper.dev Google proxy API.
type SerperProvider struct {
	client *resty.Client
	apiKey string
}

func NewSerperProvider(apiKey string) *SerperProvider {
	return &SerperProvider{
		client: resty.New().SetBaseURL(serperSearchURL).SetTimeout(30 * time.Second),
		apiKey: apiKey,
	}
}

func (p *SerperProvider) Name() string { return "serper" }

type serperSearchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (p *SerperProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	var parsed serperSearchResponse
	res, err := p.client.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"q":           query,
			"gl":          "br",
			"hl":          "pt",
			"num":         maxResults,
			"autocorrect": true,
			"page":        1,
		}).
		SetResult(&parsed).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("serper search request failed: %w", err)
	}

	if !res.IsSuccess() {
		slog.Error("serper search returned error", "status_code", res.StatusCode(), "body", res.String())
		return nil, fmt.Errorf("serper search returned status %d", res.StatusCode())
	}

	results := make([]Result, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		if item.Link == "" || item.Title == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			Url:     item.Link,
			Snippet: item.Snippet,
			Source:  p.Name(),
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}
