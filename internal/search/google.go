package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const googleSearchURL = "https://www.googleapis.com/customsearch/v1"

// GoogleProvider searches via the Google Custom Search JSON API.
type GoogleProvider struct {
	client *resty.Client
	apiKey string
	cseId  string
}

func NewGoogleProvider(apiKey, cseId string) *GoogleProvider {
	return &GoogleProvider{
		client: resty.New().SetBaseURL(googleSearchURL).SetTimeout(30 * time.Second),
		apiKey: apiKey,
		cseId:  cseId,
	}
}

func (p *GoogleProvider) Name() string { return "google" }

type googleSearchResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (p *GoogleProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults > 10 {
		// The API rejects num greater than 10.
		maxResults = 10
	}

	var parsed googleSearchResponse
	res, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":  p.apiKey,
			"cx":   p.cseId,
			"q":    query,
			"num":  strconv.Itoa(maxResults),
			"lr":   "lang_pt",
			"gl":   "br",
			"safe": "off",
		}).
		SetResult(&parsed).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("google search request failed: %w", err)
	}

	if !res.IsSuccess() {
		slog.Error("google search returned error", "status_code", res.StatusCode(), "body", res.String())
		return nil, fmt.Errorf("google search returned status %d", res.StatusCode())
	}

	if parsed.Error != nil {
		return nil, fmt.Errorf("google search api error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			Url:     item.Link,
			Snippet: item.Snippet,
			Source:  p.Name(),
		})
	}
	return results, nil
}
