package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arqv-backend/internal/database"

	"github.com/go-resty/resty/v2"
)

// PdfRenderer calls the external report renderer service, which turns an
// analysis document into a formatted PDF.
type PdfRenderer struct {
	client *resty.Client
}

func NewPdfRenderer(baseURL string) *PdfRenderer {
	return &PdfRenderer{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(60 * time.Second),
	}
}

// Render returns the PDF bytes for the analysis, or an error when the
// renderer is unreachable or rejects the document.
func (r *PdfRenderer) Render(ctx context.Context, analysis *database.Analysis) ([]byte, error) {
	doc, err := renderDocument(analysis)
	if err != nil {
		return nil, err
	}

	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		Post("/render")
	if err != nil {
		return nil, fmt.Errorf("pdf renderer request failed: %w", err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("pdf renderer returned status %d: %s", res.StatusCode(), res.String())
	}

	return res.Body(), nil
}

// RenderRaw forwards an arbitrary analysis document to the renderer. Used by
// the endpoint that renders client-supplied content.
func (r *PdfRenderer) RenderRaw(ctx context.Context, doc json.RawMessage) ([]byte, error) {
	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		Post("/render")
	if err != nil {
		return nil, fmt.Errorf("pdf renderer request failed: %w", err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("pdf renderer returned status %d: %s", res.StatusCode(), res.String())
	}

	return res.Body(), nil
}

func renderDocument(analysis *database.Analysis) (map[string]any, error) {
	doc := map[string]any{
		"id":      analysis.Id.String(),
		"segment": analysis.Segment,
		"product": analysis.Product,
		"status":  analysis.Status,
	}
	if analysis.Price.Valid {
		doc["price"] = analysis.Price.Float64
	}

	for name, raw := range map[string][]byte{
		"avatar":                 analysis.AvatarData,
		"positioning":            analysis.PositioningData,
		"competition":            analysis.CompetitionData,
		"marketing":              analysis.MarketingData,
		"metrics":                analysis.MetricsData,
		"comprehensive_analysis": analysis.ComprehensiveAnalysis,
	} {
		if len(raw) == 0 {
			continue
		}
		var section any
		if err := json.Unmarshal(raw, &section); err != nil {
			return nil, fmt.Errorf("error decoding %s section: %w", name, err)
		}
		doc[name] = section
	}

	return doc, nil
}
