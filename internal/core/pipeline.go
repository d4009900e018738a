package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"arqv-backend/internal/database"
	"arqv-backend/internal/search"
	"arqv-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxResultsPerRound = 10
	maxPagesPerRound   = 5
	analysisMaxTokens  = 8192
)

// Generator is the AI layer the pipeline depends on. It returns the
// generated text and the name of the provider that produced it.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, string, error)
	Validate(ctx context.Context) map[string]string
}

// Searcher runs one web search round.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []search.Result
}

// PageExtractor fetches and reduces result pages to text.
type PageExtractor interface {
	ExtractBatch(ctx context.Context, urls []string) []search.PageContent
}

// PhaseFunc is invoked as the pipeline enters each phase, with step counting
// from 1 to progress.TotalSteps. A nil PhaseFunc disables reporting.
type PhaseFunc func(step int, status, phase string)

// Pipeline runs a market analysis end to end: web research, AI generation,
// and persistence of the resulting document. It is shared by the synchronous
// endpoint and the queue worker.
type Pipeline struct {
	db        *gorm.DB
	ai        Generator
	searcher  Searcher
	extractor PageExtractor
}

func NewPipeline(db *gorm.DB, ai Generator, searcher Searcher, extractor PageExtractor) *Pipeline {
	return &Pipeline{db: db, ai: ai, searcher: searcher, extractor: extractor}
}

// Execute drives the analysis identified by analysisId through all phases.
// On failure the analysis row is marked FAILED and the error recorded before
// returning.
func (p *Pipeline) Execute(ctx context.Context, analysisId uuid.UUID, req api.AnalyzeRequest, attachmentContext string, onPhase PhaseFunc) (AnalysisDocument, string, ResearchData, error) {
	report := func(step int, status, phase string) {
		if onPhase != nil {
			onPhase(step, status, phase)
		}
	}

	fail := func(err error) (AnalysisDocument, string, ResearchData, error) {
		database.SaveAnalysisError(ctx, p.db, analysisId, err.Error())
		if statusErr := database.UpdateAnalysisStatus(ctx, p.db, analysisId, database.AnalysisFailed); statusErr != nil {
			slog.Error("error marking analysis failed", "analysis_id", analysisId, "error", statusErr)
		}
		return nil, "", ResearchData{}, err
	}

	report(1, "Validando dados e preparando análise...", "validation")

	if req.Segment == "" {
		return fail(fmt.Errorf("segmento é obrigatório"))
	}

	if err := database.UpdateAnalysisStatus(ctx, p.db, analysisId, database.AnalysisRunning); err != nil {
		return fail(err)
	}

	report(2, "Coletando dados da web com busca inteligente...", "data_collection")

	research := p.collectResearchData(ctx, req)

	report(3, "Processando com Inteligência Artificial...", "ai_analysis")

	doc, provider := p.runAnalysis(ctx, req, research, attachmentContext)

	report(4, "Finalizando relatório e salvando resultados...", "finalization")

	if err := p.saveResult(ctx, analysisId, doc, provider); err != nil {
		return fail(err)
	}

	return doc, provider, research, nil
}

func (p *Pipeline) collectResearchData(ctx context.Context, req api.AnalyzeRequest) ResearchData {
	var research ResearchData

	for round, query := range BuildSearchQueries(req) {
		results := p.searcher.Search(ctx, query, maxResultsPerRound)
		if len(results) == 0 {
			slog.Warn("search round returned no results", "round", round+1, "query", query)
			continue
		}

		urls := make([]string, 0, maxPagesPerRound)
		for _, result := range results[:min(len(results), maxPagesPerRound)] {
			urls = append(urls, result.Url)
		}

		pages := p.extractor.ExtractBatch(ctx, urls)

		research.Rounds = append(research.Rounds, SearchRound{
			Round:          round + 1,
			Query:          query,
			ResultsCount:   len(results),
			ExtractedCount: len(pages),
		})
		research.TotalResults += len(results)
		research.Pages = append(research.Pages, pages...)

		slog.Info("search round completed", "round", round+1, "results", len(results), "extracted", len(pages))
	}

	return research
}

// runAnalysis asks the AI layer for the analysis document and falls back to
// the static analysis when no provider produces a usable response.
func (p *Pipeline) runAnalysis(ctx context.Context, req api.AnalyzeRequest, research ResearchData, attachmentContext string) (AnalysisDocument, string) {
	prompt := BuildAnalysisPrompt(req, BuildResearchContext(research), attachmentContext)

	response, provider, err := p.ai.Generate(ctx, prompt, analysisMaxTokens)
	if err != nil {
		slog.Warn("all AI providers failed, using fallback analysis", "error", err)
		return FallbackAnalysis(req.Segment), FallbackProvider
	}

	doc, err := ParseAnalysisResponse(response)
	if err != nil {
		slog.Warn("unparseable AI response, using fallback analysis", "provider", provider, "error", err)
		return FallbackAnalysis(req.Segment), FallbackProvider
	}

	return doc, provider
}

func (p *Pipeline) saveResult(ctx context.Context, analysisId uuid.UUID, doc AnalysisDocument, provider string) error {
	updates := map[string]any{
		"ai_provider":            provider,
		"comprehensive_analysis": datatypes.JSON(doc.Marshal()),
	}

	for column, section := range map[string]string{
		"avatar_data":      "avatar_ultra_detalhado",
		"positioning_data": "estrategia_posicionamento",
		"competition_data": "analise_concorrencia_profunda",
		"marketing_data":   "estrategia_palavras_chave",
		"metrics_data":     "metricas_performance",
	} {
		if raw := doc.Section(section); raw != nil {
			updates[column] = datatypes.JSON(raw)
		}
	}

	if err := p.db.WithContext(ctx).Model(&database.Analysis{Id: analysisId}).Updates(updates).Error; err != nil {
		return fmt.Errorf("error saving analysis result: %w", err)
	}

	return database.UpdateAnalysisStatus(ctx, p.db, analysisId, database.AnalysisCompleted)
}

// Validate checks every configured AI provider with a minimal request.
func (p *Pipeline) Validate(ctx context.Context) map[string]string {
	return p.ai.Validate(ctx)
}

// BuildAnalysisResult merges the analysis document with its database id and
// processing metadata into the blob returned to clients. taskId is only set
// for queue-processed analyses.
func BuildAnalysisResult(analysisId uuid.UUID, doc AnalysisDocument, provider string, research ResearchData, mode string, taskId *uuid.UUID) (json.RawMessage, error) {
	result := map[string]json.RawMessage{}
	for key, value := range doc {
		result[key] = value
	}

	metadata := map[string]any{
		"processed_at":     time.Now().UTC().Format(time.RFC3339),
		"processing_mode":  mode,
		"search_rounds":    len(research.Rounds),
		"ai_provider_used": provider,
	}
	if taskId != nil {
		metadata["task_id"] = taskId.String()
	}

	result["database_id"] = mustMarshal(analysisId.String())
	result["task_metadata"] = mustMarshal(metadata)

	b, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("error encoding analysis result: %w", err)
	}
	return b, nil
}
