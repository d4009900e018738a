package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"arqv-backend/internal/search"
	"arqv-backend/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQueries(t *testing.T) {
	queries := BuildSearchQueries(api.AnalyzeRequest{Segment: "educação digital", Product: "curso online"})
	require.Len(t, queries, MaxSearchRounds)
	assert.Equal(t, "mercado educação digital curso online Brasil análise tendências", queries[0])
	assert.Equal(t, "concorrentes educação digital Brasil principais empresas market share", queries[1])
}

func TestBuildSearchQueriesWithoutProduct(t *testing.T) {
	queries := BuildSearchQueries(api.AnalyzeRequest{Segment: "fitness"})
	require.Len(t, queries, MaxSearchRounds)
	assert.Equal(t, "mercado fitness Brasil análise oportunidades", queries[0])
}

func TestBuildSearchQueriesCustomQueryReplacesCompetitorQuery(t *testing.T) {
	queries := BuildSearchQueries(api.AnalyzeRequest{Segment: "fitness", Query: "tendências de treino em casa 2026"})
	require.Len(t, queries, MaxSearchRounds)
	assert.Equal(t, "mercado fitness Brasil análise oportunidades", queries[0])
	assert.Equal(t, "tendências de treino em casa 2026", queries[1])
}

func TestBuildResearchContext(t *testing.T) {
	research := ResearchData{
		Rounds: []SearchRound{
			{Round: 1, Query: "mercado fitness", ResultsCount: 8, ExtractedCount: 2},
		},
		TotalResults: 8,
		Pages: []search.PageContent{
			{Url: "https://example.com/a", Title: "Panorama do setor", Content: "O setor cresceu 12% no último ano."},
			{Url: "https://example.com/b", Title: "Tendências", Content: "Treinos híbridos dominam a demanda."},
		},
	}

	context := BuildResearchContext(research)

	assert.Contains(t, context, "PESQUISA REALIZADA - 2 FONTES ANALISADAS:")
	assert.Contains(t, context, "FONTE 1: Panorama do setor")
	assert.Contains(t, context, "URL: https://example.com/a")
	assert.Contains(t, context, "RESUMO: O setor cresceu 12% no último ano.")
	assert.Contains(t, context, "ESTATÍSTICAS DA PESQUISA:")
	assert.Contains(t, context, "- Total de rodadas: 1")
	assert.Contains(t, context, "- Total de resultados: 8")
}

func TestBuildResearchContextWithoutPages(t *testing.T) {
	assert.Equal(t, "Nenhum conteúdo extraído disponível.", BuildResearchContext(ResearchData{}))
}

func TestBuildResearchContextTruncatesLongSummaries(t *testing.T) {
	research := ResearchData{
		Pages: []search.PageContent{
			{Url: "https://example.com", Title: "Longa", Content: strings.Repeat("a", 2*maxCharsPerSummary)},
		},
	}

	context := BuildResearchContext(research)

	assert.Contains(t, context, strings.Repeat("a", maxCharsPerSummary)+"...")
	assert.NotContains(t, context, strings.Repeat("a", maxCharsPerSummary+1))
}

func TestBuildResearchContextKeepsValidUTF8(t *testing.T) {
	// A cap landing inside a multibyte rune must not split it.
	research := ResearchData{
		Pages: []search.PageContent{
			{
				Url:     "https://example.com",
				Title:   "Acentuação",
				Content: strings.Repeat("a", maxCharsPerSummary-1) + strings.Repeat("é", 50),
			},
		},
	}

	context := BuildResearchContext(research)

	assert.True(t, utf8.ValidString(context))
	assert.Contains(t, context, strings.Repeat("a", maxCharsPerSummary-1))
}

func TestBuildResearchContextLimitsSources(t *testing.T) {
	var research ResearchData
	for i := 0; i < maxContextSources+5; i++ {
		research.Pages = append(research.Pages, search.PageContent{
			Url:     fmt.Sprintf("https://example.com/%d", i),
			Title:   fmt.Sprintf("Fonte %d", i),
			Content: "conteúdo",
		})
	}

	context := BuildResearchContext(research)

	assert.Contains(t, context, fmt.Sprintf("FONTE %d:", maxContextSources))
	assert.NotContains(t, context, fmt.Sprintf("FONTE %d:", maxContextSources+1))
	assert.LessOrEqual(t, len(context), MaxContextChars)
}

func TestBuildAnalysisPrompt(t *testing.T) {
	req := api.AnalyzeRequest{
		Segment:     "educação digital",
		Product:     "curso de inglês",
		Price:       "497",
		Audience:    "profissionais de 25 a 40 anos",
		Competitors: "Escola X, Plataforma Y",
	}

	prompt := BuildAnalysisPrompt(req, "PESQUISA REALIZADA - 1 FONTES ANALISADAS:", "[GERAL] notas.txt:\nanotações")

	assert.Contains(t, prompt, "- Segmento: educação digital")
	assert.Contains(t, prompt, "- Produto: curso de inglês")
	assert.Contains(t, prompt, "- Preço: R$ 497")
	assert.Contains(t, prompt, "- Concorrentes conhecidos: Escola X, Plataforma Y")
	assert.Contains(t, prompt, "## CONTEXTO DE PESQUISA:")
	assert.Contains(t, prompt, "## ANEXOS DA SESSÃO:")
	assert.Contains(t, prompt, "avatar_ultra_detalhado")
	assert.Contains(t, prompt, "Responda APENAS com o JSON válido")
}

func TestBuildAnalysisPromptDefaultsAndOmissions(t *testing.T) {
	prompt := BuildAnalysisPrompt(api.AnalyzeRequest{Segment: "fitness"}, "sem resultados", "")

	assert.Contains(t, prompt, "- Produto: Não informado")
	assert.NotContains(t, prompt, "Concorrentes conhecidos")
	assert.NotContains(t, prompt, "ANEXOS DA SESSÃO")
}

func TestBuildAnalysisPromptTruncatesResearchContext(t *testing.T) {
	long := strings.Repeat("x", maxPromptContextChars+500)

	prompt := BuildAnalysisPrompt(api.AnalyzeRequest{Segment: "fitness"}, long, "")

	assert.Contains(t, prompt, strings.Repeat("x", maxPromptContextChars))
	assert.NotContains(t, prompt, strings.Repeat("x", maxPromptContextChars+1))
}

func TestBuildAnalysisPromptKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("a", maxPromptContextChars-1) + strings.Repeat("ç", 300)

	prompt := BuildAnalysisPrompt(api.AnalyzeRequest{Segment: "fitness"}, long, "")

	assert.True(t, utf8.ValidString(prompt))
}

func TestParseAnalysisResponse(t *testing.T) {
	doc, err := ParseAnalysisResponse(`{"avatar_ultra_detalhado": {"perfil_demografico": {}}, "insights_exclusivos": ["a"]}`)
	require.NoError(t, err)

	assert.NotNil(t, doc.Section("avatar_ultra_detalhado"))
	assert.Nil(t, doc.Section("plano_acao"))
}

func TestParseAnalysisResponseStripsJsonFence(t *testing.T) {
	response := "Claro, segue a análise:\n```json\n{\"insights_exclusivos\": [\"a\", \"b\"]}\n```\nEspero que ajude."

	doc, err := ParseAnalysisResponse(response)
	require.NoError(t, err)

	var insights []string
	require.NoError(t, json.Unmarshal(doc.Section("insights_exclusivos"), &insights))
	assert.Equal(t, []string{"a", "b"}, insights)
}

func TestParseAnalysisResponseStripsBareFence(t *testing.T) {
	doc, err := ParseAnalysisResponse("```\n{\"plano_acao\": {}}\n```")
	require.NoError(t, err)

	assert.NotNil(t, doc.Section("plano_acao"))
}

func TestParseAnalysisResponseRejectsInvalidJson(t *testing.T) {
	_, err := ParseAnalysisResponse("não consegui gerar a análise")
	assert.Error(t, err)
}

func TestParseAnalysisResponseRejectsEmptyDocument(t *testing.T) {
	_, err := ParseAnalysisResponse("{}")
	assert.Error(t, err)
}

func TestFallbackAnalysis(t *testing.T) {
	doc := FallbackAnalysis("consultoria")

	var avatar map[string]any
	require.NoError(t, json.Unmarshal(doc.Section("avatar_ultra_detalhado"), &avatar))
	assert.Contains(t, avatar, "perfil_demografico")

	var insights []string
	require.NoError(t, json.Unmarshal(doc.Section("insights_exclusivos"), &insights))
	assert.Contains(t, insights, "Mercado de consultoria em transformação")
	assert.Contains(t, insights, "Análise gerada em modo fallback - IAs indisponíveis")
}
