package core

import (
	"fmt"
	"strings"

	"arqv-backend/pkg/api"
)

const maxPromptContextChars = 10000

const analysisInstructions = `## INSTRUÇÕES:
Gere uma análise em formato JSON com as seguintes seções:

` + "```json" + `
{
  "avatar_ultra_detalhado": {
    "perfil_demografico": {
      "idade": "Faixa etária específica",
      "renda": "Faixa de renda mensal",
      "localizacao": "Principais regiões"
    },
    "dores_principais": ["Lista de 5-8 dores específicas"],
    "desejos_principais": ["Lista de 5-8 desejos específicos"]
  },
  "estrategia_posicionamento": {
    "proposta_valor": "Proposta de valor única",
    "diferenciais": ["Principais diferenciais competitivos"]
  },
  "analise_concorrencia_profunda": [
    {
      "nome": "Nome do concorrente",
      "forcas": ["Principais forças"],
      "fraquezas": ["Principais fraquezas"]
    }
  ],
  "estrategia_palavras_chave": {
    "primarias": ["5-10 palavras-chave principais"],
    "secundarias": ["10-15 palavras-chave secundárias"]
  },
  "metricas_performance": {
    "cac_estimado": "Custo de aquisição estimado",
    "ltv_estimado": "Lifetime value estimado",
    "roi_projetado": "ROI projetado para 12 meses"
  },
  "insights_exclusivos": [
    "Lista de 10-15 insights únicos e valiosos"
  ],
  "plano_acao": {
    "fase_1": {
      "duracao": "30 dias",
      "atividades": ["Lista de atividades específicas"]
    },
    "fase_2": {
      "duracao": "60 dias",
      "atividades": ["Lista de atividades específicas"]
    }
  }
}
` + "```" + `

IMPORTANTE: Responda APENAS com o JSON válido, sem texto adicional.`

// BuildAnalysisPrompt assembles the model prompt from the form inputs, the
// research context, and any attachment context from the session.
func BuildAnalysisPrompt(req api.AnalyzeRequest, researchContext, attachmentContext string) string {
	researchContext = truncate(researchContext, maxPromptContextChars)

	var sb strings.Builder
	sb.WriteString("# ANÁLISE ULTRA-DETALHADA DE MERCADO\n\n")
	sb.WriteString("Você é um especialista em análise de mercado. Gere uma análise completa em formato JSON.\n\n")

	sb.WriteString("## DADOS DO PROJETO:\n")
	sb.WriteString(fmt.Sprintf("- Segmento: %s\n", orDefault(req.Segment)))
	sb.WriteString(fmt.Sprintf("- Produto: %s\n", orDefault(req.Product)))
	sb.WriteString(fmt.Sprintf("- Preço: R$ %s\n", orDefault(req.Price)))
	sb.WriteString(fmt.Sprintf("- Público: %s\n", orDefault(req.Audience)))
	if req.Competitors != "" {
		sb.WriteString(fmt.Sprintf("- Concorrentes conhecidos: %s\n", req.Competitors))
	}
	if req.AdditionalData != "" {
		sb.WriteString(fmt.Sprintf("- Dados adicionais: %s\n", req.AdditionalData))
	}

	sb.WriteString("\n## CONTEXTO DE PESQUISA:\n")
	sb.WriteString(researchContext)
	sb.WriteString("\n")

	if attachmentContext != "" {
		sb.WriteString("\n## ANEXOS DA SESSÃO:\n")
		sb.WriteString(attachmentContext)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(analysisInstructions)

	return sb.String()
}

func orDefault(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Não informado"
	}
	return value
}
