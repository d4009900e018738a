package reports

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"arqv-backend/internal/database"
)

const txtDivider = "========================================================"

// RenderTxt produces the plain text export of an analysis.
func RenderTxt(analysis *database.Analysis) string {
	var sb strings.Builder

	sb.WriteString("Relatório de Análise de Mercado\n")
	sb.WriteString(txtDivider + "\n\n")

	sb.WriteString(fmt.Sprintf("Análise ID: %s\n", analysis.Id))
	sb.WriteString(fmt.Sprintf("Gerado em: %s\n\n", time.Now().Format("02/01/2006 15:04:05")))

	sb.WriteString(fmt.Sprintf("SEGMENTO: %s\n", orNA(analysis.Segment)))
	sb.WriteString(fmt.Sprintf("PRODUTO: %s\n", orNA(analysis.Product)))
	if analysis.Price.Valid {
		sb.WriteString(fmt.Sprintf("PREÇO: R$ %.2f\n", analysis.Price.Float64))
	} else {
		sb.WriteString("PREÇO: N/A\n")
	}

	sb.WriteString("\nAVATAR ULTRA-DETALHADO:\n")
	sb.WriteString(formatAvatar(analysis.AvatarData))

	sb.WriteString("\nINSIGHTS EXCLUSIVOS:\n")
	sb.WriteString(formatInsights(analysis.ComprehensiveAnalysis))

	sb.WriteString("\n" + txtDivider + "\n")

	return sb.String()
}

type avatarData struct {
	PerfilDemografico struct {
		Idade       string `json:"idade"`
		Renda       string `json:"renda"`
		Localizacao string `json:"localizacao"`
	} `json:"perfil_demografico"`
	DoresPrincipais []string `json:"dores_principais"`
}

func formatAvatar(raw []byte) string {
	if len(raw) == 0 {
		return "Dados não disponíveis\n"
	}

	var avatar avatarData
	if err := json.Unmarshal(raw, &avatar); err != nil {
		return "Dados não disponíveis\n"
	}

	var sb strings.Builder
	sb.WriteString("Perfil Demográfico:\n")
	sb.WriteString(fmt.Sprintf("- Idade: %s\n", orNA(avatar.PerfilDemografico.Idade)))
	sb.WriteString(fmt.Sprintf("- Renda: %s\n", orNA(avatar.PerfilDemografico.Renda)))
	sb.WriteString(fmt.Sprintf("- Localização: %s\n", orNA(avatar.PerfilDemografico.Localizacao)))

	sb.WriteString("\nPrincipais Dores:\n")
	for i, dor := range avatar.DoresPrincipais {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, dor))
	}

	return sb.String()
}

func formatInsights(raw []byte) string {
	var comprehensive struct {
		InsightsExclusivos []string `json:"insights_exclusivos"`
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &comprehensive)
	}

	if len(comprehensive.InsightsExclusivos) == 0 {
		return "Nenhum insight disponível\n"
	}

	var sb strings.Builder
	for i, insight := range comprehensive.InsightsExclusivos {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, insight))
	}
	return sb.String()
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
