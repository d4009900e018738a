package api

import (
	"arqv-backend/internal/database"
	"arqv-backend/internal/progress"
	"arqv-backend/pkg/api"
)

func convertAnalysis(a database.Analysis) api.Analysis {
	converted := api.Analysis{
		Id:             a.Id,
		Segment:        a.Segment,
		Product:        a.Product,
		Description:    a.Description,
		Audience:       a.Audience,
		Competitors:    a.Competitors,
		AdditionalData: a.AdditionalData,
		LaunchWindow:   a.LaunchWindow,
		Status:         a.Status,
		AIProvider:     a.AIProvider,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,

		AvatarData:            []byte(a.AvatarData),
		PositioningData:       []byte(a.PositioningData),
		CompetitionData:       []byte(a.CompetitionData),
		MarketingData:         []byte(a.MarketingData),
		MetricsData:           []byte(a.MetricsData),
		ComprehensiveAnalysis: []byte(a.ComprehensiveAnalysis),
	}

	if a.Price.Valid {
		converted.Price = &a.Price.Float64
	}
	if a.RevenueGoal.Valid {
		converted.RevenueGoal = &a.RevenueGoal.Float64
	}
	if a.MarketingBudget.Valid {
		converted.MarketingBudget = &a.MarketingBudget.Float64
	}
	if a.CompletionTime.Valid {
		converted.CompletionTime = &a.CompletionTime.Time
	}

	return converted
}

func convertAnalysisSummary(a database.Analysis) api.AnalysisSummary {
	return api.AnalysisSummary{
		Id:        a.Id,
		Segment:   a.Segment,
		Product:   a.Product,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func convertAnalysisSummaries(as []database.Analysis) []api.AnalysisSummary {
	summaries := make([]api.AnalysisSummary, 0, len(as))
	for _, a := range as {
		summaries = append(summaries, convertAnalysisSummary(a))
	}
	return summaries
}

func convertTaskState(state progress.TaskState) api.TaskStatusResponse {
	return api.TaskStatusResponse{
		TaskId:  state.TaskId,
		State:   state.State,
		Status:  state.Status,
		Phase:   state.Phase,
		Current: state.Current,
		Total:   state.Total,
		Result:  state.Result,
		Error:   state.Error,
	}
}

func convertActiveTasks(states []progress.TaskState) []api.ActiveTask {
	tasks := make([]api.ActiveTask, 0, len(states))
	for _, state := range states {
		tasks = append(tasks, api.ActiveTask{
			TaskId:    state.TaskId,
			Status:    state.Status,
			Phase:     state.Phase,
			Progress:  state.Current,
			StartedAt: state.StartedAt,
		})
	}
	return tasks
}
