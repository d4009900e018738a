package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalyzeRequest carries the marketing-segment inputs collected from the form.
// Segment is the only required field; everything else sharpens the analysis.
type AnalyzeRequest struct {
	Segment         string `json:"segment"`
	Product         string `json:"product,omitempty"`
	Description     string `json:"description,omitempty"`
	Price           string `json:"price,omitempty"`
	Audience        string `json:"audience,omitempty"`
	Competitors     string `json:"competitors,omitempty"`
	AdditionalData  string `json:"additional_data,omitempty"`
	RevenueGoal     string `json:"revenue_goal,omitempty"`
	MarketingBudget string `json:"marketing_budget,omitempty"`
	LaunchWindow    string `json:"launch_window,omitempty"`
	Query           string `json:"query,omitempty"`
	SessionId       string `json:"session_id,omitempty"`
}

type AnalyzeAsyncResponse struct {
	TaskId        uuid.UUID `json:"task_id"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	EstimatedTime string    `json:"estimated_time"`
}

// TaskStatusResponse is the polling contract. Current/Total describe pipeline
// phase progress; Result is only set on SUCCESS, Error only on FAILURE.
type TaskStatusResponse struct {
	TaskId  uuid.UUID       `json:"task_id"`
	State   string          `json:"state"`
	Status  string          `json:"status"`
	Phase   string          `json:"phase,omitempty"`
	Current int             `json:"current"`
	Total   int             `json:"total"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type AnalysisSummary struct {
	Id        uuid.UUID `json:"id"`
	Segment   string    `json:"segment"`
	Product   string    `json:"product"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Analysis struct {
	Id              uuid.UUID  `json:"id"`
	Segment         string     `json:"segment"`
	Product         string     `json:"product"`
	Description     string     `json:"description,omitempty"`
	Price           *float64   `json:"price,omitempty"`
	Audience        string     `json:"audience,omitempty"`
	Competitors     string     `json:"competitors,omitempty"`
	AdditionalData  string     `json:"additional_data,omitempty"`
	RevenueGoal     *float64   `json:"revenue_goal,omitempty"`
	MarketingBudget *float64   `json:"marketing_budget,omitempty"`
	LaunchWindow    string     `json:"launch_window,omitempty"`
	Status          string     `json:"status"`
	AIProvider      string     `json:"ai_provider,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletionTime  *time.Time `json:"completion_time,omitempty"`

	AvatarData            json.RawMessage `json:"avatar_data,omitempty"`
	PositioningData       json.RawMessage `json:"positioning_data,omitempty"`
	CompetitionData       json.RawMessage `json:"competition_data,omitempty"`
	MarketingData         json.RawMessage `json:"marketing_data,omitempty"`
	MetricsData           json.RawMessage `json:"metrics_data,omitempty"`
	ComprehensiveAnalysis json.RawMessage `json:"comprehensive_analysis,omitempty"`
}

type ListAnalysesRequest struct {
	Limit  int `schema:"limit"`
	Offset int `schema:"offset"`
}

type ListAnalysesResponse struct {
	Analyses []AnalysisSummary `json:"analyses"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Count    int               `json:"count"`
}

type ActiveTask struct {
	TaskId    uuid.UUID `json:"task_id"`
	Status    string    `json:"status"`
	Phase     string    `json:"phase,omitempty"`
	Progress  int       `json:"progress"`
	StartedAt time.Time `json:"started_at"`
}

type DashboardResponse struct {
	Analyses    []AnalysisSummary `json:"analyses"`
	Stats       DatabaseStats     `json:"stats"`
	ActiveTasks []ActiveTask      `json:"active_tasks"`
	Pagination  Pagination        `json:"pagination"`
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type DatabaseStats struct {
	TotalAnalyses  int64            `json:"total_analyses"`
	StatusCounts   map[string]int64 `json:"status_counts"`
	RecentAnalyses int64            `json:"recent_analyses"`
	Available      bool             `json:"available"`
}

type StatsResponse struct {
	DatabaseStats DatabaseStats `json:"database_stats"`
	SystemInfo    SystemInfo    `json:"system_info"`
}

type SystemInfo struct {
	Timestamp         time.Time `json:"timestamp"`
	Version           string    `json:"version"`
	DatabaseAvailable bool      `json:"database_available"`
}

type UploadAttachmentResponse struct {
	Success     bool      `json:"success"`
	Id          uuid.UUID `json:"attachment_id"`
	SessionId   string    `json:"session_id"`
	FileName    string    `json:"filename"`
	ContentKind string    `json:"content_kind"`
	TextLength  int       `json:"text_length"`
	Message     string    `json:"message,omitempty"`
}

type ValidateResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type PreviewResponse struct {
	Segment             string   `json:"segment"`
	Product             string   `json:"product"`
	EstimatedSections   []string `json:"estimated_sections"`
	EstimatedTime       string   `json:"estimated_processing_time"`
	DataSources         []string `json:"data_sources"`
	FinancialProjection bool     `json:"financial_projections"`
	CompetitionAnalysis string   `json:"competition_analysis"`
	WebResearch         string   `json:"web_research"`
}

type ValidateApisResponse struct {
	TaskId  uuid.UUID `json:"task_id"`
	Message string    `json:"message"`
}

type AppStatusResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Database  bool              `json:"database"`
	Queue     bool              `json:"queue"`
	Providers map[string]bool   `json:"providers"`
	Search    map[string]string `json:"search_providers"`
}

type GeneratePdfRequest struct {
	AnalysisId uuid.UUID `json:"analysis_id"`
}
