package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"arqv-backend/internal/attachments"
	"arqv-backend/internal/core"
	"arqv-backend/internal/database"
	"arqv-backend/internal/messaging"
	"arqv-backend/internal/progress"
	"arqv-backend/internal/reports"
	"arqv-backend/internal/search"
	"arqv-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	appVersion = "2.0.0"

	defaultPageSize = 20
	maxPageSize     = 100

	// Attachment text included as prompt context is capped at this size.
	attachmentContextChars = 8000
)

// AiStatus reports which AI providers are currently usable.
type AiStatus interface {
	Status() map[string]bool
}

// SearchStatus reports the health of the search providers.
type SearchStatus interface {
	Status() map[string]search.ProviderStatus
}

type BackendService struct {
	db           *gorm.DB
	publisher    messaging.Publisher
	progress     *progress.Store
	pipeline     *core.Pipeline
	attachments  *attachments.Service
	pdf          *reports.PdfRenderer
	aiStatus     AiStatus
	searchStatus SearchStatus
}

func NewBackendService(
	db *gorm.DB,
	publisher messaging.Publisher,
	progressStore *progress.Store,
	pipeline *core.Pipeline,
	attachmentService *attachments.Service,
	pdf *reports.PdfRenderer,
	aiStatus AiStatus,
	searchStatus SearchStatus,
) *BackendService {
	return &BackendService{
		db:           db,
		publisher:    publisher,
		progress:     progressStore,
		pipeline:     pipeline,
		attachments:  attachmentService,
		pdf:          pdf,
		aiStatus:     aiStatus,
		searchStatus: searchStatus,
	}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))
	r.Post("/generate-pdf", s.GeneratePdf)

	r.Route("/api", func(r chi.Router) {
		r.Get("/app_status", RestHandler(s.AppStatus))
		r.Post("/analyze", RestHandler(s.Analyze))
		r.Post("/analyze_async", RestHandler(s.AnalyzeAsync))
		r.Get("/task_status/{task_id}", RestHandler(s.TaskStatus))
		r.Post("/upload_attachment", RestHandler(s.UploadAttachment))
		r.Get("/dashboard", RestHandler(s.Dashboard))
		r.Get("/analyses", RestHandler(s.ListAnalyses))
		r.Route("/analysis/{analysis_id}", func(r chi.Router) {
			r.Get("/", RestHandler(s.GetAnalysis))
			r.Delete("/", RestHandler(s.DeleteAnalysis))
			r.Get("/download", s.DownloadAnalysis)
		})
		r.Post("/validate", RestHandler(s.ValidateInput))
		r.Post("/preview", RestHandler(s.Preview))
		r.Post("/validate_apis", RestHandler(s.ValidateApis))
		r.Get("/stats", RestHandler(s.Stats))
	})
}

func (s *BackendService) Health(r *http.Request) (any, error) {
	return map[string]any{
		"status":    "healthy",
		"version":   appVersion,
		"timestamp": time.Now().UTC(),
	}, nil
}

func (s *BackendService) AppStatus(r *http.Request) (any, error) {
	ctx := r.Context()

	dbOk := false
	if sqlDB, err := s.db.DB(); err == nil {
		dbOk = sqlDB.PingContext(ctx) == nil
	}

	queueOk := s.progress.Ping(ctx) == nil

	status := "operational"
	if !dbOk || !queueOk {
		status = "degraded"
	}

	searchProviders := map[string]string{}
	for name, provider := range s.searchStatus.Status() {
		if provider.Enabled {
			searchProviders[name] = "enabled"
		} else {
			searchProviders[name] = fmt.Sprintf("disabled: %s", provider.LastError)
		}
	}

	return api.AppStatusResponse{
		Status:    status,
		Version:   appVersion,
		Database:  dbOk,
		Queue:     queueOk,
		Providers: s.aiStatus.Status(),
		Search:    searchProviders,
	}, nil
}

func (s *BackendService) Analyze(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AnalyzeRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Segment) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "segmento é obrigatório")
	}

	ctx := r.Context()

	analysis := newAnalysisRow(req)
	if err := s.db.WithContext(ctx).Create(&analysis).Error; err != nil {
		slog.Error("error creating analysis", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create analysis entry")
	}

	doc, provider, research, err := s.pipeline.Execute(ctx, analysis.Id, req, s.sessionContext(ctx, req.SessionId), nil)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "analysis failed: %v", err)
	}

	result, err := core.BuildAnalysisResult(analysis.Id, doc, provider, research, "sync", nil)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to encode analysis result")
	}

	slog.Info("synchronous analysis completed", "analysis_id", analysis.Id, "provider", provider)

	return result, nil
}

func (s *BackendService) AnalyzeAsync(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AnalyzeRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Segment) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "segmento é obrigatório")
	}

	ctx := r.Context()

	analysis := newAnalysisRow(req)
	if err := s.db.WithContext(ctx).Create(&analysis).Error; err != nil {
		slog.Error("error creating analysis", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create analysis entry")
	}

	taskId := uuid.New()
	if err := s.progress.Create(ctx, taskId); err != nil {
		slog.Error("error creating task state", "task_id", taskId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to register analysis task")
	}

	payload := messaging.AnalysisTaskPayload{
		TaskId:            taskId,
		AnalysisId:        analysis.Id,
		Request:           req,
		AttachmentContext: s.sessionContext(ctx, req.SessionId),
	}

	if err := s.publisher.PublishAnalysisTask(ctx, payload); err != nil {
		slog.Error("error publishing analysis task", "analysis_id", analysis.Id, "error", err)
		database.SaveAnalysisError(ctx, s.db, analysis.Id, err.Error())
		if statusErr := database.UpdateAnalysisStatus(ctx, s.db, analysis.Id, database.AnalysisFailed); statusErr != nil {
			slog.Error("error marking analysis failed", "analysis_id", analysis.Id, "error", statusErr)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue analysis task")
	}

	slog.Info("submitted analysis task", "task_id", taskId, "analysis_id", analysis.Id)

	return api.AnalyzeAsyncResponse{
		TaskId:        taskId,
		Status:        "STARTED",
		Message:       "Análise iniciada com sucesso",
		EstimatedTime: "2-5 minutos",
	}, nil
}

func (s *BackendService) TaskStatus(r *http.Request) (any, error) {
	taskId, err := URLParamUUID(r, "task_id")
	if err != nil {
		return nil, err
	}

	state, err := s.progress.Get(r.Context(), taskId)
	if err != nil {
		if errors.Is(err, progress.ErrTaskNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "task not found")
		}
		slog.Error("error getting task state", "task_id", taskId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving task state")
	}

	return convertTaskState(*state), nil
}

func (s *BackendService) UploadAttachment(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(attachments.MaxUploadBytes); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	sessionId := r.FormValue("session_id")

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "missing file in upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("error reading uploaded file", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error reading uploaded file")
	}

	processed, err := s.attachments.Process(r.Context(), sessionId, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "%v", err)
	}

	return api.UploadAttachmentResponse{
		Success:     true,
		Id:          processed.Id,
		SessionId:   sessionId,
		FileName:    processed.FileName,
		ContentKind: processed.ContentKind,
		TextLength:  processed.TextLength,
		Message:     "Arquivo processado com sucesso",
	}, nil
}

func (s *BackendService) Dashboard(r *http.Request) (any, error) {
	params, err := listParams(r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	analyses, hasMore, err := s.listAnalyses(ctx, params)
	if err != nil {
		return nil, err
	}

	stats, err := s.databaseStats(ctx)
	if err != nil {
		return nil, err
	}

	activeTasks, err := s.progress.ActiveTasks(ctx)
	if err != nil {
		slog.Error("error listing active tasks", "error", err)
		activeTasks = nil
	}

	return api.DashboardResponse{
		Analyses:    convertAnalysisSummaries(analyses),
		Stats:       stats,
		ActiveTasks: convertActiveTasks(activeTasks),
		Pagination: api.Pagination{
			Limit:   params.Limit,
			Offset:  params.Offset,
			HasMore: hasMore,
		},
	}, nil
}

func (s *BackendService) ListAnalyses(r *http.Request) (any, error) {
	params, err := listParams(r)
	if err != nil {
		return nil, err
	}

	analyses, _, err := s.listAnalyses(r.Context(), params)
	if err != nil {
		return nil, err
	}

	return api.ListAnalysesResponse{
		Analyses: convertAnalysisSummaries(analyses),
		Limit:    params.Limit,
		Offset:   params.Offset,
		Count:    len(analyses),
	}, nil
}

func (s *BackendService) GetAnalysis(r *http.Request) (any, error) {
	analysis, err := s.getAnalysis(r)
	if err != nil {
		return nil, err
	}

	return convertAnalysis(*analysis), nil
}

func (s *BackendService) DeleteAnalysis(r *http.Request) (any, error) {
	analysisId, err := URLParamUUID(r, "analysis_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	if err := s.db.WithContext(ctx).Where("analysis_id = ?", analysisId).Delete(&database.AnalysisError{}).Error; err != nil {
		slog.Error("error deleting analysis errors", "analysis_id", analysisId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting analysis")
	}

	result := s.db.WithContext(ctx).Delete(&database.Analysis{Id: analysisId})
	if result.Error != nil {
		slog.Error("error deleting analysis", "analysis_id", analysisId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting analysis")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "analysis not found")
	}

	slog.Info("deleted analysis", "analysis_id", analysisId)

	return map[string]string{"message": "Análise removida com sucesso"}, nil
}

func (s *BackendService) DownloadAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.getAnalysis(r)
	if err != nil {
		writeHandlerError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	switch format {
	case "json":
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=analise_%s.json", analysis.Id))
		WriteJsonResponse(w, convertAnalysis(*analysis))

	case "txt":
		content := reports.RenderTxt(analysis)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=analise_%s.txt", analysis.Id))
		if _, err := w.Write([]byte(content)); err != nil {
			slog.Error("error writing txt report", "analysis_id", analysis.Id, "error", err)
		}

	case "pdf":
		if s.pdf == nil {
			http.Error(w, "pdf rendering is not configured", http.StatusServiceUnavailable)
			return
		}
		data, err := s.pdf.Render(r.Context(), analysis)
		if err != nil {
			slog.Error("error rendering pdf report", "analysis_id", analysis.Id, "error", err)
			http.Error(w, "error rendering pdf report", http.StatusInternalServerError)
			return
		}
		writePdf(w, data, fmt.Sprintf("analise_%s.pdf", analysis.Id))

	default:
		http.Error(w, fmt.Sprintf("unsupported download format: %s", format), http.StatusBadRequest)
	}
}

// GeneratePdf renders either a stored analysis (body carries analysis_id) or
// an analysis document supplied directly in the request body.
func (s *BackendService) GeneratePdf(w http.ResponseWriter, r *http.Request) {
	if s.pdf == nil {
		http.Error(w, "pdf rendering is not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		http.Error(w, "envie os dados da análise no corpo da requisição", http.StatusBadRequest)
		return
	}

	var req api.GeneratePdfRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.AnalysisId == uuid.Nil {
		data, err := s.pdf.RenderRaw(r.Context(), body)
		if err != nil {
			slog.Error("error rendering pdf report", "error", err)
			http.Error(w, "error rendering pdf report", http.StatusInternalServerError)
			return
		}
		writePdf(w, data, fmt.Sprintf("analise_mercado_%s.pdf", time.Now().Format("20060102_150405")))
		return
	}

	var analysis database.Analysis
	if err := s.db.WithContext(r.Context()).First(&analysis, "id = ?", req.AnalysisId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "analysis not found", http.StatusNotFound)
			return
		}
		slog.Error("error getting analysis", "analysis_id", req.AnalysisId, "error", err)
		http.Error(w, "error retrieving analysis record", http.StatusInternalServerError)
		return
	}

	data, err := s.pdf.Render(r.Context(), &analysis)
	if err != nil {
		slog.Error("error rendering pdf report", "analysis_id", analysis.Id, "error", err)
		http.Error(w, "error rendering pdf report", http.StatusInternalServerError)
		return
	}
	writePdf(w, data, fmt.Sprintf("analise_%s.pdf", analysis.Id))
}

func writePdf(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if _, err := w.Write(data); err != nil {
		slog.Error("error writing pdf report", "error", err)
	}
}

func (s *BackendService) ValidateInput(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AnalyzeRequest](r)
	if err != nil {
		return nil, err
	}

	var validationErrors, warnings []string

	segment := strings.TrimSpace(req.Segment)
	switch {
	case segment == "":
		validationErrors = append(validationErrors, "Segmento é obrigatório")
	case len([]rune(segment)) < 3:
		validationErrors = append(validationErrors, "Segmento deve ter pelo menos 3 caracteres")
	}

	moneyFields := []struct {
		label string
		value string
	}{
		{"Preço", req.Price},
		{"Objetivo de receita", req.RevenueGoal},
		{"Orçamento de marketing", req.MarketingBudget},
	}
	for _, field := range moneyFields {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		if _, ok := parseMoney(field.value); !ok {
			validationErrors = append(validationErrors, fmt.Sprintf("%s deve ser um valor numérico", field.label))
		}
	}

	if strings.TrimSpace(req.Product) == "" {
		warnings = append(warnings, "Produto não informado - a análise será mais genérica")
	}
	if strings.TrimSpace(req.Audience) == "" {
		warnings = append(warnings, "Público-alvo não informado")
	}

	return api.ValidateResponse{
		Valid:    len(validationErrors) == 0,
		Errors:   validationErrors,
		Warnings: warnings,
	}, nil
}

func (s *BackendService) Preview(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AnalyzeRequest](r)
	if err != nil {
		return nil, err
	}

	competitionAnalysis := "automática via busca web"
	if strings.TrimSpace(req.Competitors) != "" {
		competitionAnalysis = "detalhada com concorrentes informados"
	}

	return api.PreviewResponse{
		Segment: req.Segment,
		Product: req.Product,
		EstimatedSections: []string{
			"Avatar ultra-detalhado",
			"Estratégia de posicionamento",
			"Análise de concorrência",
			"Estratégia de palavras-chave",
			"Métricas de performance",
			"Insights exclusivos",
			"Plano de ação",
		},
		EstimatedTime:       "2-5 minutos",
		DataSources:         []string{"Busca web inteligente", "Análise com IA", "Dados do formulário"},
		FinancialProjection: strings.TrimSpace(req.Price) != "" || strings.TrimSpace(req.RevenueGoal) != "",
		CompetitionAnalysis: competitionAnalysis,
		WebResearch:         "habilitada",
	}, nil
}

func (s *BackendService) ValidateApis(r *http.Request) (any, error) {
	ctx := r.Context()

	taskId := uuid.New()
	if err := s.progress.Create(ctx, taskId); err != nil {
		slog.Error("error creating task state", "task_id", taskId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to register validation task")
	}

	if err := s.publisher.PublishApiValidationTask(ctx, messaging.ApiValidationPayload{TaskId: taskId}); err != nil {
		slog.Error("error publishing api validation task", "task_id", taskId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue validation task")
	}

	return api.ValidateApisResponse{
		TaskId:  taskId,
		Message: "Validação de APIs iniciada",
	}, nil
}

func (s *BackendService) Stats(r *http.Request) (any, error) {
	stats, err := s.databaseStats(r.Context())
	if err != nil {
		return nil, err
	}

	return api.StatsResponse{
		DatabaseStats: stats,
		SystemInfo: api.SystemInfo{
			Timestamp:         time.Now().UTC(),
			Version:           appVersion,
			DatabaseAvailable: stats.Available,
		},
	}, nil
}

func (s *BackendService) getAnalysis(r *http.Request) (*database.Analysis, error) {
	analysisId, err := URLParamUUID(r, "analysis_id")
	if err != nil {
		return nil, err
	}

	var analysis database.Analysis
	if err := s.db.WithContext(r.Context()).First(&analysis, "id = ?", analysisId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "analysis not found")
		}
		slog.Error("error getting analysis", "analysis_id", analysisId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving analysis record")
	}

	return &analysis, nil
}

func (s *BackendService) listAnalyses(ctx context.Context, params api.ListAnalysesRequest) ([]database.Analysis, bool, error) {
	var analyses []database.Analysis
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(params.Limit + 1).
		Offset(params.Offset).
		Find(&analyses).Error
	if err != nil {
		slog.Error("error listing analyses", "error", err)
		return nil, false, CodedErrorf(http.StatusInternalServerError, "error listing analyses")
	}

	hasMore := len(analyses) > params.Limit
	if hasMore {
		analyses = analyses[:params.Limit]
	}

	return analyses, hasMore, nil
}

func (s *BackendService) databaseStats(ctx context.Context) (api.DatabaseStats, error) {
	total, statusCounts, recent, err := database.GetStats(ctx, s.db)
	if err != nil {
		slog.Error("error computing database stats", "error", err)
		return api.DatabaseStats{Available: false, StatusCounts: map[string]int64{}}, nil
	}

	return api.DatabaseStats{
		TotalAnalyses:  total,
		StatusCounts:   statusCounts,
		RecentAnalyses: recent,
		Available:      true,
	}, nil
}

func (s *BackendService) sessionContext(ctx context.Context, sessionId string) string {
	if sessionId == "" {
		return ""
	}

	text, err := s.attachments.SessionContext(ctx, sessionId, attachmentContextChars)
	if err != nil {
		slog.Error("error building attachment context", "session_id", sessionId, "error", err)
		return ""
	}
	return text
}

func newAnalysisRow(req api.AnalyzeRequest) database.Analysis {
	analysis := database.Analysis{
		Id:             uuid.New(),
		Segment:        strings.TrimSpace(req.Segment),
		Product:        req.Product,
		Description:    req.Description,
		Audience:       req.Audience,
		Competitors:    req.Competitors,
		AdditionalData: req.AdditionalData,
		LaunchWindow:   req.LaunchWindow,
		Status:         database.AnalysisQueued,
	}

	if value, ok := parseMoney(req.Price); ok {
		analysis.Price = sql.NullFloat64{Float64: value, Valid: true}
	}
	if value, ok := parseMoney(req.RevenueGoal); ok {
		analysis.RevenueGoal = sql.NullFloat64{Float64: value, Valid: true}
	}
	if value, ok := parseMoney(req.MarketingBudget); ok {
		analysis.MarketingBudget = sql.NullFloat64{Float64: value, Valid: true}
	}

	return analysis
}

func listParams(r *http.Request) (api.ListAnalysesRequest, error) {
	params, err := ParseRequestQueryParams[api.ListAnalysesRequest](r)
	if err != nil {
		return params, err
	}

	if params.Limit <= 0 {
		params.Limit = defaultPageSize
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	return params, nil
}

func writeHandlerError(w http.ResponseWriter, err error) {
	var cerr *codedError
	if errors.As(err, &cerr) {
		http.Error(w, err.Error(), cerr.code)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
