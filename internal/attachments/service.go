package attachments

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"arqv-backend/internal/database"
	"arqv-backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxUploadBytes is the largest attachment accepted, matching the request
// body limit enforced by the upload endpoint.
const MaxUploadBytes = 16 << 20

var supportedTypes = map[string]struct{}{
	"application/pdf":  {},
	"application/json": {},
	"text/plain":       {},
	"text/csv":         {},
	"text/markdown":    {},
}

// Service stores uploaded attachments and extracts their text so the
// analysis pipeline can feed them to the model as extra context.
type Service struct {
	db    *gorm.DB
	store storage.ObjectStore
}

func NewService(db *gorm.DB, store storage.ObjectStore) *Service {
	return &Service{db: db, store: store}
}

// Processed describes a stored attachment.
type Processed struct {
	Id          uuid.UUID
	FileName    string
	ContentKind string
	TextLength  int
	Preview     string
}

// Process validates, stores, and classifies one uploaded file. The returned
// Processed carries the classification and a short preview for the client.
func (s *Service) Process(ctx context.Context, sessionId, fileName, mimeType string, data []byte) (Processed, error) {
	if sessionId == "" {
		return Processed{}, fmt.Errorf("session_id is required")
	}
	if fileName == "" {
		return Processed{}, fmt.Errorf("file name is required")
	}
	if len(data) == 0 {
		return Processed{}, fmt.Errorf("attachment is empty")
	}
	if len(data) > MaxUploadBytes {
		return Processed{}, fmt.Errorf("attachment exceeds the %d byte limit", MaxUploadBytes)
	}

	mimeType = normalizeMimeType(mimeType, fileName)
	if _, ok := supportedTypes[mimeType]; !ok {
		return Processed{}, fmt.Errorf("unsupported attachment type: %s", mimeType)
	}

	text, err := extractContent(mimeType, data)
	if err != nil {
		return Processed{}, err
	}

	kind := ClassifyContent(text)

	attachmentId := uuid.New()
	storagePath := fmt.Sprintf("uploads/%s/%s", sessionId, attachmentId)

	if err := s.store.PutObject(ctx, storagePath, bytes.NewReader(data)); err != nil {
		return Processed{}, fmt.Errorf("error storing attachment: %w", err)
	}

	if err := database.TouchSession(ctx, s.db, sessionId); err != nil {
		return Processed{}, err
	}

	attachment := database.Attachment{
		Id:            attachmentId,
		SessionId:     sessionId,
		FileName:      fileName,
		StoragePath:   storagePath,
		MimeType:      mimeType,
		SizeBytes:     int64(len(data)),
		ContentKind:   kind,
		ExtractedText: text,
	}
	if err := s.db.WithContext(ctx).Create(&attachment).Error; err != nil {
		return Processed{}, fmt.Errorf("error saving attachment record: %w", err)
	}

	slog.Info("attachment processed", "session_id", sessionId, "file", fileName, "kind", kind, "size", len(data))

	return Processed{
		Id:          attachmentId,
		FileName:    fileName,
		ContentKind: kind,
		TextLength:  len(text),
		Preview:     preview(text, 500),
	}, nil
}

// SessionContext concatenates the extracted text of every attachment in the
// session, each under a header naming its classification. The result is
// capped at maxChars.
func (s *Service) SessionContext(ctx context.Context, sessionId string, maxChars int) (string, error) {
	if sessionId == "" {
		return "", nil
	}

	var rows []database.Attachment
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return "", fmt.Errorf("error loading session attachments: %w", err)
	}

	var sb strings.Builder
	for _, row := range rows {
		section := fmt.Sprintf("[%s] %s:\n%s\n\n", strings.ToUpper(row.ContentKind), row.FileName, row.ExtractedText)
		if sb.Len()+len(section) > maxChars {
			remaining := maxChars - sb.Len()
			if remaining > 0 {
				sb.WriteString(truncate(section, remaining))
			}
			break
		}
		sb.WriteString(section)
	}

	return strings.TrimSpace(sb.String()), nil
}

func normalizeMimeType(mimeType, fileName string) string {
	if mimeType != "" && mimeType != "application/octet-stream" {
		if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
			mimeType = parsed
		}
		return mimeType
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	}
	return mimeType
}

func preview(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return truncate(text, limit) + "..."
}
