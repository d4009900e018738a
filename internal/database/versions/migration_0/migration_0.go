package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Snapshot of the initial schema. Later migrations must not reference the
// live models in internal/database, only their own copies.

type Analysis struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Segment         string `gorm:"not null"`
	Product         string
	Description     string
	Price           sql.NullFloat64
	Audience        string
	Competitors     string
	AdditionalData  string
	RevenueGoal     sql.NullFloat64
	MarketingBudget sql.NullFloat64
	LaunchWindow    string

	Status     string `gorm:"size:20;not null"`
	AIProvider string `gorm:"size:20"`

	AvatarData            datatypes.JSON `gorm:"type:jsonb"`
	PositioningData       datatypes.JSON `gorm:"type:jsonb"`
	CompetitionData       datatypes.JSON `gorm:"type:jsonb"`
	MarketingData         datatypes.JSON `gorm:"type:jsonb"`
	MetricsData           datatypes.JSON `gorm:"type:jsonb"`
	ComprehensiveAnalysis datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletionTime sql.NullTime

	Errors []AnalysisError `gorm:"foreignKey:AnalysisId;constraint:OnDelete:CASCADE"`
}

type AnalysisError struct {
	AnalysisId uuid.UUID `gorm:"type:uuid;primaryKey"`
	ErrorId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Error      string
	Timestamp  time.Time
}

type Attachment struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	SessionId     string `gorm:"index;not null"`
	FileName      string `gorm:"not null"`
	StoragePath   string
	MimeType      string `gorm:"size:100"`
	SizeBytes     int64
	ContentKind   string `gorm:"size:30"`
	ExtractedText string

	CreatedAt time.Time
}

type Session struct {
	Id         string         `gorm:"primaryKey;size:64"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time
	LastSeenAt time.Time
}

func Migration(txn *gorm.DB) error {
	return txn.AutoMigrate(&Analysis{}, &AnalysisError{}, &Attachment{}, &Session{})
}
