// Package store keeps a history of generated notes in SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/juparave/researchnote/internal/domain"
)

// ErrNotFound is returned when no run exists for a date
var ErrNotFound = errors.New("run not found")

// RunRecord is one generated note. Re-running a date replaces its row.
type RunRecord struct {
	ID          uint   `gorm:"primaryKey"`
	NoteDate    string `gorm:"uniqueIndex;size:10;not null"`
	GeneratedAt string
	Model       string
	Branch      string
	Repos       string // comma separated
	CommitCount int
	FileCount   int
	HighCount   int
	MediumCount int
	LowCount    int
	Document    string // JSON report
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store records runs in a SQLite database
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the history database at path.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record upserts the run for rpt's note date. document is the JSON report.
func (s *Store) Record(ctx context.Context, rpt *domain.Report, document []byte) error {
	rec := RunRecord{
		NoteDate:    rpt.NoteDateKST,
		GeneratedAt: rpt.GeneratedAt,
		Model:       rpt.Model,
		Branch:      rpt.Branch,
		Repos:       strings.Join(rpt.Repos, ","),
		CommitCount: len(rpt.Commits),
		FileCount:   rpt.FileCount(),
		HighCount:   rpt.HighCount(),
		MediumCount: rpt.MediumCount(),
		LowCount:    rpt.LowCount(),
		Document:    string(document),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "note_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"generated_at", "model", "branch", "repos",
			"commit_count", "file_count", "high_count", "medium_count", "low_count",
			"document", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("recording run %s: %w", rpt.NoteDateKST, err)
	}
	return nil
}

// Recent returns up to limit runs, newest note date first
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := s.db.WithContext(ctx).Order("note_date DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Get returns the run for a note date
func (s *Store) Get(ctx context.Context, noteDate string) (*RunRecord, error) {
	var run RunRecord
	err := s.db.WithContext(ctx).Where("note_date = ?", noteDate).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", noteDate, err)
	}
	return &run, nil
}
