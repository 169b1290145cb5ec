// Package history is the catalog of past recording runs, kept in a local
// sqlite database so `demorec runs` and the serve API can list what was
// produced and where.
package history

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRunNotFound       = errors.New("run not found")
	ErrInvalidTitle      = errors.New("run title is required")
	ErrInvalidScriptPath = errors.New("script path is required")
	ErrInvalidStatus     = errors.New("invalid run status")
	ErrRunAlreadyStarted = errors.New("run already started")
	ErrRunNotRunning     = errors.New("run is not running")
)

type Status string

const (
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusRunning, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// Run is one recording pipeline execution, from script to deliverables.
type Run struct {
	ID            uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Title         string     `json:"title" gorm:"type:varchar(255);not null"`
	ScriptPath    string     `json:"script_path" gorm:"type:varchar(512);not null"`
	Status        Status     `json:"status" gorm:"type:varchar(20);not null;default:'created'"`
	StepCount     int        `json:"step_count"`
	NarratedCount int        `json:"narrated_count"`
	OutputVideo   string     `json:"output_video,omitempty" gorm:"type:varchar(512)"`
	OutputGIF     string     `json:"output_gif,omitempty" gorm:"type:varchar(512)"`
	OutputSRT     string     `json:"output_srt,omitempty" gorm:"type:varchar(512)"`
	Error         string     `json:"error,omitempty" gorm:"type:text"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Duration      *int64     `json:"duration,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Run) Validate() error {
	if r.Title == "" {
		return ErrInvalidTitle
	}
	if r.ScriptPath == "" {
		return ErrInvalidScriptPath
	}
	return nil
}

// Start marks the run as recording in progress.
func (r *Run) Start() error {
	if r.Status != StatusCreated {
		return ErrRunAlreadyStarted
	}
	now := time.Now()
	r.Status = StatusRunning
	r.StartTime = &now
	return nil
}

// Outputs names the deliverables of a finished run.
type Outputs struct {
	Video string
	GIF   string
	SRT   string
}

// Complete marks the run as finished, recording its deliverable paths.
func (r *Run) Complete(outputs Outputs) error {
	if r.Status != StatusRunning {
		return ErrRunNotRunning
	}
	r.finish(StatusSuccess)
	r.OutputVideo = outputs.Video
	r.OutputGIF = outputs.GIF
	r.OutputSRT = outputs.SRT
	return nil
}

// Fail marks the run as failed with the causing error message.
func (r *Run) Fail(message string) error {
	if r.Status != StatusRunning {
		return ErrRunNotRunning
	}
	r.finish(StatusFailed)
	r.Error = message
	return nil
}

func (r *Run) finish(status Status) {
	now := time.Now()
	r.Status = status
	r.EndTime = &now
	if r.StartTime != nil {
		duration := now.Sub(*r.StartTime).Milliseconds()
		r.Duration = &duration
	}
}
