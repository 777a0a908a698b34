package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jakechorley/rotation-control/internal/config"
	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/core/rotation"
)

// AssignCommand gives a task awaiting assignment its first personnel
type AssignCommand struct {
	TaskID         string `json:"-" validate:"required"`
	PrimaryID      string `json:"primaryId" validate:"required"`
	BackupID       string `json:"backupId,omitempty" validate:"omitempty,nefield=PrimaryID"`
	PerformedBy    string `json:"performedBy" validate:"required"`
	IdempotencyKey string `json:"-"`
}

// RotateCommand hands an assigned task to new personnel
type RotateCommand struct {
	TaskID         string `json:"-" validate:"required"`
	NewPrimaryID   string `json:"newPrimaryId" validate:"required"`
	NewBackupID    string `json:"newBackupId,omitempty" validate:"omitempty,nefield=NewPrimaryID"`
	Notes          string `json:"notes,omitempty"`
	PerformedBy    string `json:"performedBy" validate:"required"`
	IdempotencyKey string `json:"-"`
}

// PostponeCommand defers an assigned task's next rotation by Days
type PostponeCommand struct {
	TaskID         string `json:"-" validate:"required"`
	Days           int    `json:"days" validate:"required,min=1"`
	Reason         string `json:"reason" validate:"required"`
	PerformedBy    string `json:"performedBy" validate:"required"`
	IdempotencyKey string `json:"-"`
}

// TransitionResult is the persisted outcome of one command
type TransitionResult struct {
	Task   model.SensitiveTask
	Entry  model.RotationHistoryEntry
	Status model.TaskStatus
}

func (c *AssignCommand) normalise() {
	c.TaskID = strings.TrimSpace(c.TaskID)
	c.PrimaryID = strings.TrimSpace(c.PrimaryID)
	c.BackupID = strings.TrimSpace(c.BackupID)
	c.PerformedBy = strings.TrimSpace(c.PerformedBy)
	c.IdempotencyKey = strings.TrimSpace(c.IdempotencyKey)
}

func (c *RotateCommand) normalise() {
	c.TaskID = strings.TrimSpace(c.TaskID)
	c.NewPrimaryID = strings.TrimSpace(c.NewPrimaryID)
	c.NewBackupID = strings.TrimSpace(c.NewBackupID)
	c.Notes = strings.TrimSpace(c.Notes)
	c.PerformedBy = strings.TrimSpace(c.PerformedBy)
	c.IdempotencyKey = strings.TrimSpace(c.IdempotencyKey)
}

func (c *PostponeCommand) normalise() {
	c.TaskID = strings.TrimSpace(c.TaskID)
	c.Reason = strings.TrimSpace(c.Reason)
	c.PerformedBy = strings.TrimSpace(c.PerformedBy)
	c.IdempotencyKey = strings.TrimSpace(c.IdempotencyKey)
}

// stampEntry gives a new history entry its id and idempotency key, generating a key when none was supplied
func stampEntry(entry *model.RotationHistoryEntry, key string) {
	entry.ID = uuid.NewString()
	if key == "" {
		key = uuid.NewString()
	}
	entry.IdempotencyKey = key
}

// Settings carries the tunable rotation rules shared by the services
type Settings struct {
	Classifier          rotation.Classifier
	MaxPostponementDays int
}

const defaultMaxPostponementDays = 365

// DefaultSettings returns the 15-day due-soon window and a one year postponement cap
func DefaultSettings() Settings {
	return Settings{
		Classifier:          rotation.NewClassifier(rotation.DefaultDueSoonDays),
		MaxPostponementDays: defaultMaxPostponementDays,
	}
}

func (s Settings) maxPostponement() int {
	if s.MaxPostponementDays <= 0 {
		return defaultMaxPostponementDays
	}
	return s.MaxPostponementDays
}

// SettingsFromConfig builds Settings from the rotation section of the config
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := DefaultSettings()
	if cfg == nil {
		return settings
	}
	settings.Classifier = rotation.NewClassifier(cfg.Rotation.DueSoonDays)
	if cfg.Rotation.MaxPostponementDays > 0 {
		settings.MaxPostponementDays = cfg.Rotation.MaxPostponementDays
	}
	return settings
}
