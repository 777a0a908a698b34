package db

import (
	"context"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// TaskStore defines the read and import operations for sensitive tasks
type TaskStore interface {
	GetSensitiveTasks(ctx context.Context) ([]model.SensitiveTask, error)
	GetSensitiveTask(ctx context.Context, id string) (*model.SensitiveTask, error)
	InsertSensitiveTasks(ctx context.Context, tasks []model.SensitiveTask) error
}

// HistoryStore defines read access to the rotation audit log.
// The log is append-only: entries are only ever written by ApplyTransition.
type HistoryStore interface {
	GetRotationHistory(ctx context.Context, taskID string) ([]model.RotationHistoryEntry, error)
}

// PersonnelStore defines the operations for personnel records
type PersonnelStore interface {
	GetPersonnel(ctx context.Context) ([]model.Personnel, error)
	GetPersonnelByID(ctx context.Context, id string) (*model.Personnel, error)
	UpsertPersonnel(ctx context.Context, personnel []model.Personnel) error
}

// TransitionStore persists a task update together with its audit entry.
//
// Implementations must write both rows in one transaction. The task row is
// only updated when its stored version equals expectedVersion, otherwise
// ErrConcurrentUpdate is returned. An entry whose idempotency key already
// exists yields ErrDuplicateAction. Either error leaves both tables unchanged.
type TransitionStore interface {
	ApplyTransition(ctx context.Context, task *model.SensitiveTask, expectedVersion int, entry *model.RotationHistoryEntry) error
}

// Database defines the interface for all database operations.
// Both postgres.DB and sqlite.DB implement this interface.
type Database interface {
	TaskStore
	HistoryStore
	PersonnelStore
	TransitionStore
	Close()
}
