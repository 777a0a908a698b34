package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/core/services"
	"github.com/jakechorley/rotation-control/pkg/db"
)

const dateLayout = "2006-01-02"

type taskResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Department       string  `json:"department"`
	WorkflowStepID   string  `json:"workflowStepId,omitempty"`
	RotationPeriod   string  `json:"rotationPeriod"`
	PrimaryID        *string `json:"assignedPrimaryId"`
	BackupID         *string `json:"assignedBackupId"`
	LastRotationDate *string `json:"lastRotationDate"`
	NextRotationDate *string `json:"nextRotationDate"`
	Status           string  `json:"status"`
	DaysUntilDue     *int    `json:"daysUntilDue"`
	Version          int     `json:"version"`
}

type historyEntryResponse struct {
	ID                   string  `json:"id"`
	TaskID               string  `json:"taskId"`
	ActionType           string  `json:"actionType"`
	ActionDate           string  `json:"actionDate"`
	PreviousPrimaryID    *string `json:"previousPrimaryId"`
	NewPrimaryID         *string `json:"newPrimaryId"`
	PreviousBackupID     *string `json:"previousBackupId"`
	NewBackupID          *string `json:"newBackupId"`
	PreviousRotationDate *string `json:"previousRotationDate"`
	NewRotationDate      *string `json:"newRotationDate"`
	PerformedBy          string  `json:"performedBy"`
	Notes                string  `json:"notes"`
	IdempotencyKey       string  `json:"idempotencyKey"`
}

type historyResponse struct {
	TaskID         string                 `json:"taskId"`
	Entries        []historyEntryResponse `json:"entries"`
	IntegrityIssue string                 `json:"integrityIssue,omitempty"`
}

type transitionResponse struct {
	Task  taskResponse         `json:"task"`
	Entry historyEntryResponse `json:"entry"`
}

type alertResponse struct {
	TaskID       string `json:"taskId"`
	TaskTitle    string `json:"taskTitle"`
	Kind         string `json:"kind"`
	Severity     string `json:"severity"`
	DaysUntilDue *int   `json:"daysUntilDue"`
	Message      string `json:"message"`
}

type alertsResponse struct {
	Alerts []alertResponse `json:"alerts"`
	High   int             `json:"high"`
	Medium int             `json:"medium"`
}

type personnelResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	Status      string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toTaskResponse(view services.TaskView) taskResponse {
	t := view.Task
	return taskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Department:       t.Department,
		WorkflowStepID:   t.WorkflowStepID,
		RotationPeriod:   string(t.RotationPeriod),
		PrimaryID:        t.AssignedPrimaryID,
		BackupID:         t.AssignedBackupID,
		LastRotationDate: formatDate(t.LastRotationDate),
		NextRotationDate: formatDate(t.NextRotationDate),
		Status:           string(view.Status),
		DaysUntilDue:     view.DaysUntilDue,
		Version:          t.Version,
	}
}

func toHistoryEntryResponse(e model.RotationHistoryEntry) historyEntryResponse {
	return historyEntryResponse{
		ID:                   e.ID,
		TaskID:               e.TaskID,
		ActionType:           string(e.ActionType),
		ActionDate:           e.ActionDate.UTC().Format(time.RFC3339),
		PreviousPrimaryID:    e.PreviousPrimaryID,
		NewPrimaryID:         e.NewPrimaryID,
		PreviousBackupID:     e.PreviousBackupID,
		NewBackupID:          e.NewBackupID,
		PreviousRotationDate: formatDate(e.PreviousRotationDate),
		NewRotationDate:      formatDate(e.NewRotationDate),
		PerformedBy:          e.PerformedBy,
		Notes:                e.Notes,
		IdempotencyKey:       e.IdempotencyKey,
	}
}

func toAlertResponse(a model.Alert) alertResponse {
	return alertResponse{
		TaskID:       a.TaskID,
		TaskTitle:    a.TaskTitle,
		Kind:         string(a.Kind),
		Severity:     string(a.Severity),
		DaysUntilDue: a.DaysUntilDue,
		Message:      a.Message,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service and store errors onto HTTP status codes
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, db.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, db.ErrConcurrentUpdate), errors.Is(err, db.ErrDuplicateAction):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
