package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/core/rotation"
	"github.com/jakechorley/rotation-control/pkg/core/services"
)

const idempotencyHeader = "Idempotency-Key"

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	var status *model.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := model.TaskStatus(raw)
		status = &st
	}

	views, err := services.ListTasks(r.Context(), s.store, s.settings, s.logger, s.now(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]taskResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toTaskResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	view, err := services.GetTask(r.Context(), s.store, s.settings, chi.URLParam(r, "taskID"), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(*view))
}

func (s *Server) taskHistory(w http.ResponseWriter, r *http.Request) {
	result, err := services.TaskHistory(r.Context(), s.store, s.logger, chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := historyResponse{
		TaskID:         result.Task.ID,
		Entries:        make([]historyEntryResponse, 0, len(result.Entries)),
		IntegrityIssue: result.IntegrityIssue,
	}
	for _, e := range result.Entries {
		resp.Entries = append(resp.Entries, toHistoryEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) assignTask(w http.ResponseWriter, r *http.Request) {
	var cmd services.AssignCommand
	if !s.decode(w, r, &cmd) {
		return
	}
	cmd.TaskID = chi.URLParam(r, "taskID")
	cmd.IdempotencyKey = r.Header.Get(idempotencyHeader)

	result, err := services.AssignTask(r.Context(), s.store, cmd, s.settings, s.logger, s.now())
	s.writeTransition(w, r, result, err)
}

func (s *Server) rotateTask(w http.ResponseWriter, r *http.Request) {
	var cmd services.RotateCommand
	if !s.decode(w, r, &cmd) {
		return
	}
	cmd.TaskID = chi.URLParam(r, "taskID")
	cmd.IdempotencyKey = r.Header.Get(idempotencyHeader)

	result, err := services.RotateTask(r.Context(), s.store, cmd, s.settings, s.logger, s.now())
	s.writeTransition(w, r, result, err)
}

func (s *Server) postponeTask(w http.ResponseWriter, r *http.Request) {
	var cmd services.PostponeCommand
	if !s.decode(w, r, &cmd) {
		return
	}
	cmd.TaskID = chi.URLParam(r, "taskID")
	cmd.IdempotencyKey = r.Header.Get(idempotencyHeader)

	result, err := services.PostponeTask(r.Context(), s.store, cmd, s.settings, s.logger, s.now())
	s.writeTransition(w, r, result, err)
}

func (s *Server) viewAlerts(w http.ResponseWriter, r *http.Request) {
	result, err := services.ViewAlerts(r.Context(), s.store, s.settings, s.logger, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := alertsResponse{
		Alerts: make([]alertResponse, 0, len(result.Alerts)),
		High:   result.BySeverity[model.SeverityHigh],
		Medium: result.BySeverity[model.SeverityMedium],
	}
	for _, a := range result.Alerts {
		resp.Alerts = append(resp.Alerts, toAlertResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listPersonnel(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid active flag %q", raw), Field: "active"})
			return
		}
		activeOnly = v
	}

	personnel, err := services.ListPersonnel(r.Context(), s.store, activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]personnelResponse, 0, len(personnel))
	for _, p := range personnel {
		resp = append(resp, personnelResponse{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Email:       p.Email,
			Department:  p.Department,
			Status:      p.Status,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads a JSON command body, writing a 400 and returning false when it is malformed
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (s *Server) writeTransition(w http.ResponseWriter, r *http.Request, result *services.TransitionResult, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := services.TaskView{Task: result.Task, Status: result.Status}
	if next := result.Task.NextRotationDate; next != nil {
		days := rotation.DaysUntilDue(*next, s.now())
		view.DaysUntilDue = &days
	}

	writeJSON(w, http.StatusOK, transitionResponse{
		Task:  toTaskResponse(view),
		Entry: toHistoryEntryResponse(result.Entry),
	})
}
