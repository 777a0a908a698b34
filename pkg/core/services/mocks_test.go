package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/jakechorley/rotation-control/internal/config"
	"github.com/jakechorley/rotation-control/pkg/clients/sheetsclient"
	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/db"
)

type appliedTransition struct {
	task            model.SensitiveTask
	expectedVersion int
	entry           model.RotationHistoryEntry
}

// mockStore is an in-memory store covering every services interface
type mockStore struct {
	tasks     map[string]model.SensitiveTask
	order     []string
	history   map[string][]model.RotationHistoryEntry
	personnel []model.Personnel
	keys      map[string]bool

	applied  []appliedTransition
	inserted []model.SensitiveTask
	upserted []model.Personnel

	getTasksErr     error
	getPersonnelErr error
	applyErr        error
	insertErr       error
}

func newMockStore(tasks ...model.SensitiveTask) *mockStore {
	m := &mockStore{
		tasks:   make(map[string]model.SensitiveTask),
		history: make(map[string][]model.RotationHistoryEntry),
		keys:    make(map[string]bool),
	}
	for _, t := range tasks {
		m.tasks[t.ID] = t
		m.order = append(m.order, t.ID)
	}
	return m
}

func (m *mockStore) GetSensitiveTasks(ctx context.Context) ([]model.SensitiveTask, error) {
	if m.getTasksErr != nil {
		return nil, m.getTasksErr
	}
	tasks := make([]model.SensitiveTask, 0, len(m.order))
	for _, id := range m.order {
		tasks = append(tasks, m.tasks[id])
	}
	return tasks, nil
}

func (m *mockStore) GetSensitiveTask(ctx context.Context, id string) (*model.SensitiveTask, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("sensitive task %s: %w", id, db.ErrNotFound)
	}
	return &t, nil
}

func (m *mockStore) InsertSensitiveTasks(ctx context.Context, tasks []model.SensitiveTask) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, tasks...)
	for _, t := range tasks {
		m.tasks[t.ID] = t
		m.order = append(m.order, t.ID)
	}
	return nil
}

func (m *mockStore) GetRotationHistory(ctx context.Context, taskID string) ([]model.RotationHistoryEntry, error) {
	return append([]model.RotationHistoryEntry(nil), m.history[taskID]...), nil
}

func (m *mockStore) GetPersonnel(ctx context.Context) ([]model.Personnel, error) {
	if m.getPersonnelErr != nil {
		return nil, m.getPersonnelErr
	}
	return append([]model.Personnel(nil), m.personnel...), nil
}

func (m *mockStore) GetPersonnelByID(ctx context.Context, id string) (*model.Personnel, error) {
	for _, p := range m.personnel {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("personnel %s: %w", id, db.ErrNotFound)
}

func (m *mockStore) UpsertPersonnel(ctx context.Context, personnel []model.Personnel) error {
	m.upserted = append(m.upserted, personnel...)
	return nil
}

func (m *mockStore) ApplyTransition(ctx context.Context, task *model.SensitiveTask, expectedVersion int, entry *model.RotationHistoryEntry) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	if m.keys[entry.IdempotencyKey] {
		return db.ErrDuplicateAction
	}
	current, ok := m.tasks[task.ID]
	if !ok {
		return db.ErrNotFound
	}
	if current.Version != expectedVersion {
		return db.ErrConcurrentUpdate
	}

	m.keys[entry.IdempotencyKey] = true
	task.Version = expectedVersion + 1
	m.tasks[task.ID] = *task
	m.history[task.ID] = append(m.history[task.ID], *entry)
	m.applied = append(m.applied, appliedTransition{task: *task, expectedVersion: expectedVersion, entry: *entry})
	return nil
}

// mockSheets implements WorkflowClient and PersonnelClient
type mockSheets struct {
	steps     []sheetsclient.WorkflowStep
	personnel []model.Personnel
	err       error
}

func (m *mockSheets) ListWorkflowSteps(ctx context.Context, cfg *config.SheetsConfig) ([]sheetsclient.WorkflowStep, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.steps, nil
}

func (m *mockSheets) ListPersonnel(ctx context.Context, cfg *config.SheetsConfig) ([]model.Personnel, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.personnel, nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

// mockMailer implements Mailer, failing for recipients listed in failFor
type mockMailer struct {
	mu      sync.Mutex
	sent    []sentEmail
	failFor map[string]error
}

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}
