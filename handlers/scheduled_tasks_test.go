package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/spf13/afero"

	"reelcheck/config"
	"reelcheck/handlers"
	"reelcheck/services/scheduler"
)

type stubScheduler struct {
	running map[string]bool
}

func (s stubScheduler) GetTaskStatus() []config.ScheduledTask { return nil }
func (s stubScheduler) IsTaskRunning(id string) bool          { return s.running[id] }
func (s stubScheduler) RunTaskNow(id string) error {
	if s.running[id] {
		return scheduler.ErrTaskAlreadyRunning
	}
	return scheduler.ErrTaskNotFound
}

func TestScheduledTaskCreateAndDelete(t *testing.T) {
	manager := config.NewManagerWithFs(afero.NewMemMapFs(), "/cfg/settings.json")
	h := handlers.NewScheduledTasksHandler(manager, stubScheduler{})

	rec := doJSON(t, h.CreateTask, http.MethodPost, "/api/scheduled-tasks", nil, map[string]any{
		"type":    "availability_refresh",
		"enabled": true,
		"config":  map[string]string{"userId": "u1"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Task config.ScheduledTask `json:"task"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Task.Frequency != config.ScheduledTaskFrequency12Hours || created.Task.Name != "availability_refresh" {
		t.Fatalf("expected defaults applied, got %+v", created.Task)
	}

	settings, err := manager.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	found := false
	for _, task := range settings.ScheduledTasks.Tasks {
		if task.ID == created.Task.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected task persisted to settings")
	}

	rec = doJSON(t, h.DeleteTask, http.MethodDelete, "/", map[string]string{"taskID": created.Task.ID}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	rec = doJSON(t, h.DeleteTask, http.MethodDelete, "/", map[string]string{"taskID": created.Task.ID}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestScheduledTaskValidation(t *testing.T) {
	manager := config.NewManagerWithFs(afero.NewMemMapFs(), "/cfg/settings.json")
	h := handlers.NewScheduledTasksHandler(manager, stubScheduler{running: map[string]bool{"busy": true}})

	rec := doJSON(t, h.CreateTask, http.MethodPost, "/", nil, map[string]any{"type": "plex_watchlist_sync"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown task type, got %d", rec.Code)
	}
	rec = doJSON(t, h.CreateTask, http.MethodPost, "/", nil, map[string]any{"type": "list_sync", "frequency": "weekly"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown frequency, got %d", rec.Code)
	}

	rec = doJSON(t, h.RunTaskNow, http.MethodPost, "/", map[string]string{"taskID": "busy"}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for running task, got %d", rec.Code)
	}
	rec = doJSON(t, h.RunTaskNow, http.MethodPost, "/", map[string]string{"taskID": "nope"}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing task, got %d", rec.Code)
	}
	rec = doJSON(t, h.DeleteTask, http.MethodDelete, "/", map[string]string{"taskID": "busy"}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting running task, got %d", rec.Code)
	}
}
