package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"reelcheck/config"
	"reelcheck/services/scheduler"
)

type taskScheduler interface {
	GetTaskStatus() []config.ScheduledTask
	RunTaskNow(taskID string) error
	IsTaskRunning(taskID string) bool
}

var _ taskScheduler = (*scheduler.Service)(nil)

// ScheduledTasksHandler handles scheduled tasks API endpoints
type ScheduledTasksHandler struct {
	configManager    scheduler.SettingsStore
	schedulerService taskScheduler
}

// NewScheduledTasksHandler creates a new scheduled tasks handler
func NewScheduledTasksHandler(configManager scheduler.SettingsStore, schedulerService taskScheduler) *ScheduledTasksHandler {
	return &ScheduledTasksHandler{
		configManager:    configManager,
		schedulerService: schedulerService,
	}
}

type createTaskRequest struct {
	Type      config.ScheduledTaskType      `json:"type" validate:"required,oneof=availability_refresh list_sync"`
	Name      string                        `json:"name" validate:"max=200"`
	Frequency config.ScheduledTaskFrequency `json:"frequency" validate:"omitempty,oneof=1min 5min 15min 30min hourly 6hours 12hours daily"`
	Config    map[string]string             `json:"config"`
	Enabled   bool                          `json:"enabled"`
}

type updateTaskRequest struct {
	Name      string                        `json:"name" validate:"max=200"`
	Frequency config.ScheduledTaskFrequency `json:"frequency" validate:"omitempty,oneof=1min 5min 15min 30min hourly 6hours 12hours daily"`
	Config    map[string]string             `json:"config"`
	Enabled   *bool                         `json:"enabled"`
}

// ListTasks returns all scheduled tasks with current status
// GET /api/scheduled-tasks
func (h *ScheduledTasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": h.schedulerService.GetTaskStatus(),
	})
}

// CreateTask adds a new scheduled task
// POST /api/scheduled-tasks
func (h *ScheduledTasksHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name == "" {
		req.Name = string(req.Type)
	}
	if req.Frequency == "" {
		req.Frequency = config.ScheduledTaskFrequency12Hours
	}

	task := config.ScheduledTask{
		ID:         uuid.New().String(),
		Type:       req.Type,
		Name:       req.Name,
		Frequency:  req.Frequency,
		Config:     req.Config,
		Enabled:    req.Enabled,
		LastStatus: config.ScheduledTaskStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	settings, err := h.configManager.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings: "+err.Error())
		return
	}

	settings.ScheduledTasks.Tasks = append(settings.ScheduledTasks.Tasks, task)

	if err := h.configManager.Save(settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"task":    task,
	})
}

// UpdateTask modifies an existing task
// PATCH /api/scheduled-tasks/{taskID}
func (h *ScheduledTasksHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	var req updateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := h.configManager.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings: "+err.Error())
		return
	}

	var updatedTask *config.ScheduledTask
	for i := range settings.ScheduledTasks.Tasks {
		if settings.ScheduledTasks.Tasks[i].ID == taskID {
			if req.Name != "" {
				settings.ScheduledTasks.Tasks[i].Name = req.Name
			}
			if req.Frequency != "" {
				settings.ScheduledTasks.Tasks[i].Frequency = req.Frequency
			}
			if req.Config != nil {
				settings.ScheduledTasks.Tasks[i].Config = req.Config
			}
			if req.Enabled != nil {
				settings.ScheduledTasks.Tasks[i].Enabled = *req.Enabled
			}
			updatedTask = &settings.ScheduledTasks.Tasks[i]
			break
		}
	}

	if updatedTask == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.configManager.Save(settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"task":    updatedTask,
	})
}

// DeleteTask removes a scheduled task
// DELETE /api/scheduled-tasks/{taskID}
func (h *ScheduledTasksHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	if h.schedulerService.IsTaskRunning(taskID) {
		writeError(w, http.StatusConflict, "Cannot delete a running task")
		return
	}

	settings, err := h.configManager.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings: "+err.Error())
		return
	}

	found := false
	for i := range settings.ScheduledTasks.Tasks {
		if settings.ScheduledTasks.Tasks[i].ID == taskID {
			settings.ScheduledTasks.Tasks = append(
				settings.ScheduledTasks.Tasks[:i],
				settings.ScheduledTasks.Tasks[i+1:]...,
			)
			found = true
			break
		}
	}

	if !found {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.configManager.Save(settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RunTaskNow triggers immediate execution of a task
// POST /api/scheduled-tasks/{taskID}/run
func (h *ScheduledTasksHandler) RunTaskNow(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	if err := h.schedulerService.RunTaskNow(taskID); err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, scheduler.ErrTaskNotFound):
			status = http.StatusNotFound
		case errors.Is(err, scheduler.ErrTaskAlreadyRunning):
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Task execution started",
	})
}
