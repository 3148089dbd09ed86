package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server         ServerSettings         `json:"server"`
	Log            LogConfig              `json:"log"`
	Database       DatabaseSettings       `json:"database"`
	Jellyfin       JellyfinSettings       `json:"jellyfin"`
	Metadata       MetadataSettings       `json:"metadata"`
	Availability   AvailabilitySettings   `json:"availability"`
	Lists          ListSettings           `json:"lists"`
	ScheduledTasks ScheduledTasksSettings `json:"scheduledTasks,omitempty"`
}

type ServerSettings struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	APIKey string `json:"apiKey"`
}

// LogConfig controls the rotating log file and the minimum level.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DatabaseSettings points at the SQLite file holding watchlists and lists.
type DatabaseSettings struct {
	Path string `json:"path"`
}

// JellyfinSettings describes the media server availability is checked against.
type JellyfinSettings struct {
	URL        string `json:"url"`
	APIKey     string `json:"apiKey"`
	UserID     string `json:"userId"`
	WebBaseURL string `json:"webBaseUrl"` // optional public URL used for play links; defaults to URL
}

type MetadataSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	Language   string `json:"language"`
}

// AvailabilitySettings tunes the reconciliation sweep.
type AvailabilitySettings struct {
	StalenessHours             int   `json:"stalenessHours"`
	PacingMillis               int   `json:"pacingMillis"`
	ProbeTimeoutSeconds        int   `json:"probeTimeoutSeconds"`
	ConnectivityTimeoutSeconds int   `json:"connectivityTimeoutSeconds"`
	ProbeConcurrency           int   `json:"probeConcurrency"`  // 1 keeps probes strictly sequential
	RetryFailedSooner          bool  `json:"retryFailedSooner"` // leave failed probes unstamped so the next cycle retries them
	AutoTrigger                *bool `json:"autoTrigger,omitempty"`
}

// StalenessThreshold returns the recheck window for watchlist entries.
func (a AvailabilitySettings) StalenessThreshold() time.Duration {
	return time.Duration(a.StalenessHours) * time.Hour
}

func (a AvailabilitySettings) Pacing() time.Duration {
	return time.Duration(a.PacingMillis) * time.Millisecond
}

func (a AvailabilitySettings) ProbeTimeout() time.Duration {
	return time.Duration(a.ProbeTimeoutSeconds) * time.Second
}

func (a AvailabilitySettings) ConnectivityTimeout() time.Duration {
	return time.Duration(a.ConnectivityTimeoutSeconds) * time.Second
}

// AutoTriggerEnabled reports whether loading a watchlist may start a background sweep.
func (a AvailabilitySettings) AutoTriggerEnabled() bool {
	return a.AutoTrigger == nil || *a.AutoTrigger
}

// ListSettings configures curated external lists (MDBList).
type ListSettings struct {
	MDBListAPIKey  string `json:"mdblistApiKey"`
	StalenessHours int    `json:"stalenessHours"`
}

func (l ListSettings) StalenessThreshold() time.Duration {
	return time.Duration(l.StalenessHours) * time.Hour
}

// ScheduledTaskType defines the type of scheduled task
type ScheduledTaskType string

const (
	ScheduledTaskTypeAvailabilityRefresh ScheduledTaskType = "availability_refresh"
	ScheduledTaskTypeListSync            ScheduledTaskType = "list_sync"
)

// ScheduledTaskFrequency defines how often a task runs
type ScheduledTaskFrequency string

const (
	ScheduledTaskFrequency1Min    ScheduledTaskFrequency = "1min"
	ScheduledTaskFrequency5Min    ScheduledTaskFrequency = "5min"
	ScheduledTaskFrequency15Min   ScheduledTaskFrequency = "15min"
	ScheduledTaskFrequency30Min   ScheduledTaskFrequency = "30min"
	ScheduledTaskFrequencyHourly  ScheduledTaskFrequency = "hourly"
	ScheduledTaskFrequency6Hours  ScheduledTaskFrequency = "6hours"
	ScheduledTaskFrequency12Hours ScheduledTaskFrequency = "12hours"
	ScheduledTaskFrequencyDaily   ScheduledTaskFrequency = "daily"
)

// ScheduledTaskStatus represents the last run status
type ScheduledTaskStatus string

const (
	ScheduledTaskStatusPending ScheduledTaskStatus = "pending"
	ScheduledTaskStatusRunning ScheduledTaskStatus = "running"
	ScheduledTaskStatusSuccess ScheduledTaskStatus = "success"
	ScheduledTaskStatusError   ScheduledTaskStatus = "error"
)

// ScheduledTask represents a single scheduled task configuration
type ScheduledTask struct {
	ID             string                 `json:"id"`
	Type           ScheduledTaskType      `json:"type"`
	Name           string                 `json:"name"`
	Enabled        bool                   `json:"enabled"`
	Frequency      ScheduledTaskFrequency `json:"frequency"`
	Config         map[string]string      `json:"config"` // Task-specific config (e.g., userId)
	LastRunAt      *time.Time             `json:"lastRunAt,omitempty"`
	LastStatus     ScheduledTaskStatus    `json:"lastStatus"`
	LastError      string                 `json:"lastError,omitempty"`
	ItemsProcessed int                    `json:"itemsProcessed,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// ScheduledTasksSettings contains all scheduled task configurations
type ScheduledTasksSettings struct {
	Tasks                []ScheduledTask `json:"tasks"`
	CheckIntervalSeconds int             `json:"checkIntervalSeconds"` // How often scheduler checks for due tasks (default: 60)
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:   ServerSettings{Host: "0.0.0.0", Port: 7788},
		Database: DatabaseSettings{Path: "cache/reelcheck.db"},
		Metadata: MetadataSettings{Language: "en-US"},
		Availability: AvailabilitySettings{
			StalenessHours:             24,
			PacingMillis:               200,
			ProbeTimeoutSeconds:        10,
			ConnectivityTimeoutSeconds: 5,
			ProbeConcurrency:           1,
		},
		Lists: ListSettings{StalenessHours: 24},
		Log: LogConfig{
			File:       "cache/logs/reelcheck.log",
			Level:      "info",
			MaxSize:    50,   // 50 MB per file
			MaxBackups: 3,    // keep 3 old files
			MaxAge:     7,    // 7 days
			Compress:   true, // compress old files
		},
		ScheduledTasks: ScheduledTasksSettings{
			Tasks:                []ScheduledTask{},
			CheckIntervalSeconds: 60, // Check every 60 seconds
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	fs   afero.Fs
	path string
}

// NewManager returns a manager backed by the OS filesystem.
func NewManager(configPath string) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), configPath)
}

// NewManagerWithFs returns a manager reading and writing through fs.
func NewManagerWithFs(fsys afero.Fs, configPath string) *Manager {
	return &Manager{fs: fsys, path: configPath}
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return m.fs.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := m.fs.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		// create with defaults
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := m.fs.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	backfill(&s)
	return s, nil
}

// backfill applies defaults for settings introduced after the file was written.
func backfill(s *Settings) {
	defaults := DefaultSettings()

	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = defaults.Server.Host
	}
	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}

	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = defaults.Database.Path
	}

	if strings.TrimSpace(s.Metadata.Language) == "" {
		s.Metadata.Language = defaults.Metadata.Language
	}

	// Backfill Availability settings
	if s.Availability.StalenessHours <= 0 {
		s.Availability.StalenessHours = defaults.Availability.StalenessHours
	}
	if s.Availability.PacingMillis <= 0 {
		s.Availability.PacingMillis = defaults.Availability.PacingMillis
	}
	if s.Availability.ProbeTimeoutSeconds <= 0 {
		s.Availability.ProbeTimeoutSeconds = defaults.Availability.ProbeTimeoutSeconds
	}
	if s.Availability.ConnectivityTimeoutSeconds <= 0 {
		s.Availability.ConnectivityTimeoutSeconds = defaults.Availability.ConnectivityTimeoutSeconds
	}
	if s.Availability.ProbeConcurrency <= 0 {
		s.Availability.ProbeConcurrency = defaults.Availability.ProbeConcurrency
	}

	if s.Lists.StalenessHours <= 0 {
		s.Lists.StalenessHours = defaults.Lists.StalenessHours
	}

	// Backfill Log settings
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = defaults.Log.File
	}
	if strings.TrimSpace(s.Log.Level) == "" {
		s.Log.Level = defaults.Log.Level
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = defaults.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = defaults.Log.MaxAge
	}

	// Backfill ScheduledTasks settings
	if s.ScheduledTasks.CheckIntervalSeconds == 0 {
		s.ScheduledTasks.CheckIntervalSeconds = defaults.ScheduledTasks.CheckIntervalSeconds
	}
	if s.ScheduledTasks.Tasks == nil {
		s.ScheduledTasks.Tasks = []ScheduledTask{}
	}
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := m.fs.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = m.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = m.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = m.fs.Remove(tmp)
		return err
	}
	return m.fs.Rename(tmp, m.path)
}
