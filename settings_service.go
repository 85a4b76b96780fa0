package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Settings struct {
	SimHost          string  `json:"simHost"`
	ControlPort      int     `json:"controlPort"`   // bridge -> simulator
	TelemetryPort    int     `json:"telemetryPort"` // simulator -> bridge
	PythonBin        string  `json:"pythonBin"`
	ScriptPath       string  `json:"scriptPath"` // empty: attach to an externally started simulator
	ProjectRoot      string  `json:"projectRoot"`
	TickRateHz       int     `json:"tickRateHz"`
	ReceiveTimeoutMs int     `json:"receiveTimeoutMs"`
	GracePeriodSec   int     `json:"gracePeriodSec"`
	ThrottleRate     float64 `json:"throttleRate"`
	Sensitivity      float64 `json:"sensitivity"`
	SmoothingGain    float64 `json:"smoothingGain"`
	OriginLat        float64 `json:"originLat"`
	OriginLon        float64 `json:"originLon"`
	OriginAltFt      float64 `json:"originAltFt"`
	LogLevel         string  `json:"logLevel"`
}

type SettingsService struct {
	mu       sync.RWMutex
	settings Settings
	filePath string
}

func NewSettingsService() *SettingsService {
	configDir, _ := os.UserConfigDir()
	fp := filepath.Join(configDir, "jsbsim-bridge", "settings.json")

	s := &SettingsService{
		filePath: fp,
		settings: defaultSettings(),
	}
	s.load()
	return s
}

func defaultSettings() Settings {
	return Settings{
		SimHost:          "127.0.0.1",
		ControlPort:      5555,
		TelemetryPort:    5556,
		PythonBin:        "python3",
		ScriptPath:       "",
		ProjectRoot:      ".",
		TickRateHz:       60,
		ReceiveTimeoutMs: 20,
		GracePeriodSec:   5,
		ThrottleRate:     0.5,
		Sensitivity:      1.0,
		SmoothingGain:    5.0,
		OriginLat:        37.618805,
		OriginLon:        -122.375416,
		OriginAltFt:      0,
		LogLevel:         "info",
	}
}

func (s *SettingsService) GetSettings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsService) UpdateSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.save()
}

func (s *SettingsService) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return
	}
	json.Unmarshal(data, &s.settings)
}

func (s *SettingsService) save() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0o644)
}
