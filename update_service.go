package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
)

var Version = "dev"

type UpdateInfo struct {
	CurrentVersion  string `json:"currentVersion"`
	LatestVersion   string `json:"latestVersion"`
	UpdateAvailable bool   `json:"updateAvailable"`
	ReleaseURL      string `json:"releaseURL"`
}

type UpdateService struct {
	logger *Logger
	latest *selfupdate.Release
}

func (s *UpdateService) GetCurrentVersion() string {
	return Version
}

func (s *UpdateService) isBeta() bool {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return false
	}
	return strings.Contains(v.Prerelease(), "beta")
}

func (s *UpdateService) isStableRelease() bool {
	return Version != "dev" && !s.isBeta()
}

func (s *UpdateService) comparableVersion() string {
	if Version == "dev" {
		return "0.0.0"
	}
	return Version
}

func platformSuffix() string {
	suffix := runtime.GOOS + "-" + runtime.GOARCH
	if runtime.GOOS == "windows" {
		suffix += ".exe"
	}
	return suffix + "$"
}

func (s *UpdateService) newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create github source: %w", err)
	}

	cfg := selfupdate.Config{
		Source:  source,
		Filters: []string{"jsbsim-bridge-" + platformSuffix()},
	}
	// Only stable releases skip pre-releases; dev and beta builds see everything
	if !s.isStableRelease() {
		cfg.Prerelease = true
	}

	updater, err := selfupdate.NewUpdater(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}
	return updater, nil
}

func (s *UpdateService) CheckForUpdate() (*UpdateInfo, error) {
	updater, err := s.newUpdater()
	if err != nil {
		return nil, err
	}

	latest, found, err := updater.DetectLatest(context.Background(), selfupdate.ParseSlug("zenapo/jsbsim-bridge"))
	if err != nil {
		return nil, fmt.Errorf("failed to detect latest version: %w", err)
	}

	info := &UpdateInfo{
		CurrentVersion:  Version,
		UpdateAvailable: false,
	}

	if found {
		info.LatestVersion = latest.Version()
		info.ReleaseURL = latest.ReleaseNotes
		if latest.GreaterThan(s.comparableVersion()) {
			info.UpdateAvailable = true
			s.latest = latest
		}
	}

	s.logger.Info("update check complete", "current", Version, "latest", info.LatestVersion, "available", info.UpdateAvailable)
	return info, nil
}

func (s *UpdateService) ApplyUpdate() error {
	if s.latest == nil {
		return fmt.Errorf("no update available, run CheckForUpdate first")
	}

	updater, err := s.newUpdater()
	if err != nil {
		return err
	}

	if err := updater.UpdateTo(context.Background(), s.latest, ""); err != nil {
		return fmt.Errorf("failed to apply update: %w", err)
	}

	s.logger.Info("update applied", "version", s.latest.Version())
	return nil
}
