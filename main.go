package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	checkUpdate := flag.Bool("check-update", false, "check for a newer release and exit")
	record := flag.Bool("record", false, "record telemetry to the local database")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	settingsService := NewSettingsService()
	settings := settingsService.GetSettings()

	logger := NewLogger(settings.LogLevel)
	defer logger.Close()

	if *checkUpdate {
		upd := &UpdateService{logger: logger}
		info, err := upd.CheckForUpdate()
		if err != nil {
			log.Fatal("update check failed:", err)
		}
		if info.UpdateAvailable {
			fmt.Printf("update available: %s (current %s)\n", info.LatestVersion, info.CurrentVersion)
		} else {
			fmt.Printf("up to date (%s)\n", info.CurrentVersion)
		}
		return
	}

	si, err := NewSingleInstance()
	if err != nil {
		log.Fatal(err)
	}
	defer si.Close()

	db, err := initDB()
	if err != nil {
		log.Fatal("failed to init database:", err)
	}
	defer db.Close()

	store := NewStateStore()
	sampler := NewInputSampler(settings.ThrottleRate, settings.Sensitivity, settings.SmoothingGain)
	transport := NewJSBSimAdapter(settings, logger)
	resolver := CoordinateResolver{
		OriginLat:   settings.OriginLat,
		OriginLon:   settings.OriginLon,
		OriginAltFt: settings.OriginAltFt,
	}
	bridge := NewBridgeService(sampler, transport, store, resolver,
		time.Duration(settings.GracePeriodSec)*time.Second, logger)
	recorder := NewTelemetryRecorder(db, store, logger)

	if err := bridge.Start(); err != nil {
		logger.Error("bridge disabled", "error", err)
		os.Exit(1)
	}

	if *record {
		if err := recorder.StartRecording(); err != nil {
			logger.Warn("recording not started", "error", err)
		}
	}

	// Standalone relay mode: control targets come in through the sampler's
	// programmatic setters (an embedding front end feeds key state instead),
	// so each tick samples an empty input snapshot.
	ticker := time.NewTicker(time.Second / time.Duration(settings.TickRateHz))
	defer ticker.Stop()
	statusTicker := time.NewTicker(5 * time.Second)
	defer statusTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	last := time.Now()
	for running := true; running; {
		select {
		case <-sig:
			running = false
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			bridge.Tick(InputState{}, dt)
		case <-statusTicker.C:
			st := bridge.Status()
			logger.Info("bridge status",
				"state", st.State.String(),
				"connected", st.Connected,
				"degraded", st.Degraded,
				"sim_running", st.SimulatorRunning,
				"sent", st.Stats.MessagesSent,
				"received", st.Stats.MessagesReceived,
				"last_message_age", st.LastMessageAge)
		}
	}

	recorder.StopRecording()
	bridge.Stop()
}
