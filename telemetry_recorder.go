package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// TelemetryRecorder samples the latest vehicle snapshot once a second into
// sqlite, for later CSV export. Recording is independent of the tick loop: a
// missing snapshot just skips the sample.
type TelemetryRecorder struct {
	db     *sql.DB
	store  *StateStore
	logger *Logger

	mu        sync.Mutex
	recording bool
	stopCh    chan struct{}
	startTime time.Time
	dataCount int
}

func NewTelemetryRecorder(db *sql.DB, store *StateStore, logger *Logger) *TelemetryRecorder {
	return &TelemetryRecorder{
		db:     db,
		store:  store,
		logger: logger,
	}
}

func (t *TelemetryRecorder) StartRecording() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.recording {
		return fmt.Errorf("already recording")
	}

	t.recording = true
	t.stopCh = make(chan struct{})
	t.startTime = time.Now()
	t.dataCount = 0

	go t.recordLoop(t.stopCh)
	return nil
}

func (t *TelemetryRecorder) StopRecording() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.recording {
		return
	}
	t.recording = false
	close(t.stopCh)
}

func (t *TelemetryRecorder) IsRecording() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recording
}

func (t *TelemetryRecorder) GetRecordingInfo() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	duration := 0.0
	if t.recording {
		duration = time.Since(t.startTime).Seconds()
	}

	return map[string]interface{}{
		"recording": t.recording,
		"duration":  duration,
		"dataCount": t.dataCount,
	}
}

func (t *TelemetryRecorder) ExportCSV(filePath string) error {
	rows, err := t.db.Query(`SELECT timestamp, latitude, longitude, altitude, roll, pitch, yaw, airspeed, engine_rpm FROM telemetry ORDER BY id`)
	if err != nil {
		return fmt.Errorf("query data: %w", err)
	}
	defer rows.Close()

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	w.Write([]string{"timestamp", "latitude", "longitude", "altitude", "roll", "pitch", "yaw", "airspeed", "engine_rpm"})

	for rows.Next() {
		var ts string
		var lat, lon, alt, roll, pitch, yaw, aspd, rpm float64
		if err := rows.Scan(&ts, &lat, &lon, &alt, &roll, &pitch, &yaw, &aspd, &rpm); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		w.Write([]string{
			ts,
			strconv.FormatFloat(lat, 'f', 6, 64),
			strconv.FormatFloat(lon, 'f', 6, 64),
			strconv.FormatFloat(alt, 'f', 2, 64),
			strconv.FormatFloat(roll, 'f', 4, 64),
			strconv.FormatFloat(pitch, 'f', 4, 64),
			strconv.FormatFloat(yaw, 'f', 4, 64),
			strconv.FormatFloat(aspd, 'f', 2, 64),
			strconv.FormatFloat(rpm, 'f', 1, 64),
		})
	}

	// Purge after export
	if _, err := t.db.Exec(`DELETE FROM telemetry`); err != nil {
		return fmt.Errorf("purge db: %w", err)
	}

	t.mu.Lock()
	t.dataCount = 0
	t.mu.Unlock()

	return nil
}

func (t *TelemetryRecorder) recordLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			st := t.store.State()
			if st == nil {
				continue
			}

			_, err := t.db.Exec(
				`INSERT INTO telemetry (latitude, longitude, altitude, roll, pitch, yaw, airspeed, engine_rpm) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				st.Position.Latitude, st.Position.Longitude, st.Position.Altitude,
				st.Orientation.Roll, st.Orientation.Pitch, st.Orientation.Yaw,
				st.Velocity.Airspeed, st.Engine.RPM,
			)
			if err != nil {
				t.logger.Error("failed to insert telemetry", "error", err)
				continue
			}

			t.mu.Lock()
			t.dataCount++
			t.mu.Unlock()
		}
	}
}
