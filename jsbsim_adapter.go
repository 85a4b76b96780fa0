package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"
)

// JSBSimAdapter is the datagram link to the JSBSim bridge script. It owns two
// independent unidirectional UDP sockets (controls out, telemetry in) and the
// Python subprocess running the flight-dynamics model. Loss on either socket
// is tolerated: sends are retried every tick and receives time out quickly so
// the caller's tick never stalls.
type JSBSimAdapter struct {
	sendAddr    string
	recvPort    int
	recvTimeout time.Duration

	pythonBin   string
	scriptPath  string
	projectRoot string

	logger *Logger

	mu           sync.Mutex
	sendConn     *net.UDPConn
	recvConn     *net.UDPConn
	proc         *exec.Cmd
	simRunning   bool
	last         *VehicleState
	lastReceived time.Time
	stats        ChannelStats
}

// wireState mirrors the inbound datagram. Every facet is optional; an absent
// facet means "no update", not zero.
type wireState struct {
	Position *struct {
		Lat    float64  `json:"lat"`
		Lon    float64  `json:"lon"`
		Alt    float64  `json:"alt"`
		UnityX *float64 `json:"unity_x"`
		UnityY *float64 `json:"unity_y"`
		UnityZ *float64 `json:"unity_z"`
	} `json:"position"`
	Orientation *struct {
		Roll  float64 `json:"roll"`
		Pitch float64 `json:"pitch"`
		Yaw   float64 `json:"yaw"`
	} `json:"orientation"`
	Velocity *struct {
		U        float64 `json:"u"`
		V        float64 `json:"v"`
		W        float64 `json:"w"`
		Airspeed float64 `json:"airspeed"`
	} `json:"velocity"`
	AngularVelocity *struct {
		P float64 `json:"p"`
		Q float64 `json:"q"`
		R float64 `json:"r"`
	} `json:"angular_velocity"`
	Engine *struct {
		RPM    float64 `json:"rpm"`
		Thrust float64 `json:"thrust"`
	} `json:"engine"`
	Meta *struct {
		Model      string `json:"model"`
		Rotorcraft bool   `json:"rotorcraft"`
	} `json:"meta"`
}

func NewJSBSimAdapter(s Settings, logger *Logger) *JSBSimAdapter {
	return &JSBSimAdapter{
		sendAddr:    fmt.Sprintf("%s:%d", s.SimHost, s.ControlPort),
		recvPort:    s.TelemetryPort,
		recvTimeout: time.Duration(s.ReceiveTimeoutMs) * time.Millisecond,
		pythonBin:   s.PythonBin,
		scriptPath:  s.ScriptPath,
		projectRoot: s.ProjectRoot,
		logger:      logger,
	}
}

func (j *JSBSimAdapter) Name() string {
	return "JSBSim"
}

// Start opens both sockets and, when a bridge script is configured, launches
// the simulator subprocess. Any step failing closes whatever was already
// opened and reports the error to the caller.
func (j *JSBSimAdapter) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.scriptPath != "" {
		if _, err := os.Stat(j.scriptPath); err != nil {
			return fmt.Errorf("bridge script %s: %w", j.scriptPath, err)
		}
	}

	addr, err := net.ResolveUDPAddr("udp", j.sendAddr)
	if err != nil {
		return fmt.Errorf("resolve control addr: %w", err)
	}
	sendConn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("dial control socket: %w", err)
	}

	recvConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: j.recvPort})
	if err != nil {
		sendConn.Close()
		return fmt.Errorf("listen telemetry socket: %w", err)
	}

	if j.scriptPath != "" {
		if err := j.startProcess(); err != nil {
			sendConn.Close()
			recvConn.Close()
			return err
		}
	}

	j.sendConn = sendConn
	j.recvConn = recvConn
	j.logger.Info("transport started", "control", j.sendAddr, "telemetry_port", j.recvPort)
	return nil
}

// startProcess launches the Python bridge script and wires its output streams
// into the log sink. Must be called with mu held.
func (j *JSBSimAdapter) startProcess() error {
	cmd := exec.Command(j.pythonBin, j.scriptPath)
	cmd.Dir = j.projectRoot

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start simulator: %w", err)
	}

	go j.drainLines("stdout", stdout)
	go j.drainLines("stderr", stderr)
	go func() {
		err := cmd.Wait()
		j.mu.Lock()
		j.simRunning = false
		j.mu.Unlock()
		j.logger.Warn("simulator exited", "error", err)
	}()

	j.proc = cmd
	j.simRunning = true
	j.logger.Info("simulator started", "script", j.scriptPath, "pid", cmd.Process.Pid)
	return nil
}

// drainLines forwards one subprocess stream to the log sink. It performs no
// other side effects, so it never needs to synchronize with the tick loop.
func (j *JSBSimAdapter) drainLines(stream string, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		j.logger.SimLine(stream, sc.Text())
	}
}

// Stop tears everything down best-effort: the subprocess kill and each socket
// close are guarded independently so one failure never blocks the others.
func (j *JSBSimAdapter) Stop() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.proc != nil && j.proc.Process != nil {
		if err := j.proc.Process.Kill(); err != nil {
			j.logger.Warn("kill simulator", "error", err)
		}
		j.proc = nil
		j.simRunning = false
	}
	if j.sendConn != nil {
		if err := j.sendConn.Close(); err != nil {
			j.logger.Warn("close control socket", "error", err)
		}
		j.sendConn = nil
	}
	if j.recvConn != nil {
		if err := j.recvConn.Close(); err != nil {
			j.logger.Warn("close telemetry socket", "error", err)
		}
		j.recvConn = nil
	}
	return nil
}

// SendControls serializes the vector and writes one datagram. A failed write
// is a soft error: the counter records it and the next tick simply tries
// again, so the channel heals itself without retry state.
func (j *JSBSimAdapter) SendControls(v ControlVector) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.sendConn == nil {
		return errors.New("transport not started")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal controls: %w", err)
	}

	if _, err := j.sendConn.Write(payload); err != nil {
		j.stats.SendErrors++
		return fmt.Errorf("send controls: %w", err)
	}
	j.stats.MessagesSent++
	return nil
}

// TryReceive performs one bounded-wait read on the telemetry socket. Timeout
// is the expected common case and returns (nil, nil). A datagram that fails
// to parse is logged and dropped, keeping the previous snapshot as the
// last known good state.
func (j *JSBSimAdapter) TryReceive() (*VehicleState, error) {
	j.mu.Lock()
	conn := j.recvConn
	j.mu.Unlock()

	if conn == nil {
		return nil, errors.New("transport not started")
	}

	buf := make([]byte, 8192)
	conn.SetReadDeadline(time.Now().Add(j.recvTimeout))
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, nil
		}
		return nil, fmt.Errorf("receive telemetry: %w", err)
	}

	var wire wireState
	if err := json.Unmarshal(buf[:n], &wire); err != nil {
		j.mu.Lock()
		j.stats.ParseErrors++
		j.mu.Unlock()
		j.logger.Warn("unparseable telemetry datagram", "error", err, "bytes", n)
		return nil, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	st := mergeSnapshot(j.last, wire)
	j.last = st
	j.stats.MessagesReceived++
	j.lastReceived = time.Now()
	return st, nil
}

// mergeSnapshot builds the next snapshot from the previous one plus whatever
// facets the datagram carried. Absent facets keep their previous values.
func mergeSnapshot(prev *VehicleState, wire wireState) *VehicleState {
	st := &VehicleState{}
	if prev != nil {
		*st = *prev
	}

	if p := wire.Position; p != nil {
		st.Position = PositionState{
			Latitude:  p.Lat,
			Longitude: p.Lon,
			Altitude:  p.Alt,
		}
		if p.UnityX != nil && p.UnityY != nil && p.UnityZ != nil {
			st.Position.RenderX = *p.UnityX
			st.Position.RenderY = *p.UnityY
			st.Position.RenderZ = *p.UnityZ
			st.Position.HasRender = true
		}
	}
	if o := wire.Orientation; o != nil {
		st.Orientation = OrientationState{Roll: o.Roll, Pitch: o.Pitch, Yaw: o.Yaw}
	}
	if v := wire.Velocity; v != nil {
		st.Velocity = VelocityState{U: v.U, V: v.V, W: v.W, Airspeed: v.Airspeed}
	}
	if a := wire.AngularVelocity; a != nil {
		st.AngularVelocity = AngularVelocityState{P: a.P, Q: a.Q, R: a.R}
	}
	if e := wire.Engine; e != nil {
		st.Engine = EngineState{RPM: e.RPM, Thrust: e.Thrust}
	}
	if m := wire.Meta; m != nil {
		st.Meta = VehicleMeta{ModelName: m.Model, IsRotorcraft: m.Rotorcraft}
	}
	return st
}

func (j *JSBSimAdapter) Stats() ChannelStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stats
}

func (j *JSBSimAdapter) LastReceived() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastReceived
}

func (j *JSBSimAdapter) SimRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.simRunning
}
