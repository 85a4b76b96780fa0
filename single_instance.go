package main

import (
	"fmt"
	"net"
	"sync"
)

// Two bridges would fight over the control/telemetry UDP ports, so a second
// invocation refuses to start and pokes the running one instead.
const singleInstanceAddr = "127.0.0.1:49877"

type SingleInstance struct {
	listener net.Listener
	mu       sync.Mutex
	onPing   func()
}

func NewSingleInstance() (*SingleInstance, error) {
	si := &SingleInstance{}

	listener, err := net.Listen("tcp", singleInstanceAddr)
	if err != nil {
		// Another instance is running. Let it know someone tried to start
		conn, dialErr := net.Dial("tcp", singleInstanceAddr)
		if dialErr == nil {
			conn.Write([]byte("ping"))
			conn.Close()
		}
		return nil, fmt.Errorf("another instance is already running")
	}

	si.listener = listener
	go si.listenLoop()
	return si, nil
}

func (si *SingleInstance) SetOnPing(fn func()) {
	si.mu.Lock()
	si.onPing = fn
	si.mu.Unlock()
}

func (si *SingleInstance) Close() {
	si.listener.Close()
}

func (si *SingleInstance) listenLoop() {
	for {
		conn, err := si.listener.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 4)
		conn.Read(buf)
		conn.Close()

		if string(buf) == "ping" {
			si.mu.Lock()
			fn := si.onPing
			si.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	}
}
