package chat

import (
	"context"
	"sync"
	"time"
)

// Heartbeat states. StateDead is terminal.
type State int

const (
	StateAlive State = iota
	StateAwaitingPong
	StateDead
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAlive:
		return "ALIVE"
	case StateAwaitingPong:
		return "AWAITING_PONG"
	case StateDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// Pinger sends one liveness probe to a connection.
type Pinger interface {
	Ping() error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func() error

// Ping calls the function.
func (f PingerFunc) Ping() error { return f() }

// Monitor probes a single connection on a fixed interval. After each ping it
// transitions ALIVE -> AWAITING_PONG and arms a death timer; a pong received
// before the timer fires cancels it and returns the state to ALIVE. If the
// timer fires first the state becomes DEAD and onDead runs exactly once.
//
// Each connection has its own monitor; one connection's probe failure never
// affects another's.
type Monitor struct {
	interval time.Duration
	timeout  time.Duration
	pinger   Pinger
	onDead   func()

	mu         sync.Mutex
	state      State
	deathTimer *time.Timer
	stopped    bool
}

// NewMonitor creates a heartbeat monitor in StateAlive. Run starts probing.
func NewMonitor(interval, timeout time.Duration, pinger Pinger, onDead func()) *Monitor {
	return &Monitor{
		interval: interval,
		timeout:  timeout,
		pinger:   pinger,
		onDead:   onDead,
		state:    StateAlive,
	}
}

// State returns the current heartbeat state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run probes on the configured interval until ctx is cancelled or the
// connection is declared dead.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer m.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.probe() {
				return
			}
		}
	}
}

// probe sends one ping and arms the death timer. Returns false once the
// monitor has no more work to do.
func (m *Monitor) probe() bool {
	m.mu.Lock()
	if m.stopped || m.state == StateDead {
		m.mu.Unlock()
		return false
	}
	if m.state == StateAwaitingPong {
		// Death timer already armed; let it decide.
		m.mu.Unlock()
		return true
	}
	m.state = StateAwaitingPong
	m.deathTimer = time.AfterFunc(m.timeout, m.expire)
	pinger := m.pinger
	m.mu.Unlock()

	if err := pinger.Ping(); err != nil {
		// The transport is already unwritable; no point waiting for the timeout.
		m.expire()
		return false
	}
	return true
}

// Pong records a liveness response, cancelling the pending death timer.
func (m *Monitor) Pong() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAwaitingPong {
		return
	}
	if m.deathTimer != nil {
		m.deathTimer.Stop()
		m.deathTimer = nil
	}
	m.state = StateAlive
}

// expire declares the connection dead and fires onDead once.
func (m *Monitor) expire() {
	m.mu.Lock()
	if m.stopped || m.state != StateAwaitingPong {
		m.mu.Unlock()
		return
	}
	m.state = StateDead
	onDead := m.onDead
	m.mu.Unlock()

	if onDead != nil {
		onDead()
	}
}

// Stop cancels any pending timer without firing onDead. Used on clean
// shutdown; a monitor already in StateDead stays dead.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.deathTimer != nil {
		m.deathTimer.Stop()
		m.deathTimer = nil
	}
}
