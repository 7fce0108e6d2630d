package service

import (
	"sync"
	"time"
)

// State is the shared liveness snapshot: the runner marks readiness and the
// last processed candle, the feed marks websocket connectivity.
type State struct {
	mu          sync.RWMutex
	startedAt   time.Time
	ready       bool
	wsConnected bool
	lastCandle  time.Time
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) {
	s.mu.Lock()
	s.ready = v
	s.mu.Unlock()
}

func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *State) SetWSConnected(v bool) {
	s.mu.Lock()
	s.wsConnected = v
	s.mu.Unlock()
}

func (s *State) WSConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wsConnected
}

func (s *State) SetLastCandle(t time.Time) {
	s.mu.Lock()
	s.lastCandle = t
	s.mu.Unlock()
}

func (s *State) LastCandle() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCandle
}

func (s *State) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startedAt)
}
