package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger reports reachability of a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BufferSizer reports the number of pending outbox items.
type BufferSizer interface {
	Size() (int, error)
}

// Monitor periodically pings the task sources and the outbox.
type Monitor struct {
	targets map[string]Pinger
	buffer  BufferSizer
	timeout time.Duration

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(targets map[string]Pinger, buf BufferSizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		targets:  targets,
		buffer:   buf,
		timeout:  3 * time.Second,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every source answered its last ping.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

// SourceOnline reports the last known state of one source.
func (m *Monitor) SourceOnline(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Sources[name]
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := m.status
	status.Sources = make(map[string]bool, len(m.status.Sources))
	for k, v := range m.status.Sources {
		status.Sources[k] = v
	}
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh checks every dependency once.
func (m *Monitor) Refresh() {
	bufferOK, bufferSize := m.checkBuffer()
	status := Status{
		Sources:    make(map[string]bool, len(m.targets)),
		Buffer:     bufferOK,
		BufferSize: bufferSize,
		LastCheck:  time.Now(),
	}
	for name, target := range m.targets {
		status.Sources[name] = m.ping(name, target)
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	for name, online := range status.Sources {
		if was, seen := previous.Sources[name]; seen && was != online {
			m.logger.Info("source state changed", zap.String("source", name), zap.Bool("online", online))
		}
	}
}

func (m *Monitor) ping(name string, target Pinger) bool {
	if target == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := target.Ping(ctx); err != nil {
		m.logger.Debug("source ping failed", zap.String("source", name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
