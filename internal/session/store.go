package session

import (
	"context"
	"sync"
	"time"

	"animesearch/internal/state"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = 5 * time.Minute
)

type StoreConfig struct {
	Catalog       state.Catalog
	TrendingLimit int
	Debounce      time.Duration
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Recorder      MediaRecorder
	Logger        *logrus.Logger
}

// Store keeps the live sessions. Each session gets its own machine; nothing
// is shared between sessions except the catalog client.
type Store struct {
	config StoreConfig
	logger *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(config StoreConfig) *Store {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaultIdleTTL
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaultSweepInterval
	}

	return &Store{
		config:   config,
		logger:   config.Logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with a random id.
func (st *Store) Create() *Session {
	return st.GetOrCreate(uuid.NewString())
}

// GetOrCreate returns the session for id, starting one when needed.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	if s, ok := st.sessions[id]; ok {
		st.mu.Unlock()
		return s
	}

	machine := state.NewMachine(st.config.Catalog, state.Config{
		TrendingLimit: st.config.TrendingLimit,
		Logger:        st.logger,
	})
	s := New(id, machine, Options{
		Debounce: st.config.Debounce,
		Recorder: st.config.Recorder,
		Logger:   st.logger,
	})
	st.sessions[id] = s
	st.mu.Unlock()

	st.logger.WithField("session", id).Info("Session started")
	s.Start()
	return s
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete ends a session. It reports whether the session existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Close()
		st.logger.WithField("session", id).Info("Session ended")
	}
	return ok
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep ends every session idle since before now minus the idle TTL and
// returns how many were removed.
func (st *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-st.config.IdleTTL)

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.IdleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// Run sweeps idle sessions on every tick until ctx is done, then closes all
// remaining sessions.
func (st *Store) Run(ctx context.Context) {
	st.logger.Info("Starting session sweeper...")

	ticker := time.NewTicker(st.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			st.closeAll()
			st.logger.Info("Session sweeper stopped")
			return
		case now := <-ticker.C:
			if n := st.Sweep(now); n > 0 {
				st.logger.WithFields(logrus.Fields{
					"expired":   n,
					"remaining": st.Len(),
				}).Info("Swept idle sessions")
			}
		}
	}
}

func (st *Store) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
