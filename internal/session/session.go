// Package session turns presentation intents into state machine transitions.
// A Session owns exactly one state.Machine plus the presentation-side query
// and keystroke debouncer.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"animesearch/internal/models"
	"animesearch/internal/state"

	"github.com/sirupsen/logrus"
)

const DefaultDebounce = 250 * time.Millisecond

// MediaRecorder is notified of every successfully fetched detail record.
type MediaRecorder interface {
	Upsert(ctx context.Context, rec models.AnimeRecord) error
}

type Options struct {
	Debounce time.Duration
	Recorder MediaRecorder
	Logger   *logrus.Logger
}

// View is the read model handed to presentations.
type View struct {
	ID          string               `json:"id"`
	Query       string               `json:"query"`
	Suggestions []models.AnimeRecord `json:"suggestions"`
	State       state.ViewState      `json:"state"`
}

type Session struct {
	ID string

	machine   *state.Machine
	debouncer *Debouncer
	recorder  MediaRecorder
	logger    *logrus.Logger

	// ctx bounds work started on the session's behalf (debounced searches,
	// the initial trending fetch). Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	query      string
	lastActive time.Time

	changes chan struct{}
}

func New(id string, machine *state.Machine, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:         id,
		machine:    machine,
		debouncer:  NewDebouncer(opts.Debounce),
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		ctx:        ctx,
		cancel:     cancel,
		lastActive: time.Now(),
		changes:    make(chan struct{}, 1),
	}
	machine.SetListener(s.signal)
	return s
}

// Start kicks off the initial trending fetch in the background.
func (s *Session) Start() {
	go func() {
		_ = s.machine.FetchTrending(s.ctx)
	}()
}

// Changes receives a value whenever the view may have changed. Bursts are
// coalesced into a single pending signal.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

func (s *Session) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// SetQuery records keystroke input. A non-blank query resets the search and
// schedules page 1 after the quiet period; a blank one drops any scheduled
// search so trending is shown again.
func (s *Session) SetQuery(text string) {
	s.mu.Lock()
	s.query = text
	s.lastActive = time.Now()
	s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		s.debouncer.Stop()
		s.signal()
		return
	}

	s.machine.ResetSearch()
	s.debouncer.Trigger(func() {
		if err := s.machine.StartSearch(s.ctx, text, 1); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"session": s.ID,
				"query":   text,
			}).Debug("Debounced search did not complete")
		}
	})
}

// Search runs page 1 of query immediately, bypassing the debouncer.
func (s *Session) Search(ctx context.Context, query string) error {
	s.debouncer.Stop()

	s.mu.Lock()
	s.query = query
	s.lastActive = time.Now()
	s.mu.Unlock()

	s.machine.ResetSearch()
	return s.machine.StartSearch(ctx, query, 1)
}

// LoadMore fetches the next page of the current query. It does nothing while
// a debounced page 1 is still waiting to run.
func (s *Session) LoadMore(ctx context.Context) (bool, error) {
	query := s.touch()
	if strings.TrimSpace(query) == "" || s.debouncer.Pending() {
		return false, nil
	}
	return s.machine.LoadMore(ctx, query)
}

func (s *Session) SelectSuggestion(title string) {
	s.SetQuery(title)
}

// NavigateToDetail fetches id into the selected slot and hands the record
// to the media recorder, if one is configured.
func (s *Session) NavigateToDetail(ctx context.Context, id int) error {
	s.touch()
	if err := s.machine.FetchDetail(ctx, id); err != nil {
		return err
	}

	if s.recorder != nil {
		if selected := s.machine.Snapshot().Selected; selected != nil {
			if err := s.recorder.Upsert(ctx, *selected); err != nil {
				s.logger.WithError(err).WithField("anime_id", id).Warn("Failed to record media")
			}
		}
	}
	return nil
}

func (s *Session) RefreshTrending(ctx context.Context) error {
	s.touch()
	return s.machine.FetchTrending(ctx)
}

// Reset clears the search; the query is left to presentation.
func (s *Session) Reset() {
	s.touch()
	s.debouncer.Stop()
	s.machine.ResetSearch()
}

func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Session) View() View {
	query := s.Query()
	snapshot := s.machine.Snapshot()
	return View{
		ID:          s.ID,
		Query:       query,
		Suggestions: state.Suggestions(query, snapshot),
		State:       snapshot,
	}
}

// IdleSince reports when the session last received an intent.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close stops pending work. The session must not be used afterwards.
func (s *Session) Close() {
	s.debouncer.Stop()
	s.cancel()
}

func (s *Session) touch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return s.query
}
