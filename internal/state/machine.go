// Package state owns the per-session search view state and the three request
// lifecycles (search, trending, detail) that are allowed to change it.
package state

import (
	"context"
	"errors"
	"strings"
	"sync"

	"animesearch/internal/models"
	"animesearch/internal/services"

	"github.com/sirupsen/logrus"
)

// User-visible failure messages, one per operation kind.
const (
	ErrMsgSearch   = "failed to fetch anime"
	ErrMsgTrending = "failed to fetch trending anime"
	ErrMsgDetail   = "failed to fetch anime details"
)

const defaultTrendingLimit = 10

// Catalog is the subset of the catalog client the machine depends on.
type Catalog interface {
	Search(ctx context.Context, query string, page int) (*models.SearchPage, error)
	FetchByID(ctx context.Context, id int) (*models.AnimeRecord, error)
	FetchTop(ctx context.Context, limit int) ([]models.AnimeRecord, error)
}

// ViewState is what presentation reads. Error is empty when absent.
type ViewState struct {
	SearchResults []models.AnimeRecord `json:"search_results"`
	Trending      []models.AnimeRecord `json:"trending"`
	Selected      *models.AnimeRecord  `json:"selected"`
	CurrentPage   int                  `json:"current_page"`
	HasMore       bool                 `json:"has_more"`
	Loading       bool                 `json:"loading"`
	Error         string               `json:"error,omitempty"`
}

func initialState() ViewState {
	return ViewState{
		SearchResults: []models.AnimeRecord{},
		Trending:      []models.AnimeRecord{},
		CurrentPage:   1,
		HasMore:       true,
	}
}

type Config struct {
	TrendingLimit int
	Logger        *logrus.Logger
}

// Machine serializes every transition behind one mutex. Only the most
// recently started search may commit; older ones are detected through the
// generation counter and dropped.
type Machine struct {
	catalog       Catalog
	logger        *logrus.Logger
	trendingLimit int

	mu    sync.Mutex
	state ViewState

	searchGen        uint64
	searchInFlight   bool
	cancelSearch     context.CancelFunc
	trendingInFlight int
	detailInFlight   int

	listener func()
}

func NewMachine(catalog Catalog, config Config) *Machine {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.TrendingLimit <= 0 {
		config.TrendingLimit = defaultTrendingLimit
	}

	return &Machine{
		catalog:       catalog,
		logger:        config.Logger,
		trendingLimit: config.TrendingLimit,
		state:         initialState(),
	}
}

// SetListener registers fn to be called after every committed transition.
// fn runs outside the machine lock and must not block for long.
func (m *Machine) SetListener(fn func()) {
	m.mu.Lock()
	m.listener = fn
	m.mu.Unlock()
}

// Snapshot returns a copy that is safe to read while requests are running.
func (m *Machine) Snapshot() ViewState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() ViewState {
	s := m.state
	s.SearchResults = append([]models.AnimeRecord(nil), m.state.SearchResults...)
	s.Trending = append([]models.AnimeRecord(nil), m.state.Trending...)
	if s.SearchResults == nil {
		s.SearchResults = []models.AnimeRecord{}
	}
	if s.Trending == nil {
		s.Trending = []models.AnimeRecord{}
	}
	if m.state.Selected != nil {
		selected := *m.state.Selected
		s.Selected = &selected
	}
	return s
}

// StartSearch supersedes any outstanding search and fetches one page. Page 1
// replaces the result list, later pages append to it. The returned error is
// the request outcome; failures are also reflected in the view state.
func (m *Machine) StartSearch(ctx context.Context, query string, page int) error {
	if page < 1 {
		page = 1
	}

	m.mu.Lock()
	if m.cancelSearch != nil {
		m.cancelSearch()
	}
	m.searchGen++
	gen := m.searchGen
	ctx, cancel := context.WithCancel(ctx)
	m.cancelSearch = cancel
	m.searchInFlight = true
	m.enterPendingLocked()
	m.mu.Unlock()
	m.notify()

	defer cancel()

	result, err := m.catalog.Search(ctx, query, page)

	m.mu.Lock()
	if gen != m.searchGen {
		m.mu.Unlock()
		m.logger.WithFields(logrus.Fields{
			"query": query,
			"page":  page,
		}).Debug("Discarding superseded search result")
		return services.ErrRequestCancelled
	}

	m.searchInFlight = false
	m.cancelSearch = nil

	switch {
	case err == nil:
		if page == 1 {
			m.state.SearchResults = append([]models.AnimeRecord{}, result.Records...)
		} else {
			m.state.SearchResults = append(m.state.SearchResults, result.Records...)
		}
		m.state.CurrentPage = page
		m.state.HasMore = result.HasMore
	case errors.Is(err, services.ErrRequestCancelled):
		// cancellation is not a user-visible failure
	default:
		m.state.Error = ErrMsgSearch
		m.logger.WithError(err).WithFields(logrus.Fields{
			"query": query,
			"page":  page,
		}).Error("Failed to search anime")
	}
	m.settleLocked()
	m.mu.Unlock()
	m.notify()

	return err
}

// LoadMore requests the next page of query. It reports whether a request
// was issued: nothing happens while loading or once the last page is known.
func (m *Machine) LoadMore(ctx context.Context, query string) (bool, error) {
	m.mu.Lock()
	if m.state.Loading || !m.state.HasMore {
		m.mu.Unlock()
		return false, nil
	}
	next := m.state.CurrentPage + 1
	m.mu.Unlock()

	return true, m.StartSearch(ctx, query, next)
}

// ResetSearch clears search results and pagination. Trending and selected
// are left alone. An outstanding search is invalidated so that it cannot
// repopulate the list afterwards.
func (m *Machine) ResetSearch() {
	m.mu.Lock()
	if m.cancelSearch != nil {
		m.cancelSearch()
		m.cancelSearch = nil
	}
	if m.searchInFlight {
		m.searchGen++
		m.searchInFlight = false
	}
	m.state.SearchResults = []models.AnimeRecord{}
	m.state.CurrentPage = 1
	m.state.HasMore = true
	m.state.Error = ""
	m.settleLocked()
	m.mu.Unlock()
	m.notify()
}

// FetchTrending replaces the trending list wholesale. Concurrent calls are
// not superseded; the last one to finish wins.
func (m *Machine) FetchTrending(ctx context.Context) error {
	m.mu.Lock()
	m.trendingInFlight++
	m.enterPendingLocked()
	m.mu.Unlock()
	m.notify()

	records, err := m.catalog.FetchTop(ctx, m.trendingLimit)

	m.mu.Lock()
	m.trendingInFlight--
	if err == nil {
		m.state.Trending = append([]models.AnimeRecord{}, records...)
	} else {
		m.state.Error = ErrMsgTrending
		m.logger.WithError(err).Error("Failed to fetch trending anime")
	}
	m.settleLocked()
	m.mu.Unlock()
	m.notify()

	return err
}

// FetchDetail loads one record into Selected. On failure Selected keeps its
// previous value.
func (m *Machine) FetchDetail(ctx context.Context, id int) error {
	m.mu.Lock()
	m.detailInFlight++
	m.enterPendingLocked()
	m.mu.Unlock()
	m.notify()

	record, err := m.catalog.FetchByID(ctx, id)

	m.mu.Lock()
	m.detailInFlight--
	if err == nil {
		selected := *record
		m.state.Selected = &selected
	} else {
		m.state.Error = ErrMsgDetail
		m.logger.WithError(err).WithField("anime_id", id).Error("Failed to fetch anime details")
	}
	m.settleLocked()
	m.mu.Unlock()
	m.notify()

	return err
}

func (m *Machine) enterPendingLocked() {
	m.state.Loading = true
	m.state.Error = ""
}

// settleLocked recomputes Loading from the outstanding request counts.
func (m *Machine) settleLocked() {
	m.state.Loading = m.searchInFlight || m.trendingInFlight > 0 || m.detailInFlight > 0
}

func (m *Machine) notify() {
	m.mu.Lock()
	fn := m.listener
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Suggestions is the list presentation shows under the search box: trending
// titles while the query is blank, search results otherwise.
func Suggestions(query string, s ViewState) []models.AnimeRecord {
	if strings.TrimSpace(query) == "" {
		return s.Trending
	}
	return s.SearchResults
}
