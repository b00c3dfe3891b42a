package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, cache ResponseCache) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return NewClientWithConfig(&ClientConfig{
		BaseURL:  server.URL,
		PageSize: 2,
		Logger:   log,
		Cache:    cache,
	})
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func TestClient_Search(t *testing.T) {
	t.Run("sends query and maps pagination", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/anime", r.URL.Path)
			assert.Equal(t, "naruto", r.URL.Query().Get("q"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
			writeJSON(w, `{
				"data": [{"mal_id": 20, "title": "Naruto", "type": "TV"}, {"mal_id": 1735, "title": "Naruto: Shippuuden"}],
				"pagination": {"has_next_page": true, "current_page": 2}
			}`)
		}, nil)

		page, err := client.Search(context.Background(), "naruto", 2)
		require.NoError(t, err)

		assert.Equal(t, 2, page.Page)
		assert.True(t, page.HasMore)
		require.Len(t, page.Records, 2)
		assert.Equal(t, 20, page.Records[0].ID)
		assert.Equal(t, "Unknown", page.Records[1].MediaType)
	})

	t.Run("empty page has no more", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"data": [], "pagination": {"has_next_page": true}}`)
		}, nil)

		page, err := client.Search(context.Background(), "zzzz", 1)
		require.NoError(t, err)
		assert.False(t, page.HasMore)
		assert.NotNil(t, page.Records)
		assert.Empty(t, page.Records)
	})

	t.Run("last page has no more", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"data": [{"mal_id": 1, "title": "A"}], "pagination": {"has_next_page": false}}`)
		}, nil)

		page, err := client.Search(context.Background(), "a", 3)
		require.NoError(t, err)
		assert.False(t, page.HasMore)
	})

	t.Run("blank query is rejected locally", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}, nil)

		_, err := client.Search(context.Background(), "   ", 1)
		assert.ErrorIs(t, err, ErrEmptyQuery)
		assert.Zero(t, calls.Load())
	})

	t.Run("server error is a failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, nil)

		_, err := client.Search(context.Background(), "a", 1)
		assert.ErrorIs(t, err, ErrRequestFailed)
	})

	t.Run("rate limited response is a failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, nil)

		_, err := client.Search(context.Background(), "a", 1)
		assert.ErrorIs(t, err, ErrRequestFailed)
	})

	t.Run("malformed body is a failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"data": [`)
		}, nil)

		_, err := client.Search(context.Background(), "a", 1)
		assert.ErrorIs(t, err, ErrRequestFailed)
	})
}

func TestClient_Cancellation(t *testing.T) {
	t.Run("cancelled before sending", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Search(ctx, "a", 1)
		assert.ErrorIs(t, err, ErrRequestCancelled)
		assert.Zero(t, calls.Load())
	})

	t.Run("cancelled in flight", func(t *testing.T) {
		started := make(chan struct{})
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		_, err := client.FetchByID(ctx, 1)
		assert.ErrorIs(t, err, ErrRequestCancelled)
	})

	t.Run("deadline is a failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.FetchTop(ctx, 5)
		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.NotErrorIs(t, err, ErrRequestCancelled)
	})
}

func TestClient_FetchByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/anime/5114", r.URL.Path)
			writeJSON(w, `{"data": {"mal_id": 5114, "title": "Fullmetal Alchemist: Brotherhood", "episodes": 64, "score": 9.1}}`)
		}, nil)

		rec, err := client.FetchByID(context.Background(), 5114)
		require.NoError(t, err)
		assert.Equal(t, 5114, rec.ID)
		require.NotNil(t, rec.Episodes)
		assert.Equal(t, 64, *rec.Episodes)
	})

	t.Run("404 is not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, nil)

		_, err := client.FetchByID(context.Background(), 999999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty data is not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"data": {}}`)
		}, nil)

		_, err := client.FetchByID(context.Background(), 7)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClient_FetchTop(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		wantLimit string
	}{
		{"default", 0, "10"},
		{"explicit", 5, "5"},
		{"capped", 100, "25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/top/anime", r.URL.Path)
				assert.Equal(t, tt.wantLimit, r.URL.Query().Get("limit"))
				writeJSON(w, `{"data": [{"mal_id": 52991, "title": "Sousou no Frieren"}, {"mal_id": 5114, "title": "FMA:B"}]}`)
			}, nil)

			recs, err := client.FetchTop(context.Background(), tt.requested)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, 52991, recs[0].ID)
		})
	}

	t.Run("truncates to limit", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"data": [{"mal_id": 1, "title": "a"}, {"mal_id": 2, "title": "b"}, {"mal_id": 3, "title": "c"}]}`)
		}, nil)

		recs, err := client.FetchTop(context.Background(), 2)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})
}

func TestClient_ResponseCache(t *testing.T) {
	t.Run("second search is served from cache", func(t *testing.T) {
		var calls atomic.Int32
		cache := newMemoryCache()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, `{"data": [{"mal_id": 1, "title": "A"}], "pagination": {"has_next_page": false}}`)
		}, cache)

		first, err := client.Search(context.Background(), "Bebop", 1)
		require.NoError(t, err)
		second, err := client.Search(context.Background(), "bebop", 1)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
		_, ok, _ := cache.Get(context.Background(), "anime:search:bebop:1:2")
		assert.True(t, ok)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		var calls atomic.Int32
		cache := newMemoryCache()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}, cache)

		_, err := client.FetchByID(context.Background(), 42)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = client.FetchByID(context.Background(), 42)
		require.ErrorIs(t, err, ErrNotFound)

		assert.Equal(t, int32(2), calls.Load())
		assert.Empty(t, cache.data)
	})
}

// brokenCache fails every call with the context's error, or a connection
// error while the context is live.
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return nil, false, errors.New("dial tcp: connection refused")
}

func (brokenCache) Set(ctx context.Context, _ string, _ []byte, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("dial tcp: connection refused")
}

func TestClient_CacheErrorLogging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":[]}`)
	}))
	t.Cleanup(server.Close)

	newClient := func() (*Client, *test.Hook) {
		log, hook := test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)
		return NewClientWithConfig(&ClientConfig{
			BaseURL: server.URL,
			Logger:  log,
			Cache:   brokenCache{},
		}), hook
	}

	warnings := func(hook *test.Hook) []string {
		var msgs []string
		for _, e := range hook.AllEntries() {
			if e.Level <= logrus.WarnLevel {
				msgs = append(msgs, e.Message)
			}
		}
		return msgs
	}

	t.Run("cancelled caller is not a warning", func(t *testing.T) {
		client, hook := newClient()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.cachedGet(ctx, "top:1", time.Minute, server.URL+"/top/anime")
		assert.ErrorIs(t, err, ErrRequestCancelled)
		assert.Empty(t, warnings(hook))

		require.NotEmpty(t, hook.AllEntries())
		assert.Equal(t, logrus.DebugLevel, hook.AllEntries()[0].Level)
		assert.Equal(t, "Failed to read from response cache", hook.AllEntries()[0].Message)
	})

	t.Run("cache outage on live request warns", func(t *testing.T) {
		client, hook := newClient()

		body, err := client.cachedGet(context.Background(), "top:1", time.Minute, server.URL+"/top/anime")
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":[]}`, string(body))
		assert.Equal(t, []string{
			"Failed to read from response cache",
			"Failed to write response to cache",
		}, warnings(hook))
	})
}
