package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCache(t *testing.T, path string, age time.Duration, content string) {
	t.Helper()
	data, err := json.Marshal(cacheFile{
		LastUpdated: time.Now().Add(-age),
		Quote:       Quote{Content: content},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestDailyUsesFreshCacheWithoutFetching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.json")
	writeCache(t, path, time.Hour, "cached quote")

	s := NewServiceWithFetcher(path, func(context.Context) (Quote, error) {
		t.Fatal("fetcher must not be called while the cache is fresh")
		return Quote{}, nil
	})

	quote, err := s.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached quote", quote.Content)
}

func TestDailyRefreshesStaleCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.json")
	writeCache(t, path, 25*time.Hour, "stale quote")

	s := NewServiceWithFetcher(path, func(context.Context) (Quote, error) {
		return Quote{Content: "fresh quote"}, nil
	})

	quote, err := s.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh quote", quote.Content)

	// The file was rewritten with the new quote and timestamp.
	needsUpdate, lastUpdated, _ := s.Status()
	assert.False(t, needsUpdate)
	assert.WithinDuration(t, time.Now(), lastUpdated, time.Minute)
}

func TestDailyFallsBackWhenFetchFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.json")
	writeCache(t, path, 25*time.Hour, "stale quote")

	s := NewServiceWithFetcher(path, func(context.Context) (Quote, error) {
		return Quote{}, fmt.Errorf("upstream down")
	})

	quote, err := s.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fallbackQuote.Content, quote.Content)
}

func TestMissingFileForcesRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.json")

	s := NewServiceWithFetcher(path, func(context.Context) (Quote, error) {
		return Quote{Content: "first quote"}, nil
	})

	needsUpdate, _, _ := s.Status()
	assert.True(t, needsUpdate)

	quote, err := s.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first quote", quote.Content)
}

func TestConcurrentDailyFetchesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.json")
	writeCache(t, path, 25*time.Hour, "stale quote")

	var mu sync.Mutex
	calls := 0
	s := NewServiceWithFetcher(path, func(context.Context) (Quote, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return Quote{Content: "fresh quote"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Daily(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
}
