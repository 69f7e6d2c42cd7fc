// Package quotes serves the anime quote of the day. The quote lives in a
// small JSON file next to the process and is refetched from the animechan
// API once its timestamp is more than 24 hours old.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const refreshAfter = 24 * time.Hour

type Quote struct {
	Content   string `json:"content"`
	Anime     Ref    `json:"anime"`
	Character Ref    `json:"character"`
}

type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type cacheFile struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Quote       Quote     `json:"quote"`
}

// Fetcher retrieves a fresh quote from the upstream API.
type Fetcher func(ctx context.Context) (Quote, error)

type Service struct {
	// mu guards the whole check-and-refresh sequence so concurrent requests
	// during the stale window trigger a single upstream call.
	mu       sync.Mutex
	filePath string
	fetch    Fetcher
}

func NewService(filePath, apiURL string) *Service {
	return &Service{
		filePath: filePath,
		fetch:    apiFetcher(apiURL),
	}
}

// NewServiceWithFetcher is used by tests to substitute the upstream call.
func NewServiceWithFetcher(filePath string, fetch Fetcher) *Service {
	return &Service{filePath: filePath, fetch: fetch}
}

// Daily returns the cached quote, refreshing it first when stale.
func (s *Service) Daily(ctx context.Context) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.readFile()
	if time.Since(stored.LastUpdated) < refreshAfter {
		return stored.Quote, nil
	}
	return s.refreshLocked(ctx)
}

// ForceRefresh fetches and stores a new quote regardless of age.
func (s *Service) ForceRefresh(ctx context.Context) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// Status reports whether the cache is stale and when it was last written.
func (s *Service) Status() (needsUpdate bool, lastUpdated time.Time, hoursUntilNext float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.readFile()
	age := time.Since(stored.LastUpdated)
	if age >= refreshAfter {
		return true, stored.LastUpdated, 0
	}
	return false, stored.LastUpdated, (refreshAfter - age).Hours()
}

func (s *Service) refreshLocked(ctx context.Context) (Quote, error) {
	quote, err := s.fetch(ctx)
	if err != nil {
		log.Printf("Quote fetch failed, using fallback: %v", err)
		quote = fallbackQuote
	}
	if err := s.writeFile(quote); err != nil {
		return quote, fmt.Errorf("storing quote: %w", err)
	}
	return quote, nil
}

func (s *Service) readFile() cacheFile {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return defaultCache
	}
	var stored cacheFile
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("Corrupt quote cache at %s: %v", s.filePath, err)
		return defaultCache
	}
	return stored
}

func (s *Service) writeFile(quote Quote) error {
	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(cacheFile{LastUpdated: time.Now(), Quote: quote}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0o644)
}

func apiFetcher(apiURL string) Fetcher {
	client := &http.Client{Timeout: 10 * time.Second}
	return func(ctx context.Context) (Quote, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return Quote{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return Quote{}, err
		}
		defer resp.Body.Close()

		var payload struct {
			Status string `json:"status"`
			Data   Quote  `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return Quote{}, err
		}
		if payload.Status != "success" {
			return Quote{}, fmt.Errorf("quote API returned status %q", payload.Status)
		}
		return payload.Data, nil
	}
}

// defaultCache is returned when the cache file is missing or unreadable; its
// ancient timestamp forces a refresh on the next access.
var defaultCache = cacheFile{
	LastUpdated: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	Quote: Quote{
		Content:   "Whenever I counted on someone, I ended up getting hurt.",
		Anime:     Ref{ID: 2, Name: "Hanasaku Iroha"},
		Character: Ref{ID: 5, Name: "Ohana Matsumae"},
	},
}

var fallbackQuote = Quote{
	Content:   "The only way to truly escape the mundane is to constantly seek the extraordinary.",
	Anime:     Ref{ID: 1, Name: "Unknown Anime"},
	Character: Ref{ID: 1, Name: "Unknown Character"},
}
