package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcanaland/arkhamproxy/internal/cache"
)

// DefaultTTL is how long a cached deck stays fresh.
const DefaultTTL = 24 * time.Hour

var (
	ErrInvalidDeckID = errors.New("deck id must not be empty")
	ErrNetwork       = errors.New("network error")
	ErrEmptyResponse = errors.New("empty response")
)

// Source returns raw deck documents from upstream.
type Source interface {
	DeckJSON(ctx context.Context, deckID string) ([]byte, error)
}

// Result is a successfully loaded deck.
type Result struct {
	Document  *Document
	FromCache bool
	// CachedAt is the modification time of the cache entry the document was read from or written to.
	CachedAt time.Time
}

// Fetcher loads decks from the Decks namespace, falling back to Source.
type Fetcher struct {
	store  *cache.Store
	source Source
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithTTL sets the freshness window for cached decks.
func WithTTL(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// WithLogger sets the logger used for non-fatal cache failures.
func WithLogger(log *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFetcher returns a Fetcher over store and source.
func NewFetcher(store *cache.Store, source Source, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		store:  store,
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func cacheKey(deckID string) string {
	return deckID + ".json"
}

// Fetch returns the deck for deckID, from cache when the entry is younger
// than the TTL and from the network otherwise.
func (f *Fetcher) Fetch(ctx context.Context, deckID string) (*Result, error) {
	if deckID == "" {
		return nil, ErrInvalidDeckID
	}
	if _, err := f.store.EnsureNamespace(cache.Decks); err != nil {
		return nil, err
	}

	key := cacheKey(deckID)
	if modified, err := f.store.ModifiedAt(cache.Decks, key); err == nil {
		if f.now().Sub(modified) < f.ttl {
			res, err := f.loadCached(key, modified)
			if err == nil {
				return res, nil
			}
			f.log.Warn("cached deck unreadable, refetching", "deck", deckID, "err", err)
		} else {
			f.log.Debug("cached deck is stale", "deck", deckID, "age", f.now().Sub(modified))
		}
		f.evict(deckID)
	}

	return f.fetchRemote(ctx, deckID)
}

// Refresh drops any cached copy of deckID and fetches it from the network.
func (f *Fetcher) Refresh(ctx context.Context, deckID string) (*Result, error) {
	if deckID == "" {
		return nil, ErrInvalidDeckID
	}
	if _, err := f.store.EnsureNamespace(cache.Decks); err != nil {
		return nil, err
	}
	f.evict(deckID)
	return f.fetchRemote(ctx, deckID)
}

func (f *Fetcher) loadCached(key string, modified time.Time) (*Result, error) {
	data, err := f.store.Read(cache.Decks, key)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return &Result{Document: doc, FromCache: true, CachedAt: modified}, nil
}

func (f *Fetcher) evict(deckID string) {
	if err := f.store.Remove(cache.Decks, cacheKey(deckID)); err != nil {
		f.log.Warn("failed to evict cached deck", "deck", deckID, "err", err)
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, deckID string) (*Result, error) {
	data, err := f.source.DeckJSON(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("deck %s: %w", deckID, ErrEmptyResponse)
	}

	res := &Result{CachedAt: f.now()}
	key := cacheKey(deckID)
	if err := f.store.Write(cache.Decks, key, data); err != nil {
		f.log.Warn("failed to cache deck", "deck", deckID, "err", err)
	} else if modified, err := f.store.ModifiedAt(cache.Decks, key); err == nil {
		res.CachedAt = modified
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	res.Document = doc
	return res, nil
}
