// Package card resolves card ids to cached image files, downloading missing
// images from ArkhamDB on first use.
package card

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/arkhamproxy/internal/arkhamdb"
	"github.com/arcanaland/arkhamproxy/internal/cache"
)

// Extensions in probe preference order.
var Extensions = []string{"png", "jpg"}

// BackSuffix is appended to a card id to name its back face.
const BackSuffix = "b"

// Record points at the cached image files for one card. Back is empty for
// single sided cards.
type Record struct {
	Front string
	Back  string
}

// HasBack reports whether a back image is cached.
func (r *Record) HasBack() bool {
	return r != nil && r.Back != ""
}

// Source provides card metadata and image bytes.
type Source interface {
	Card(ctx context.Context, cardID string) (*arkhamdb.Card, error)
	Download(ctx context.Context, rawURL string) ([]byte, error)
	ImageURL(src string) string
}

// Resolver finds card images in the Cards namespace and fetches them when absent.
type Resolver struct {
	store       *cache.Store
	source      Source
	concurrency int
	log         *slog.Logger
}

// NewResolver returns a Resolver. concurrency bounds ResolveAll; values below 1 mean 1.
func NewResolver(store *cache.Store, source Source, concurrency int, log *slog.Logger) *Resolver {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, source: source, concurrency: concurrency, log: log}
}

// FrontKey returns the cache key of a card's front image with the given extension.
func FrontKey(cardID, ext string) string {
	return cardID + "." + ext
}

// BackKey returns the cache key of a card's back image with the given extension.
func BackKey(cardID, ext string) string {
	return cardID + BackSuffix + "." + ext
}

// Probe looks for cached images of cardID. It returns nil when no front image
// is cached, even if a back image is.
func (r *Resolver) Probe(cardID string) *Record {
	front := r.find(cardID, FrontKey)
	if front == "" {
		return nil
	}
	return &Record{Front: front, Back: r.find(cardID, BackKey)}
}

func (r *Resolver) find(cardID string, key func(string, string) string) string {
	for _, ext := range Extensions {
		k := key(cardID, ext)
		if r.store.Exists(cache.Cards, k) {
			return r.store.Path(cache.Cards, k)
		}
	}
	return ""
}

// Resolve returns the cached images of cardID, downloading them first when
// the front image is not cached. It returns nil when no front image can be
// obtained; the reason is logged, never returned.
//
// Downloads are not tied to ctx: if ctx ends first Resolve returns nil and
// the downloads still finish and populate the cache.
func (r *Resolver) Resolve(ctx context.Context, cardID string) *Record {
	if cardID == "" {
		return nil
	}
	if _, err := r.store.EnsureNamespace(cache.Cards); err != nil {
		r.log.Error("card cache unavailable", "card", cardID, "err", err)
		return nil
	}
	if rec := r.Probe(cardID); rec != nil {
		return rec
	}

	meta, err := r.source.Card(ctx, cardID)
	if err != nil {
		r.log.Warn("card metadata unavailable", "card", cardID, "err", err)
		return nil
	}
	if meta.ImageSrc == "" {
		r.log.Warn("card has no image", "card", cardID)
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.download(context.WithoutCancel(ctx), cardID, meta)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.log.Debug("resolution abandoned, downloads continue", "card", cardID)
		return nil
	}

	rec := r.Probe(cardID)
	if rec == nil {
		r.log.Warn("front image missing after download", "card", cardID)
	}
	return rec
}

// download fetches the front and, when present, back image concurrently and
// waits for both. Failures are logged per file.
func (r *Resolver) download(ctx context.Context, cardID string, meta *arkhamdb.Card) {
	var g errgroup.Group

	faces := []struct {
		src string
		key func(string, string) string
	}{
		{meta.ImageSrc, FrontKey},
		{meta.BackImageSrc, BackKey},
	}
	for _, face := range faces {
		if face.src == "" {
			continue
		}
		rawURL := r.source.ImageURL(face.src)
		key := face.key(cardID, extensionOf(rawURL))
		g.Go(func() error {
			data, err := r.source.Download(ctx, rawURL)
			if err == nil && len(data) == 0 {
				r.log.Warn("image download returned no data", "card", cardID, "url", rawURL)
				return nil
			}
			if err != nil {
				r.log.Warn("image download failed", "card", cardID, "url", rawURL, "err", err)
				return nil
			}
			if err := r.store.Write(cache.Cards, key, data); err != nil {
				r.log.Warn("failed to cache image", "card", cardID, "key", key, "err", err)
				return nil
			}
			r.log.Debug("cached image", "card", cardID, "key", key, "bytes", len(data))
			return nil
		})
	}
	g.Wait()
}

// ResolveAll resolves ids with at most the configured number of resolutions in
// flight. Ids that cannot be resolved are absent from the result.
func (r *Resolver) ResolveAll(ctx context.Context, ids []string) map[string]*Record {
	var (
		mu      sync.Mutex
		records = make(map[string]*Record, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if rec := r.Resolve(gctx, id); rec != nil {
				mu.Lock()
				records[id] = rec
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return records
}

// extensionOf returns the image extension of rawURL's path, "png" when absent
// or not one of Extensions. "jpeg" is stored as "jpg".
func extensionOf(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if ext == "jpeg" {
		ext = "jpg"
	}
	for _, known := range Extensions {
		if ext == known {
			return ext
		}
	}
	return "png"
}
