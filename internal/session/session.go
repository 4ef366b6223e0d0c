// Package session holds the state a front end renders: the current deck, its
// flattened entries and resolved images.
package session

import (
	"context"
	"maps"
	"sync"

	"github.com/arcanaland/arkhamproxy/internal/card"
	"github.com/arcanaland/arkhamproxy/internal/deck"
)

// State is a snapshot of a Session.
type State struct {
	DeckID    string
	Loading   bool
	Err       error
	Deck      *deck.Document
	FromCache bool
	Entries   []deck.Entry
	Images    map[string]*card.Record
}

// Missing returns the unique card ids of the entries that have no image.
func (s State) Missing() []string {
	var ids []string
	for _, id := range deck.UniqueCardIDs(s.Entries) {
		if s.Images[id] == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// DeckLoader loads a deck by id.
type DeckLoader interface {
	Fetch(ctx context.Context, deckID string) (*deck.Result, error)
	Refresh(ctx context.Context, deckID string) (*deck.Result, error)
}

// ImageResolver resolves card images.
type ImageResolver interface {
	ResolveAll(ctx context.Context, ids []string) map[string]*card.Record
}

// Session updates its State from the results of deck and image operations.
// It is safe for concurrent use.
type Session struct {
	decks  DeckLoader
	images ImageResolver

	mu    sync.Mutex
	state State
}

// New returns an empty Session.
func New(decks DeckLoader, images ImageResolver) *Session {
	return &Session{decks: decks, images: images}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() State {
	st := s.state
	st.Entries = append([]deck.Entry(nil), s.state.Entries...)
	st.Images = maps.Clone(s.state.Images)
	return st
}

// LoadDeck fetches deckID and replaces the current deck. When refresh is set
// any cached copy is ignored. On failure the previous deck is cleared and Err
// holds the reason.
func (s *Session) LoadDeck(ctx context.Context, deckID string, refresh bool) State {
	s.mu.Lock()
	s.state = State{DeckID: deckID, Loading: true}
	s.mu.Unlock()

	load := s.decks.Fetch
	if refresh {
		load = s.decks.Refresh
	}
	res, err := load(ctx, deckID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.DeckID != deckID {
		// superseded by a later LoadDeck
		return s.snapshot()
	}
	s.state.Loading = false
	if err != nil {
		s.state.Err = err
		return s.snapshot()
	}
	s.state.Deck = res.Document
	s.state.FromCache = res.FromCache
	s.state.Entries = deck.Entries(res.Document)
	s.state.Images = map[string]*card.Record{}
	return s.snapshot()
}

// ResolveImages resolves every card of the current deck and records the results.
func (s *Session) ResolveImages(ctx context.Context) State {
	s.mu.Lock()
	deckID := s.state.DeckID
	ids := deck.UniqueCardIDs(s.state.Entries)
	s.state.Loading = true
	s.mu.Unlock()

	records := s.images.ResolveAll(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.DeckID != deckID {
		return s.snapshot()
	}
	s.state.Loading = false
	s.state.Images = records
	return s.snapshot()
}
