package validator

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/arcanaland/arkhamproxy/internal/cache"
	"github.com/arcanaland/arkhamproxy/internal/card"
	"github.com/arcanaland/arkhamproxy/internal/deck"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
	Decks    int
	Images   int
}

// Validator checks the contents of a cache root.
type Validator struct {
	Store   *cache.Store
	DeckTTL time.Duration
	Now     func() time.Time
	Results ValidationResults
}

func NewValidator(store *cache.Store, deckTTL time.Duration) *Validator {
	return &Validator{
		Store:   store,
		DeckTTL: deckTTL,
		Now:     time.Now,
		Results: ValidationResults{},
	}
}

func (v *Validator) Validate() (ValidationResults, error) {
	if err := v.validateDecks(); err != nil {
		return v.Results, err
	}
	if err := v.validateCards(); err != nil {
		return v.Results, err
	}
	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

// validateDecks checks that every cached deck parses and reports stale ones
func (v *Validator) validateDecks() error {
	entries, err := v.Store.List(cache.Decks)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if filepath.Ext(e.Key) != ".json" {
			v.errorf("unexpected file in %s: %s", cache.Decks, e.Key)
			continue
		}
		v.Results.Decks++

		data, err := v.Store.Read(cache.Decks, e.Key)
		if err != nil {
			v.errorf("cannot read deck %s: %v", e.Key, err)
			continue
		}
		if _, err := deck.Parse(data); err != nil {
			v.errorf("deck %s does not parse: %v", e.Key, err)
			continue
		}
		if v.DeckTTL > 0 && v.Now().Sub(e.ModTime) >= v.DeckTTL {
			v.warnf("deck %s is stale and will be refetched on next use", e.Key)
		}
	}
	return nil
}

// validateCards checks image names and contents, and looks for backs without fronts
func (v *Validator) validateCards() error {
	entries, err := v.Store.List(cache.Cards)
	if err != nil {
		return err
	}

	fronts := map[string]bool{}
	var backs []string
	for _, e := range entries {
		ext := strings.TrimPrefix(filepath.Ext(e.Key), ".")
		if !knownExtension(ext) {
			v.errorf("unexpected file in %s: %s (expecting .png or .jpg)", cache.Cards, e.Key)
			continue
		}
		v.Results.Images++

		if e.Size == 0 {
			v.errorf("image %s is empty", e.Key)
			continue
		}
		data, err := v.Store.Read(cache.Cards, e.Key)
		if err != nil {
			v.errorf("cannot read image %s: %v", e.Key, err)
			continue
		}
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			v.errorf("image %s is not a readable image: %v", e.Key, err)
			continue
		}

		id := strings.TrimSuffix(e.Key, filepath.Ext(e.Key))
		fronts[id] = true
		if strings.HasSuffix(id, card.BackSuffix) {
			backs = append(backs, id)
		}
	}

	for _, back := range backs {
		front := strings.TrimSuffix(back, card.BackSuffix)
		if front != "" && !fronts[front] {
			v.warnf("back image %s has no front image %s and is unused", back, front)
		}
	}
	return nil
}

func knownExtension(ext string) bool {
	for _, known := range card.Extensions {
		if ext == known {
			return true
		}
	}
	return false
}
