package arkhamdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public/card/01001.json", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"code":"01001","name":"Roland Banks","imagesrc":"/bundles/cards/01001.png","backimagesrc":"/bundles/cards/01001b.png"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/"})
	card, err := c.Card(context.Background(), "01001")
	require.NoError(t, err)
	assert.Equal(t, "Roland Banks", card.Name)
	assert.Equal(t, "/bundles/cards/01001.png", card.ImageSrc)
	assert.Equal(t, "/bundles/cards/01001b.png", card.BackImageSrc)
}

func TestCardDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).Card(context.Background(), "01001")
	assert.ErrorContains(t, err, "decode card 01001")
}

func TestDownloadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).DeckJSON(context.Background(), "42")
	assert.ErrorIs(t, err, ErrStatus)
}

func TestDownloadCanceled(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 0.001})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Download(ctx, c.ImageURL("/x.png"))
	assert.Error(t, err)
}

func TestURLs(t *testing.T) {
	c := NewClient(Options{BaseURL: "https://arkhamdb.com/"})

	assert.Equal(t, "https://arkhamdb.com", c.BaseURL())
	assert.Equal(t, "https://arkhamdb.com/bundles/cards/01001.png", c.ImageURL("/bundles/cards/01001.png"))
	assert.Equal(t, "https://arkhamdb.com/bundles/cards/01001.png", c.ImageURL("bundles/cards/01001.png"))
	assert.Equal(t, "https://cdn.example/x.jpg", c.ImageURL("https://cdn.example/x.jpg"))
	assert.Equal(t, "https://arkhamdb.com/deck/view/101", c.DeckURL("101"))
	assert.Equal(t, DefaultBaseURL, NewClient(Options{}).BaseURL())
}
