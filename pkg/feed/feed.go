package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/transport"
)

// Getter is the part of transport.Client the feed needs
type Getter interface {
	Get(ctx context.Context, url, accept string) ([]byte, error)
}

// Options configure a feed Client
type Options struct {
	// BaseURL of the NHL web api, e.g. https://api-web.nhle.com/v1
	BaseURL string
	// RecapURL is a fmt pattern taking the game id. Empty skips recaps.
	RecapURL string
	// CacheDir holds one JSON file per finished game. Empty disables caching.
	CacheDir string
	// Retries is the total number of attempts per request
	Retries uint
}

// Client fetches finished games from the NHL web api
type Client struct {
	opts       Options
	getter     Getter
	newBackOff func() backoff.BackOff
}

// NewClient builds a feed client on top of the given getter
func NewClient(getter Getter, opts Options) *Client {
	if opts.Retries == 0 {
		opts.Retries = 1
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		opts:   opts,
		getter: getter,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			return b
		},
	}
}

// FetchGame returns the raw game for an NHL game id such as 2023020001. Finished games
// are served from the cache when present.
func (c *Client) FetchGame(ctx context.Context, id string) (hockey.RawGame, error) {
	if !isGameID(id) {
		return hockey.RawGame{}, fmt.Errorf("invalid game id %q, expected 10 digits", id)
	}

	data, cached := c.readCache(id)
	if !cached {
		var err error
		data, err = c.get(ctx, fmt.Sprintf("%s/gamecenter/%s/landing", c.opts.BaseURL, id), transport.AcceptJSON)
		if err != nil {
			return hockey.RawGame{}, fmt.Errorf("failed to fetch game %s: %w", id, err)
		}
	}

	raw, err := ParseLanding(data)
	if err != nil {
		return hockey.RawGame{}, err
	}
	if !cached {
		c.writeCache(id, data)
	}

	if c.opts.RecapURL != "" {
		notes, err := c.fetchRecap(ctx, id)
		if err != nil {
			logger.Warn("Proceeding without recap for", id, err)
		} else {
			raw.Notes = notes
		}
	}
	return raw, nil
}

func (c *Client) fetchRecap(ctx context.Context, id string) (string, error) {
	recapURL := fmt.Sprintf(c.opts.RecapURL, id)
	page, err := c.get(ctx, recapURL, transport.AcceptHTML)
	if err != nil {
		return "", err
	}
	domain := ""
	if u, err := url.Parse(recapURL); err == nil {
		domain = u.Host
	}
	return RecapMarkdown(page, domain)
}

// get retries temporary failures with exponential backoff. Client errors such as 404
// are permanent and returned at once.
func (c *Client) get(ctx context.Context, u, accept string) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		logger.Inform("HTTP get called for ", u, "attempt", attempt)
		data, err := c.getter.Get(ctx, u, accept)
		if err == nil {
			return data, nil
		}
		var se *transport.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.opts.Retries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("Retrying after error", err, "in", wait.String())
		}),
	)
}

func (c *Client) cacheFile(id string) string {
	return filepath.Join(c.opts.CacheDir, fmt.Sprintf("nhl-game-%s.json", id))
}

func (c *Client) readCache(id string) ([]byte, bool) {
	if c.opts.CacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.cacheFile(id))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("error reading cache file, consider deleting it", c.cacheFile(id), err)
		}
		return nil, false
	}
	logger.Info("Loaded game from cache:", id)
	return data, true
}

// writeCache is only called for documents that parsed as finished games
func (c *Client) writeCache(id string, data []byte) {
	if c.opts.CacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.opts.CacheDir, 0755); err != nil {
		logger.Warn("failed to create cache directory", err)
		return
	}
	if err := os.WriteFile(c.cacheFile(id), data, 0644); err != nil {
		logger.Warn("error writing cache file", c.cacheFile(id), err)
	}
}

func isGameID(id string) bool {
	if len(id) != 10 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ReadRawGames decodes a JSON array of raw games, as written by an export or by hand
func ReadRawGames(r io.Reader) ([]hockey.RawGame, error) {
	var games []hockey.RawGame
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&games); err != nil {
		return nil, fmt.Errorf("error parsing raw games: %w", err)
	}
	return games, nil
}
