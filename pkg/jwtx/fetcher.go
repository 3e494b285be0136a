package jwtx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrEmptyJWKS = errors.New("jwtx: provider published no usable keys")

// Fetcher keeps a KeySet in sync with a remote JWKS endpoint.
type Fetcher struct {
	url      string
	keys     *KeySet
	client   *resty.Client
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	lastErr error
	lastOK  time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration

	// Headers sent with every request, Supabase wants the anon or service
	// key in "apikey" before it'll serve the keys.
	Headers map[string]string

	Logger *slog.Logger
}

// NewFetcher returns a Fetcher writing into keys.
func NewFetcher(opts FetcherOptions, keys *KeySet) *Fetcher {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeaders(opts.Headers)

	return &Fetcher{
		url:      opts.URL,
		keys:     keys,
		client:   client,
		interval: opts.Interval,
		logger:   opts.Logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Refresh fetches the JWKS once and swaps it into the KeySet. A fetch that
// fails or comes back empty leaves the current keys alone.
func (f *Fetcher) Refresh(ctx context.Context) error {
	var jwks JWKS
	resp, err := f.client.R().
		SetContext(ctx).
		SetResult(&jwks).
		Get(f.url)

	if err == nil && resp.IsError() {
		err = fmt.Errorf("jwtx: jwks fetch: unexpected status %d", resp.StatusCode())
	}
	if err == nil && len(jwks.Keys) == 0 {
		err = ErrEmptyJWKS
	}
	if err != nil {
		f.record(err)
		return err
	}

	skipped := f.keys.ResetFromJWKS(jwks)
	if f.keys.Len() == 0 {
		f.record(ErrEmptyJWKS)
		return ErrEmptyJWKS
	}
	if skipped > 0 {
		f.logger.Warn("jwks keys skipped", slog.Int("skipped", skipped), slog.Int("loaded", f.keys.Len()))
	}

	f.record(nil)
	return nil
}

func (f *Fetcher) record(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = err
	if err == nil {
		f.lastOK = time.Now().UTC()
	}
}

// Status reports the outcome of the last refresh.
func (f *Fetcher) Status() (lastOK time.Time, lastErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOK, f.lastErr
}

// Start refreshes immediately and then on every interval until Stop.
func (f *Fetcher) Start() {
	go f.run()
}

// Stop ends the refresh loop and waits for it to exit.
func (f *Fetcher) Stop() {
	close(f.stopCh)
	<-f.doneCh
}

func (f *Fetcher) run() {
	defer close(f.doneCh)

	f.refreshAndLog()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.refreshAndLog()
		case <-f.stopCh:
			return
		}
	}
}

func (f *Fetcher) refreshAndLog() {
	ctx, cancel := context.WithTimeout(context.Background(), f.client.GetClient().Timeout+time.Second)
	defer cancel()

	if err := f.Refresh(ctx); err != nil {
		f.logger.Error("jwks refresh failed", slog.String("url", f.url), slog.Any("error", err))
		return
	}
	f.logger.Debug("jwks refreshed", slog.Int("keys", f.keys.Len()))
}
