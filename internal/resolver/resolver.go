// Package resolver is the caller-side companion of the lookup service: it
// validates input locally, debounces keystrokes, collapses duplicate
// in-flight lookups and caches resolved banks. It holds no authoritative
// state; everything it knows can be re-fetched from the service.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zdziszkee/iban-registry/internal/iban"
)

// DefaultDebounce is the settle time measured from the most recent input
// event before a lookup is issued.
const DefaultDebounce = 500 * time.Millisecond

// State of the input pipeline.
type State int

const (
	StateIdle State = iota
	StatePendingTimer
	StateInFlight
)

// BankData is the resolved payload for one IBAN.
type BankData struct {
	Found        bool   `json:"found"`
	BankSortCode string `json:"bankSortCode"`
	Name         string `json:"name"`
	ShortName    string `json:"shortName"`
	BIC          string `json:"bic"`
	City         string `json:"city"`
}

// LookupFunc performs the actual remote lookup for a normalized IBAN.
type LookupFunc func(ctx context.Context, normalizedIBAN string) (*BankData, error)

// ResultFunc receives the outcome of a lookup that is still current. Stale
// outcomes are discarded before this is called.
type ResultFunc func(normalizedIBAN string, data *BankData, err error)

// Resolver debounces IBAN input and resolves it through a LookupFunc.
// Every input event invalidates whatever was pending: the debounce timer is
// rescheduled and any in-flight lookup is demoted to stale via a sequence
// number check on completion.
type Resolver struct {
	lookup   LookupFunc
	onResult ResultFunc
	debounce time.Duration

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]*BankData
	timer *time.Timer
	seq   uint64
	state State
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDebounce overrides the debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(r *Resolver) { r.debounce = d }
}

// New creates a resolver. onResult may be nil when only the synchronous
// Resolve path is used.
func New(lookup LookupFunc, onResult ResultFunc, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:   lookup,
		onResult: onResult,
		debounce: DefaultDebounce,
		cache:    make(map[string]*BankData),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Input feeds the current value of the IBAN field. Invalid or empty input
// cancels any pending work. A cached IBAN resolves immediately without a
// network round trip; anything else is scheduled behind the debounce timer.
func (r *Resolver) Input(text string) {
	r.mu.Lock()

	r.seq++
	seq := r.seq
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}

	result := iban.Validate(text)
	normalized := iban.Normalize(text)
	if normalized == "" || !result.Valid {
		r.state = StateIdle
		r.mu.Unlock()
		return
	}

	if data, ok := r.cache[normalized]; ok {
		r.state = StateIdle
		onResult := r.onResult
		r.mu.Unlock()
		if onResult != nil {
			onResult(normalized, data, nil)
		}
		return
	}

	r.state = StatePendingTimer
	r.timer = time.AfterFunc(r.debounce, func() {
		r.fire(seq, normalized)
	})
	r.mu.Unlock()
}

// fire runs when the debounce timer elapses. The sequence number is checked
// once before the lookup starts and again before the result is applied, so a
// response for superseded input never overwrites newer state.
func (r *Resolver) fire(seq uint64, normalized string) {
	r.mu.Lock()
	if seq != r.seq {
		r.mu.Unlock()
		return
	}
	r.state = StateInFlight
	r.mu.Unlock()

	data, err := r.resolveShared(context.Background(), normalized)

	r.mu.Lock()
	if seq != r.seq {
		r.mu.Unlock()
		return
	}
	r.state = StateIdle
	onResult := r.onResult
	r.mu.Unlock()

	if onResult != nil {
		onResult(normalized, data, err)
	}
}

// Resolve is the synchronous path: validate, consult the cache, otherwise
// look up remotely with duplicate suppression.
func (r *Resolver) Resolve(ctx context.Context, rawIBAN string) (*BankData, error) {
	result := iban.Validate(rawIBAN)
	normalized := iban.Normalize(rawIBAN)
	if normalized == "" || !result.Valid {
		return nil, fmt.Errorf("invalid iban: %s", result.Reason)
	}

	r.mu.Lock()
	if data, ok := r.cache[normalized]; ok {
		r.mu.Unlock()
		return data, nil
	}
	r.mu.Unlock()

	return r.resolveShared(ctx, normalized)
}

// resolveShared collapses concurrent lookups for the same IBAN into one
// remote call and caches successful results.
func (r *Resolver) resolveShared(ctx context.Context, normalized string) (*BankData, error) {
	v, err, _ := r.group.Do(normalized, func() (interface{}, error) {
		return r.lookup(ctx, normalized)
	})
	if err != nil {
		return nil, err
	}

	data := v.(*BankData)
	r.mu.Lock()
	r.cache[normalized] = data
	r.mu.Unlock()
	return data, nil
}

// State reports the current pipeline state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CacheSize reports how many IBANs are cached.
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Stop cancels any pending debounce timer and invalidates in-flight work.
func (r *Resolver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.state = StateIdle
}

// HTTPLookup builds a LookupFunc against the lookup service's HTTP surface.
func HTTPLookup(baseURL string, client *http.Client) LookupFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return func(ctx context.Context, normalizedIBAN string) (*BankData, error) {
		endpoint := baseURL + "/lookup/iban/" + url.PathEscape(normalizedIBAN)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build lookup request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("lookup request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("lookup request returned status %d", resp.StatusCode)
		}

		var payload struct {
			Found        bool   `json:"found"`
			BankSortCode string `json:"bankSortCode"`
			Bank         *struct {
				Name      string `json:"name"`
				ShortName string `json:"shortName"`
				BIC       string `json:"bic"`
				City      string `json:"city"`
			} `json:"bank"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode lookup response: %w", err)
		}

		data := &BankData{
			Found:        payload.Found,
			BankSortCode: payload.BankSortCode,
		}
		if payload.Bank != nil {
			data.Name = payload.Bank.Name
			data.ShortName = payload.Bank.ShortName
			data.BIC = payload.Bank.BIC
			data.City = payload.Bank.City
		}
		return data, nil
	}
}
