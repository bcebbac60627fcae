// Package browse drives incremental ("load more") browsing of the catalog.
package browse

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
)

// DefaultPageSize is the number of products requested per page
const DefaultPageSize = 20

// Kind names what a browsing session lists
type Kind string

const (
	KindAll      Kind = "all"
	KindCategory Kind = "category"
	KindSearch   Kind = "search"
)

// QueryKey identifies a browsing session: a category id, a search term, or
// the whole catalog.
type QueryKey struct {
	Kind  Kind
	Value string
}

func (k QueryKey) String() string {
	if k.Kind == KindAll || k.Value == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.Value
}

// PageSource fetches one page of products for a query
type PageSource interface {
	FetchPage(ctx context.Context, key QueryKey, page, pageSize int) ([]catalog.Product, error)
}

// Status is the lifecycle state of a session
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// PageState is the accumulated result of a browsing session. Page is the
// next page to request.
type PageState struct {
	Key        QueryKey
	Page       int
	Items      []catalog.Product
	HasMore    bool
	Loading    bool
	Status     Status
	Generation uint64
	Err        error
}

// Outcome reports what a FetchNext call did
type Outcome string

const (
	// OutcomeAppended means a page arrived and was merged
	OutcomeAppended Outcome = "appended"
	// OutcomeSkipped means no request was made: a fetch was in flight or the end was reached
	OutcomeSkipped Outcome = "skipped"
	// OutcomeStale means the page arrived after a reset and was dropped
	OutcomeStale Outcome = "stale"
	// OutcomeFailed means the source returned an error
	OutcomeFailed Outcome = "failed"
)

// ErrNoSession is returned by FetchNext before the first Reset
var ErrNoSession = errors.New("browse: no active query, call Reset first")

// Orchestrator accumulates pages for one query at a time. It is safe for
// concurrent use; the loading flag admits a single fetch at a time and any
// further FetchNext calls are dropped until it settles.
type Orchestrator struct {
	source   PageSource
	pageSize int
	logger   *zap.Logger

	mu    sync.Mutex
	state PageState
	seen  map[int64]struct{}
	ready bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPageSize sets the fixed page size
func WithPageSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an orchestrator over source
func NewOrchestrator(source PageSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:   source,
		pageSize: DefaultPageSize,
		logger:   zap.NewNop(),
		seen:     make(map[int64]struct{}),
		state:    PageState{Items: []catalog.Product{}, Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PageSize returns the fixed page size
func (o *Orchestrator) PageSize() int {
	return o.pageSize
}

// Reset starts a new session for key. Any fetch still in flight belongs to the
// previous generation and its result will be discarded.
func (o *Orchestrator) Reset(key QueryKey) PageState {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = PageState{
		Key:        key,
		Page:       1,
		Items:      []catalog.Product{},
		HasMore:    true,
		Loading:    false,
		Status:     StatusIdle,
		Generation: o.state.Generation + 1,
	}
	o.seen = make(map[int64]struct{})
	o.ready = true
	return o.snapshotLocked()
}

// FetchNext requests the next page of the current session and merges it.
// It returns without contacting the source while a fetch is in flight or once
// the last page has been seen. A source error leaves Page unchanged so the
// next call retries the same page.
func (o *Orchestrator) FetchNext(ctx context.Context) (Outcome, error) {
	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return OutcomeSkipped, ErrNoSession
	}
	if o.state.Loading || !o.state.HasMore {
		o.mu.Unlock()
		return OutcomeSkipped, nil
	}
	o.state.Loading = true
	o.state.Status = StatusLoading
	o.state.Err = nil
	key := o.state.Key
	page := o.state.Page
	generation := o.state.Generation
	o.mu.Unlock()

	products, err := o.source.FetchPage(ctx, key, page, o.pageSize)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Generation != generation {
		o.logger.Debug("discarding stale page",
			zap.String("query", key.String()),
			zap.Int("page", page),
			zap.Uint64("generation", generation),
			zap.Uint64("current_generation", o.state.Generation),
		)
		return OutcomeStale, nil
	}

	o.state.Loading = false
	if err != nil {
		o.state.Status = StatusError
		o.state.Err = err
		o.logger.Warn("failed to fetch page",
			zap.String("query", key.String()),
			zap.Int("page", page),
			zap.Error(err),
		)
		return OutcomeFailed, err
	}

	for _, p := range products {
		if _, dup := o.seen[p.ID]; dup {
			continue
		}
		o.seen[p.ID] = struct{}{}
		o.state.Items = append(o.state.Items, p)
	}
	o.state.HasMore = len(products) == o.pageSize
	o.state.Page = page + 1
	o.state.Status = StatusLoaded
	return OutcomeAppended, nil
}

// Snapshot returns a copy of the current state that the caller may keep
func (o *Orchestrator) Snapshot() PageState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() PageState {
	s := o.state
	s.Items = make([]catalog.Product, len(o.state.Items))
	copy(s.Items, o.state.Items)
	return s
}
