// Package maintenance turns machine usage history into maintenance forecasts
// and a composite health score.
//
// Every computation is a pure function of its arguments, the engine's catalog
// and its clock. Calendar days are UTC days throughout.
package maintenance

import (
	"time"
)

// Engine computes maintenance predictions against an immutable catalog.
// An Engine is safe for concurrent use.
type Engine struct {
	catalog Catalog
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's notion of the current time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine over a copy of catalog.
func New(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog.clone(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns a copy of the engine's catalog.
func (e *Engine) Catalog() Catalog {
	return e.catalog.clone()
}

// today returns midnight UTC of the current day.
func (e *Engine) today() time.Time {
	return utcDate(e.now())
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
