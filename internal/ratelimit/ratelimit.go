// Package ratelimit implements fixed-window request counting keyed by an
// arbitrary identity (usually the client IP).
//
// A window opens on the first hit for a key and lasts Window; up to Limit hits
// are allowed inside it. Once the window has passed, the next hit opens a new
// one with a count of 1. A client can therefore burst up to 2*Limit across a
// window boundary.
//
// Counters live in a Store: MemoryStore keeps them in process memory and
// RedisStore shares them between instances.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Store counts hits per key inside fixed windows.
type Store interface {
	// Hit registers one hit for key and returns the count inside the current
	// window together with the moment the window resets. A new window of
	// length window starts when none is open at now.
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (count int, resetAt time.Time, err error)
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetIn is the number of whole seconds (rounded up) until the window
	// resets. It is at least 1 for a rejected request.
	ResetIn int
}

// Limiter applies Limit hits per Window to each key.
type Limiter struct {
	Store  Store
	Limit  int
	Window time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// New returns a Limiter over store.
func New(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{Store: store, Limit: limit, Window: window}
}

// Allow registers a hit for key and decides whether it is within the limit.
//
// The limiter is advisory: when the store fails, the request is allowed and
// the store error is returned so the caller can log it.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}

	count, resetAt, err := l.Store.Hit(ctx, key, l.Window, now)
	if err != nil {
		return Decision{Allowed: true, Remaining: l.Limit}, err
	}

	d := Decision{
		Allowed:   count <= l.Limit,
		Remaining: l.Limit - count,
		ResetIn:   int(math.Ceil(resetAt.Sub(now).Seconds())),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if d.ResetIn < 0 {
		d.ResetIn = 0
	}
	if !d.Allowed && d.ResetIn < 1 {
		d.ResetIn = 1
	}
	return d, nil
}
