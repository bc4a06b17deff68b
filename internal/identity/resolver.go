package identity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/me/mediafront/internal/metrics"
	"github.com/me/mediafront/pkg/model"
)

// SignOuter ends the backend session.
type SignOuter interface {
	Logout(ctx context.Context) error
}

// Resolver owns the identity state of one browser session: the ordered
// profile sources, the in-flight guard and the current profile.
type Resolver struct {
	primary   Source
	fallbacks []Source
	signer    SignOuter
	logger    *slog.Logger

	group     singleflight.Group
	resolving atomic.Bool

	mu         sync.RWMutex
	current    model.UserProfile
	hasCurrent bool
	generation uint64
}

// NewResolver creates a resolver that asks primary first and then each
// fallback in order. The last fallback should always answer.
func NewResolver(primary Source, signer SignOuter, logger *slog.Logger, fallbacks ...Source) *Resolver {
	return &Resolver{
		primary:   primary,
		fallbacks: fallbacks,
		signer:    signer,
		logger:    logger,
	}
}

// Resolve returns the visitor's profile and installs it as current.
//
// Concurrent callers share one in-flight lookup. A caller whose context ends
// before the lookup completes gets the current profile, or the placeholder
// when none is known yet. Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context) model.UserProfile {
	ch := r.group.DoChan("resolve", func() (any, error) {
		r.resolving.Store(true)
		defer r.resolving.Store(false)

		r.mu.RLock()
		gen := r.generation
		r.mu.RUnlock()

		p := r.lookup(context.WithoutCancel(ctx))

		r.mu.Lock()
		if r.generation == gen {
			r.current = p
			r.hasCurrent = true
		}
		r.mu.Unlock()
		return p, nil
	})

	select {
	case res := <-ch:
		return res.Val.(model.UserProfile)
	case <-ctx.Done():
		if p, ok := r.Current(); ok {
			return p
		}
		return r.Placeholder(ctx)
	}
}

func (r *Resolver) lookup(ctx context.Context) model.UserProfile {
	sources := append([]Source{r.primary}, r.fallbacks...)
	for i, src := range sources {
		if src == nil {
			continue
		}
		if p, ok := src.Lookup(ctx); ok {
			metrics.RecordResolution(src.Name())
			if i > 0 {
				r.logger.Info("using fallback profile", "source", src.Name())
			}
			return p
		}
	}
	metrics.RecordResolution("development")
	return DevelopmentProfile()
}

// Placeholder returns the profile views show while a resolution is pending:
// the first configured fallback that answers, else the anonymous profile.
// The development profile is a failure fallback and never a placeholder.
func (r *Resolver) Placeholder(ctx context.Context) model.UserProfile {
	for _, src := range r.fallbacks {
		if _, last := src.(DevelopmentSource); last {
			continue
		}
		if p, ok := src.Lookup(ctx); ok {
			return p
		}
	}
	return AnonymousProfile()
}

// Current returns the last resolved profile.
func (r *Resolver) Current() (model.UserProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.hasCurrent
}

// Resolving reports whether a lookup is in flight.
func (r *Resolver) Resolving() bool {
	return r.resolving.Load()
}

// Clear drops the current profile. A lookup already in flight will not
// reinstall its result.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.current = model.UserProfile{}
	r.hasCurrent = false
	r.generation++
	r.mu.Unlock()
}

// SignOut ends the backend session and clears the current profile.
// It reports false, leaving the current profile untouched, when the backend
// refuses or cannot be reached.
func (r *Resolver) SignOut(ctx context.Context) bool {
	if r.signer == nil {
		r.logger.Error("sign out unavailable: no backend client")
		metrics.RecordSignOut(false)
		return false
	}
	if err := r.signer.Logout(ctx); err != nil {
		r.logger.Warn("sign out failed", "error", err)
		metrics.RecordSignOut(false)
		return false
	}
	r.Clear()
	metrics.RecordSignOut(true)
	r.logger.Info("signed out")
	return true
}
