package router

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routeerr"
)

// Navigation outcome errors.
var (
	// ErrSuperseded is returned by a navigation that a newer navigation
	// replaced before it committed.
	ErrSuperseded = errors.New("router: navigation superseded")

	// ErrTooManyRedirects is returned when a navigation follows more
	// redirects than the router allows.
	ErrTooManyRedirects = routeerr.ErrTooManyRedirects
)

// RejectionError is returned by a hook to replace the destination with a
// rejection.
type RejectionError struct {
	Type route.RejectionType
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("router: navigation rejected (%s)", e.Type)
}

// Reject returns the error a hook returns to reject a navigation.
func Reject(t route.RejectionType) error {
	return &RejectionError{Type: t}
}

// RedirectError is returned by a hook to restart the navigation at another
// route or URL.
type RedirectError struct {
	Source string
	Params map[string]any
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("router: navigation redirected to %s", e.Source)
}

// Redirect returns the error a hook returns to redirect a navigation to a
// route name with params, or to a URL.
func Redirect(source string, params map[string]any) error {
	return &RedirectError{Source: source, Params: params}
}

// registry is an ordered set of hooks owned by one router.
type registry[H any] struct {
	mu     sync.RWMutex
	nextID uint64
	hooks  []registered[H]
}

type registered[H any] struct {
	id   uint64
	hook H
}

func (g *registry[H]) add(hook H) (remove func()) {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.hooks = append(g.hooks, registered[H]{id: id, hook: hook})
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		for i, h := range g.hooks {
			if h.id == id {
				g.hooks = append(g.hooks[:i:i], g.hooks[i+1:]...)
				return
			}
		}
	}
}

func (g *registry[H]) snapshot() []H {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]H, len(g.hooks))
	for i, h := range g.hooks {
		out[i] = h.hook
	}
	return out
}

// BeforeEach registers a hook that runs before every navigation commits.
// Global hooks run before the BeforeEnter hooks of the routes entered.
func (r *Router) BeforeEach(hook route.BeforeHook) (remove func()) {
	return r.beforeEach.add(hook)
}

// AfterEach registers a hook that runs after every committed navigation.
func (r *Router) AfterEach(hook route.AfterHook) (remove func()) {
	return r.afterEach.add(hook)
}

// entering returns the matched records of to that from does not share.
func entering(to, from *route.ResolvedRoute) []*route.Matched {
	shared := make(map[*route.Matched]bool, len(from.Matches))
	for _, m := range from.Matches {
		shared[m] = true
	}
	var out []*route.Matched
	for _, m := range to.Matches {
		if !shared[m] {
			out = append(out, m)
		}
	}
	return out
}
