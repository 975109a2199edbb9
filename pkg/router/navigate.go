package router

import (
	"context"
	"errors"
	"sync"

	"github.com/vango-dev/vroute/pkg/param"
	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/urlbuild"
)

// Mode is how a committed navigation is written to history.
type Mode uint8

const (
	// ModePush appends a history entry.
	ModePush Mode = iota

	// ModeReplace replaces the current history entry.
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "push"
}

// History records committed navigations.
type History interface {
	Push(href string, state map[string]any)
	Replace(href string, state map[string]any)
}

// HistoryEntry is one entry of a MemoryHistory.
type HistoryEntry struct {
	Href  string
	State map[string]any
}

// MemoryHistory is a History kept in memory.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

// NewMemoryHistory returns an empty history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Push appends an entry.
func (h *MemoryHistory) Push(href string, state map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, HistoryEntry{Href: href, State: state})
}

// Replace overwrites the last entry, or appends one to an empty history.
func (h *MemoryHistory) Replace(href string, state map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, HistoryEntry{Href: href, State: state})
		return
	}
	h.entries[len(h.entries)-1] = HistoryEntry{Href: href, State: state}
}

// Entries returns a copy of the entries, oldest first.
func (h *MemoryHistory) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HistoryEntry(nil), h.entries...)
}

// NavigateOption configures Push and Replace.
type NavigateOption func(*navigateOptions)

type navigateOptions struct {
	resolve []ResolveOption
	state   map[string]any
}

// WithState passes navigation state. Only keys declared in the destination
// route's State are kept, decoded with their params.
func WithState(state map[string]any) NavigateOption {
	return func(o *navigateOptions) {
		o.state = state
	}
}

// WithResolve applies resolve options to the navigation target.
func WithResolve(opts ...ResolveOption) NavigateOption {
	return func(o *navigateOptions) {
		o.resolve = append(o.resolve, opts...)
	}
}

// Start performs the initial navigation to href without adding a history
// entry.
func (r *Router) Start(ctx context.Context, href string) (*route.ResolvedRoute, error) {
	return r.navigate(ctx, ModeReplace, href, nil, nil)
}

// Push navigates to a route name with params, or to a URL, and appends a
// history entry.
func (r *Router) Push(ctx context.Context, source string, params map[string]any, opts ...NavigateOption) (*route.ResolvedRoute, error) {
	return r.navigate(ctx, ModePush, source, params, opts)
}

// Replace navigates like Push but replaces the current history entry.
func (r *Router) Replace(ctx context.Context, source string, params map[string]any, opts ...NavigateOption) (*route.ResolvedRoute, error) {
	return r.navigate(ctx, ModeReplace, source, params, opts)
}

func (r *Router) navigate(ctx context.Context, mode Mode, source string, params map[string]any, opts []NavigateOption) (to *route.ResolvedRoute, err error) {
	var o navigateOptions
	for _, opt := range opts {
		opt(&o)
	}

	seq := r.seq.Add(1)
	from := r.Current()

	if r.observer != nil {
		var end func(*route.ResolvedRoute, error)
		ctx, end = r.observer.Navigation(ctx, mode, source)
		defer func() { end(to, err) }()
	}

	href, err := r.Resolve(source, params, o.resolve...)
	if err != nil {
		return nil, err
	}

	redirects := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		to = r.Lookup(href)
		if !to.IsRejection() {
			to.State = decodeState(to.Matched.State, o.state)

			next, redirected, err := r.followRoute(to)
			if err != nil {
				return nil, err
			}
			if redirected {
				if redirects++; redirects > r.maxRedirects {
					return nil, ErrTooManyRedirects
				}
				r.logger.Debug("route redirect", "from", to.Name, "to", next)
				href = next
				continue
			}
		}

		err := r.runBefore(ctx, to, from)
		var redirect *RedirectError
		var rejection *RejectionError
		switch {
		case err == nil:
		case errors.As(err, &rejection):
			r.logger.Debug("navigation rejected", "to", to.Name, "type", rejection.Type)
			to = r.reject(rejection.Type, href)
		case errors.As(err, &redirect):
			if redirects++; redirects > r.maxRedirects {
				return nil, ErrTooManyRedirects
			}
			href, err = r.Resolve(redirect.Source, redirect.Params)
			if err != nil {
				return nil, err
			}
			r.logger.Debug("hook redirect", "from", to.Name, "to", href)
			continue
		default:
			r.logger.Debug("navigation aborted", "to", to.Name, "error", err)
			return nil, err
		}

		if r.seq.Load() != seq {
			return nil, ErrSuperseded
		}
		break
	}

	r.commit(mode, to, href)
	r.runAfter(ctx, to, from)
	return to, nil
}

// followRoute resolves the outgoing redirect of to, if any.
func (r *Router) followRoute(to *route.ResolvedRoute) (href string, redirected bool, err error) {
	rd, ok := to.Route.RedirectTarget()
	if !ok {
		return "", false, nil
	}
	if registered, ok := r.byName[rd.To.Key]; !ok || registered != rd.To {
		return "", false, &routeerr.MissingRouteContextError{Name: rd.To.Key}
	}
	href, err = urlbuild.Assemble(rd.To, urlbuild.Values{Params: rd.MapParams(to.Params)})
	if err != nil {
		return "", false, err
	}
	return href, true, nil
}

func (r *Router) runBefore(ctx context.Context, to, from *route.ResolvedRoute) error {
	for _, hook := range r.beforeEach.snapshot() {
		if err := hook(ctx, to, from); err != nil {
			return err
		}
	}
	if to.IsRejection() {
		return nil
	}
	for _, m := range entering(to, from) {
		for _, hook := range m.BeforeEnter {
			if err := hook(ctx, to, from); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Router) runAfter(ctx context.Context, to, from *route.ResolvedRoute) {
	if !to.IsRejection() {
		for _, m := range entering(to, from) {
			for _, hook := range m.AfterEnter {
				hook(ctx, to, from)
			}
		}
	}
	for _, hook := range r.afterEach.snapshot() {
		hook(ctx, to, from)
	}
}

func (r *Router) commit(mode Mode, to *route.ResolvedRoute, href string) {
	switch mode {
	case ModeReplace:
		r.history.Replace(href, to.State)
	default:
		r.history.Push(href, to.State)
	}
	r.current.Set(to)
	r.logger.Info("navigation committed", "mode", mode.String(), "url", href, "route", to.Name)
}

// decodeState keeps the declared state keys, normalized through their
// params. Values that do not encode are dropped.
func decodeState(declared map[string]param.Param, given map[string]any) map[string]any {
	out := make(map[string]any, len(declared))
	for name, p := range declared {
		c := param.Normalize(name, p)
		s, err := c.Encode(given[name])
		if err != nil {
			continue
		}
		v, err := c.Decode(s, true)
		if err != nil {
			continue
		}
		out[name] = v
	}
	return out
}
