package router

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/vango-dev/vroute/pkg/param"
	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routeerr"
)

func newTestRouter(t *testing.T, defs []route.Definition, opts ...Option) *Router {
	t.Helper()
	r, err := New(defs, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestEndToEnd(t *testing.T) {
	r := newTestRouter(t, []route.Definition{
		{Name: "home", Path: "/"},
		{Name: "user", Path: "/users/[id]"},
	})

	resolved, ok := r.Find("/users/42", nil)
	if !ok {
		t.Fatal("Find(/users/42) found nothing")
	}
	if resolved.Name != "user" {
		t.Errorf("Name = %q, want user", resolved.Name)
	}
	if !reflect.DeepEqual(resolved.Params, map[string]any{"id": "42"}) {
		t.Errorf("Params = %v, want map[id:42]", resolved.Params)
	}

	href, err := r.Resolve("user", map[string]any{"id": 42})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if href != "/users/42" {
		t.Errorf("Resolve() = %q, want /users/42", href)
	}
}

func TestNewDuplicateNames(t *testing.T) {
	_, err := New([]route.Definition{
		{Name: "a", Path: "/a"},
		{Name: "a", Path: "/b"},
	})
	var dup *routeerr.DuplicateNamesError
	if !errors.As(err, &dup) {
		t.Fatalf("New() error = %v, want DuplicateNamesError", err)
	}
	if dup.Name != "a" {
		t.Errorf("Name = %q, want a", dup.Name)
	}
}

func TestNewDuplicateParams(t *testing.T) {
	_, err := New([]route.Definition{{
		Name:     "a",
		Path:     "/[id]",
		Children: []route.Definition{{Name: "b", Path: "/[id]"}},
	}})
	if !errors.Is(err, routeerr.ErrDuplicateParams) {
		t.Errorf("New() error = %v, want ErrDuplicateParams", err)
	}
}

func TestResolve(t *testing.T) {
	r := newTestRouter(t, []route.Definition{
		{Name: "search", Path: "/search", Query: "q=[?q]"},
		{Name: "off", Path: "/off", Disabled: true},
	})

	tests := []struct {
		name   string
		source string
		params map[string]any
		opts   []ResolveOption
		want   string
	}{
		{"name only", "search", nil, nil, "/search"},
		{"declared query", "search", map[string]any{"q": "go"}, nil, "/search?q=go"},
		{"extra query", "search", nil, []ResolveOption{WithQuery(url.Values{"page": {"2"}})}, "/search?page=2"},
		{"hash", "search", nil, []ResolveOption{WithHash("top")}, "/search#top"},
		{"url passthrough", "/anything?x=1", nil, nil, "/anything?x=1"},
		{"url with options", "/anything?x=1#old", nil, []ResolveOption{WithQuery(url.Values{"y": {"2"}}), WithHash("new")}, "/anything?x=1&y=2#new"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.source, tt.params, tt.opts...)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := r.Resolve("missing", nil); !errors.Is(err, routeerr.ErrRouteNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrRouteNotFound", err)
	}
	if _, err := r.Resolve("off", nil); !errors.Is(err, routeerr.ErrRouteDisabled) {
		t.Errorf("Resolve(off) error = %v, want ErrRouteDisabled", err)
	}
}

func TestFindByName(t *testing.T) {
	r := newTestRouter(t, []route.Definition{
		{Name: "post", Path: "/posts/[id]", Params: map[string]param.Param{"id": param.Number}},
	})

	resolved, ok := r.Find("post", map[string]any{"id": 3})
	if !ok {
		t.Fatal("Find(post) found nothing")
	}
	if resolved.Href != "/posts/3" {
		t.Errorf("Href = %q, want /posts/3", resolved.Href)
	}
	if resolved.Params["id"] != float64(3) {
		t.Errorf("id = %#v, want float64(3)", resolved.Params["id"])
	}

	if _, ok := r.Find("post", nil); ok {
		t.Error("Find(post) without id should fail")
	}
	if _, ok := r.Find("missing", nil); ok {
		t.Error("Find(missing) should fail")
	}
	if _, ok := r.Find("/nowhere", nil); ok {
		t.Error("Find(/nowhere) should fail")
	}
}

func TestFindDisabled(t *testing.T) {
	r := newTestRouter(t, []route.Definition{
		{Name: "off", Path: "/off", Disabled: true},
	})
	if resolved, ok := r.Find("off", nil); ok {
		t.Errorf("Find(off) = %v, want not found", resolved)
	}
}

func TestResolveLookupRoundtrip(t *testing.T) {
	r := newTestRouter(t, []route.Definition{
		{Name: "home", Path: "/"},
		{Name: "edit", Path: "/users/[?id]/edit"},
		{Name: "file", Path: "/files/[name]"},
		{Name: "tree", Path: "/tree/[...path]"},
	})

	tests := []struct {
		name   string
		route  string
		params map[string]any
		want   map[string]any
	}{
		{"empty optional mid-path", "edit", nil, map[string]any{"id": nil}},
		{"optional mid-path", "edit", map[string]any{"id": "7"}, map[string]any{"id": "7"}},
		{"dot segment value", "file", map[string]any{"name": "."}, map[string]any{"name": "."}},
		{"dot-dot segment value", "file", map[string]any{"name": ".."}, map[string]any{"name": ".."}},
		{"dot-dot inside catch-all", "tree", map[string]any{"path": "a/../b"}, map[string]any{"path": "a/../b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			href, err := r.Resolve(tt.route, tt.params)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			resolved := r.Lookup(href)
			if resolved.Name != tt.route {
				t.Fatalf("Lookup(%q).Name = %q, want %q", href, resolved.Name, tt.route)
			}
			if !reflect.DeepEqual(resolved.Params, tt.want) {
				t.Errorf("Lookup(%q).Params = %v, want %v", href, resolved.Params, tt.want)
			}
			if _, ok := r.Find(tt.route, tt.params); !ok {
				t.Errorf("Find(%q) found nothing", tt.route)
			}
		})
	}
}

func TestLookupNotFound(t *testing.T) {
	r := newTestRouter(t,
		[]route.Definition{{Name: "home", Path: "/"}},
		WithRejection(route.NotFound, "404 page"),
	)

	for _, href := range []string{"/missing", "/bad/%GG"} {
		resolved := r.Lookup(href)
		if !resolved.IsRejection() {
			t.Fatalf("Lookup(%q) is not a rejection", href)
		}
		if resolved.Rejection.Type != route.NotFound {
			t.Errorf("Type = %q, want NotFound", resolved.Rejection.Type)
		}
		if resolved.Rejection.Component != "404 page" {
			t.Errorf("Component = %v", resolved.Rejection.Component)
		}
		if len(resolved.Params) != 0 {
			t.Errorf("Params = %v, want empty", resolved.Params)
		}
	}
}

func TestLookupSkipsDisabled(t *testing.T) {
	r := newTestRouter(t, []route.Definition{
		{Name: "off", Path: "/x", Disabled: true},
		{Name: "on", Path: "/[slug]"},
	})
	if got := r.Lookup("/x").Name; got != "on" {
		t.Errorf("Lookup(/x).Name = %q, want on", got)
	}
}

func TestLookupQueryAndHash(t *testing.T) {
	r := newTestRouter(t, []route.Definition{{Name: "list", Path: "/list"}})
	resolved := r.Lookup("/list?a=1&a=2&b=3#bottom")
	if got := resolved.Query["a"]; !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Query[a] = %v", got)
	}
	if resolved.Hash != "bottom" {
		t.Errorf("Hash = %q, want bottom", resolved.Hash)
	}
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(t, []route.Definition{
		{Name: "a", Path: "/a"},
		{Path: "/b"},
	})
	if got := len(r.Routes()); got != 2 {
		t.Errorf("len(Routes()) = %d, want 2", got)
	}
	if _, ok := r.Route("a"); !ok {
		t.Error("Route(a) not found")
	}
	if cur := r.Current(); !cur.IsRejection() {
		t.Errorf("Current() before navigation = %v, want rejection", cur.Name)
	}
}
