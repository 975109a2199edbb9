package matcher

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/vroute/pkg/param"
	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/routepath"
)

func compose(t *testing.T, defs ...route.Definition) []*route.Route {
	t.Helper()
	routes, err := route.Compose(defs...)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	return routes
}

func parse(t *testing.T, raw string) routepath.URL {
	t.Helper()
	u, err := routepath.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", raw, err)
	}
	return u
}

func matchKey(t *testing.T, routes []*route.Route, raw string) string {
	t.Helper()
	res, ok := Match(routes, parse(t, raw))
	if !ok {
		return ""
	}
	return res.Route.Key
}

func TestMatchBasic(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "home", Path: "/"},
		route.Definition{Name: "user", Path: "/users/[id]"},
		route.Definition{Name: "files", Path: "/files/[...path]"},
		route.Definition{Path: "/hidden"},
	)

	tests := []struct {
		url  string
		want string
	}{
		{"/", "home"},
		{"/users/42", "user"},
		{"/USERS/42", "user"},
		{"/users/42/", "user"},
		{"/users", ""},
		{"/users/42/extra", ""},
		{"/files/a/b/c.txt", "files"},
		{"/hidden", ""},
		{"https://example.com/users/7?x=1#top", "user"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := matchKey(t, routes, tt.url); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestMatchParams(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "user", Path: "/users/[id]"},
		route.Definition{Name: "files", Path: "/files/[...path]"},
	)

	tests := []struct {
		url  string
		want map[string]any
	}{
		{"/users/42", map[string]any{"id": "42"}},
		{"/users/Ada%20L", map[string]any{"id": "Ada L"}},
		{"/files/a/b%20c", map[string]any{"path": "a/b c"}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			res, ok := Match(routes, parse(t, tt.url))
			if !ok {
				t.Fatalf("Match(%q) found nothing", tt.url)
			}
			if !reflect.DeepEqual(res.Params, tt.want) {
				t.Errorf("Params = %v, want %v", res.Params, tt.want)
			}
		})
	}
}

func TestMatchEncodedSlashRejected(t *testing.T) {
	routes := compose(t, route.Definition{Name: "user", Path: "/users/[id]"})
	if key := matchKey(t, routes, "/users/a%2Fb"); key != "" {
		t.Errorf("Match() = %q, want no match", key)
	}
}

func TestMatchParamTypesFilter(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "byID", Path: "/items/[id]", Params: map[string]param.Param{"id": param.Number}},
		route.Definition{Name: "bySlug", Path: "/items/[slug]"},
	)

	if got := matchKey(t, routes, "/items/12"); got != "byID" {
		t.Errorf("Match(/items/12) = %q, want byID", got)
	}
	if got := matchKey(t, routes, "/items/widget"); got != "bySlug" {
		t.Errorf("Match(/items/widget) = %q, want bySlug", got)
	}

	res, _ := Match(routes, parse(t, "/items/12"))
	if got := res.Params["id"]; got != float64(12) {
		t.Errorf("id = %#v, want float64(12)", got)
	}
}

func TestMatchDepthWins(t *testing.T) {
	routes := compose(t, route.Definition{
		Name:     "a",
		Path:     "/x",
		Children: []route.Definition{{Name: "b"}},
	})

	if got := matchKey(t, routes, "/x"); got != "a.b" {
		t.Errorf("Match(/x) = %q, want a.b", got)
	}
}

func TestMatchOptionalTieBreak(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "plain", Path: "/r"},
		route.Definition{Name: "withX", Path: "/r", Query: "x=[?x]"},
	)

	if got := matchKey(t, routes, "/r?x=1"); got != "withX" {
		t.Errorf("Match(/r?x=1) = %q, want withX", got)
	}
	// Without the optional value both routes score the same; order decides.
	if got := matchKey(t, routes, "/r"); got != "plain" {
		t.Errorf("Match(/r) = %q, want plain", got)
	}
}

func TestMatchOptionalPathParam(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "list", Path: "/list/[?page]", Params: map[string]param.Param{"page": param.Number}},
	)

	res, ok := Match(routes, parse(t, "/list/"))
	if !ok {
		t.Fatal("Match(/list/) found nothing")
	}
	if v, ok := res.Params["page"]; !ok || v != nil {
		t.Errorf("page = %v, %v; want nil, true", v, ok)
	}
	if res.OptionalPresent != 0 {
		t.Errorf("OptionalPresent = %d, want 0", res.OptionalPresent)
	}

	res, ok = Match(routes, parse(t, "/list/3"))
	if !ok {
		t.Fatal("Match(/list/3) found nothing")
	}
	if res.Params["page"] != float64(3) || res.OptionalPresent != 1 {
		t.Errorf("Match(/list/3) = %v, %d", res.Params, res.OptionalPresent)
	}
}

func TestMatchDefaultParamMayBeAbsent(t *testing.T) {
	routes := compose(t,
		route.Definition{
			Name:  "list",
			Path:  "/list/[sort]",
			Query: "page=[page]",
			Params: map[string]param.Param{
				"sort": param.Default(param.String, "name"),
				"page": param.Default(param.Number, float64(1)),
			},
		},
		route.Definition{
			Name:   "feed",
			Path:   "/feed",
			Query:  "page=[page]",
			Params: map[string]param.Param{"page": param.Default(param.Number, float64(1))},
		},
	)

	tests := []struct {
		url  string
		want map[string]any
	}{
		{"/list/", map[string]any{"sort": "name", "page": float64(1)}},
		{"/list/date?page=4", map[string]any{"sort": "date", "page": float64(4)}},
		{"/list/?page=", map[string]any{"sort": "name", "page": float64(1)}},
		{"/feed", map[string]any{"page": float64(1)}},
		{"/feed?page=2", map[string]any{"page": float64(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			res, ok := Match(routes, parse(t, tt.url))
			if !ok {
				t.Fatalf("Match(%q) found nothing", tt.url)
			}
			if !reflect.DeepEqual(res.Params, tt.want) {
				t.Errorf("Match(%q) params = %v, want %v", tt.url, res.Params, tt.want)
			}
		})
	}
}

func TestMatchQuery(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "edit", Path: "/doc", Query: "mode=edit&rev=[rev]"},
		route.Definition{Name: "view", Path: "/doc", Query: "mode=view"},
	)

	tests := []struct {
		url  string
		want string
	}{
		{"/doc?mode=edit&rev=3", "edit"},
		{"/doc?rev=3&mode=edit&extra=1", "edit"},
		{"/doc?mode=edit", ""},
		{"/doc?mode=view", "view"},
		{"/doc?mode=VIEW", ""},
		{"/doc?mode=view&mode=edit&rev=1", "edit"},
		{"/doc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := matchKey(t, routes, tt.url); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestMatchHash(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "page", Path: "/page"},
		route.Definition{Name: "section", Path: "/page", Hash: "#details"},
		route.Definition{Name: "anchor", Path: "/anchor", Hash: "[id]"},
	)

	tests := []struct {
		url  string
		want string
	}{
		{"/page", "page"},
		{"/page#details", "section"},
		{"/page##DETAILS", "section"},
		{"/page#other", "page"},
		{"/anchor", ""},
		{"/anchor#intro", "anchor"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := matchKey(t, routes, tt.url); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestMatchHost(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "tenant", Host: "[tenant].example.com", Path: "/dashboard"},
	)

	res, ok := Match(routes, parse(t, "https://acme.example.com/dashboard"))
	if !ok {
		t.Fatal("absolute URL did not match")
	}
	if res.Params["tenant"] != "acme" {
		t.Errorf("tenant = %v, want acme", res.Params["tenant"])
	}

	if _, ok := Match(routes, parse(t, "https://other.org/dashboard")); ok {
		t.Error("foreign host matched")
	}

	// Relative URLs skip the host comparison.
	res, ok = Match(routes, parse(t, "/dashboard"))
	if !ok {
		t.Fatal("relative URL did not match")
	}
	if _, ok := res.Params["tenant"]; ok {
		t.Error("host params should not be decoded for relative URLs")
	}
}

func TestMatchDeterministic(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "a", Path: "/p/[x]"},
		route.Definition{Name: "b", Path: "/p/[y]"},
		route.Definition{Name: "c", Path: "/p/[?z]"},
	)
	u := parse(t, "/p/1")
	first, _ := Match(routes, u)
	for i := 0; i < 50; i++ {
		got, _ := Match(routes, u)
		if got.Route != first.Route {
			t.Fatalf("Match() iteration %d = %q, want %q", i, got.Route.Key, first.Route.Key)
		}
	}
	// c uses its optional param, so it outranks a and b.
	if first.Route.Key != "c" {
		t.Errorf("Match() = %q, want c", first.Route.Key)
	}
}

func TestMatchAllOrder(t *testing.T) {
	routes := compose(t,
		route.Definition{Name: "shallow", Path: "/s"},
		route.Definition{Name: "parent", Path: "/s", Children: []route.Definition{{Name: "deep"}}},
		route.Definition{Name: "hashed", Path: "/s", Hash: "top"},
	)

	all := MatchAll(routes, parse(t, "/s#top"))
	var got []string
	for _, r := range all {
		got = append(got, r.Route.Key)
	}
	want := []string{"parent.deep", "hashed", "shallow", "parent"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MatchAll() = %v, want %v", got, want)
	}
	if d := all[1].Describe(); d != "depth=1 optional=0 hash=true" {
		t.Errorf("Describe() = %q", d)
	}
}

func TestExtractParams(t *testing.T) {
	routes := compose(t, route.Definition{
		Name:   "post",
		Path:   "/posts/[id]",
		Query:  "tags=[?tags]",
		Params: map[string]param.Param{"id": param.Number, "tags": param.ArrayOf()},
	})
	r := routes[0]

	got, err := ExtractParams(r, parse(t, "/posts/5?tags=go,web"))
	if err != nil {
		t.Fatalf("ExtractParams() error = %v", err)
	}
	want := map[string]any{"id": float64(5), "tags": []any{"go", "web"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractParams() = %v, want %v", got, want)
	}

	if _, err := ExtractParams(r, parse(t, "/other")); !errors.Is(err, ErrNoMatch) {
		t.Errorf("ExtractParams(/other) error = %v, want ErrNoMatch", err)
	}
	if _, err := ExtractParams(r, parse(t, "/posts/abc")); !errors.Is(err, routeerr.ErrInvalidParamValue) {
		t.Errorf("ExtractParams(/posts/abc) error = %v, want ErrInvalidParamValue", err)
	}
}
