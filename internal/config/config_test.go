package config

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/vroute/internal/errors"
	"github.com/vango-dev/vroute/pkg/param"
	"github.com/vango-dev/vroute/pkg/router"
)

const manifestYAML = `name: shop
router:
  maxRedirects: 3
routes:
  - name: home
    path: /
  - name: users
    path: /users
    title: Users
    children:
      - name: show
        path: /[id]
        params:
          id: number
      - name: list
        query: page=[?page]
        params:
          page: number=1
  - name: legacy
    path: /old-users
    redirectTo: users.list
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func codeOf(err error) string {
	var ce *errors.CodedError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.RouterConfig.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("Router.MaxRedirects = %d, want %d", cfg.RouterConfig.MaxRedirects, DefaultMaxRedirects)
	}
	if cfg.Inspect.Addr != DefaultInspectAddr {
		t.Errorf("Inspect.Addr = %q, want %q", cfg.Inspect.Addr, DefaultInspectAddr)
	}
	if !cfg.Inspect.MetricsEnabled() {
		t.Error("metrics should default to enabled")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if code := codeOf(err); code != "E120" {
		t.Fatalf("Load() on empty dir code = %q, want E120", code)
	}

	path := writeFile(t, tmpDir, "vroute.yaml", manifestYAML)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Source() != path {
		t.Errorf("Source() = %q, want %q", cfg.Source(), path)
	}
	if cfg.Name != "shop" {
		t.Errorf("Name = %q, want %q", cfg.Name, "shop")
	}
	if cfg.RouterConfig.MaxRedirects != 3 {
		t.Errorf("Router.MaxRedirects = %d, want 3", cfg.RouterConfig.MaxRedirects)
	}
	if cfg.Inspect.Addr != DefaultInspectAddr {
		t.Errorf("Inspect.Addr = %q, want default", cfg.Inspect.Addr)
	}
	if len(cfg.Routes) != 3 || len(cfg.Routes[1].Children) != 2 {
		t.Fatalf("Routes = %+v", cfg.Routes)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "vroute.json", `{
  "inspect": {"addr": "0.0.0.0:9000", "metrics": false},
  "routes": [{"name": "home", "path": "/"}]
}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Inspect.Addr != "0.0.0.0:9000" {
		t.Errorf("Inspect.Addr = %q", cfg.Inspect.Addr)
	}
	if cfg.Inspect.MetricsEnabled() {
		t.Error("metrics should be disabled")
	}
	if cfg.RouterConfig.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("Router.MaxRedirects = %d, want default", cfg.RouterConfig.MaxRedirects)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
		wantLoc  bool
	}{
		{
			name:     "missing",
			file:     "",
			wantCode: "E120",
		},
		{
			name:     "bad yaml",
			file:     "bad.yaml",
			content:  "routes:\n  - name: home\n   path: /\n",
			wantCode: "E121",
			wantLoc:  true,
		},
		{
			name:     "bad json",
			file:     "bad.json",
			content:  "{routes: }",
			wantCode: "E121",
		},
		{
			name:     "no routes",
			file:     "empty.yaml",
			content:  "name: shop\n",
			wantCode: "E122",
		},
		{
			name:     "relative path",
			file:     "rel.yaml",
			content:  "routes:\n  - name: home\n    path: home\n",
			wantCode: "E122",
		},
		{
			name:     "dotted name",
			file:     "dot.yaml",
			content:  "routes:\n  - name: a.b\n    path: /\n",
			wantCode: "E122",
		},
		{
			name:     "bad inspect addr",
			file:     "addr.yaml",
			content:  "inspect:\n  addr: nope\nroutes:\n  - path: /\n",
			wantCode: "E122",
		},
		{
			name:     "unknown param type",
			file:     "type.yaml",
			content:  "routes:\n  - name: show\n    path: /[id]\n    params:\n      id: integer\n",
			wantCode: "E123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, "missing.yaml")
			if tt.file != "" {
				path = writeFile(t, tmpDir, tt.file, tt.content)
			}
			_, err := LoadFile(path)
			if code := codeOf(err); code != tt.wantCode {
				t.Fatalf("LoadFile() error = %v, want code %s", err, tt.wantCode)
			}
			if tt.wantLoc {
				var ce *errors.CodedError
				stderrors.As(err, &ce)
				if ce.Location == nil || ce.Location.File != path {
					t.Errorf("Location = %+v, want a line in %s", ce.Location, path)
				}
			}
		})
	}
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		typ      string
		want     string
		raw      string
		wantErr  bool
		decoded  any
		optional bool
	}{
		{typ: "string", want: "string", raw: "a", decoded: "a"},
		{typ: "", want: "string", raw: "a", decoded: "a"},
		{typ: "number", want: "number", raw: "4", decoded: float64(4)},
		{typ: "boolean", want: "boolean", raw: "true", decoded: true},
		{typ: "uuid", want: "uuid"},
		{typ: "regexp:^[a-z]+$", want: "regexp(^[a-z]+$)", raw: "abc", decoded: "abc"},
		{typ: "validate:oneof=asc desc", want: "validated(oneof=asc desc)", raw: "asc", decoded: "asc"},
		{typ: "array:number", want: "array(number)"},
		{typ: "number=1", want: "default(number, 1)", decoded: float64(1), optional: true},
		{typ: "?boolean", want: "optional(boolean)", decoded: nil, optional: true},
		{typ: "integer", wantErr: true},
		{typ: "regexp:[", wantErr: true},
		{typ: "validate:", wantErr: true},
		{typ: "number=x", wantErr: true},
		{typ: "array:date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			p, err := ParseParam(tt.typ)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseParam(%q) = %s, want error", tt.typ, p)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseParam(%q) error = %v", tt.typ, err)
			}
			if got := p.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if p.IsOptional() != tt.optional {
				t.Errorf("IsOptional() = %v, want %v", p.IsOptional(), tt.optional)
			}
			if tt.raw == "" && !tt.optional {
				return
			}
			got, err := param.Normalize("v", p).Decode(tt.raw, tt.raw != "")
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.raw, err)
			}
			if got != tt.decoded {
				t.Errorf("Decode(%q) = %v, want %v", tt.raw, got, tt.decoded)
			}
		})
	}
}

func TestRouter(t *testing.T) {
	cfg, err := Parse([]byte(manifestYAML), ".yaml")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	r, err := cfg.Router(router.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Router error: %v", err)
	}

	href, err := r.Resolve("users.show", map[string]any{"id": 7})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if href != "/users/7" {
		t.Errorf("Resolve() = %q, want %q", href, "/users/7")
	}

	got := r.Lookup("/users?page=2")
	if got.Name != "users.list" {
		t.Fatalf("Lookup().Name = %q, want users.list", got.Name)
	}
	if got.Params["page"] != float64(2) {
		t.Errorf("page = %v, want 2", got.Params["page"])
	}

	legacy, _ := r.Route("legacy")
	redirect, ok := legacy.RedirectTarget()
	if !ok || redirect.To.Key != "users.list" {
		t.Fatalf("RedirectTarget() = %+v, %v", redirect, ok)
	}

	to, err := r.Push(context.Background(), "/old-users", nil)
	if err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if to.Name != "users.list" {
		t.Errorf("Push() landed on %q, want users.list", to.Name)
	}
}

func TestRouterErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantCode string
	}{
		{
			name:     "unknown redirect target",
			manifest: "routes:\n  - name: a\n    path: /a\n    redirectTo: b\n",
			wantCode: "E125",
		},
		{
			name:     "unnamed redirect",
			manifest: "routes:\n  - path: /a\n    redirectTo: b\n  - name: b\n    path: /b\n",
			wantCode: "E125",
		},
		{
			name:     "duplicate names",
			manifest: "routes:\n  - name: a\n    path: /a\n  - name: a\n    path: /b\n",
			wantCode: "E101",
		},
		{
			name:     "duplicate params",
			manifest: "routes:\n  - name: a\n    path: /[id]\n    query: id=[id]\n",
			wantCode: "E100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.manifest), ".yaml")
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			_, err = cfg.Router()
			if code := codeOf(err); code != tt.wantCode {
				t.Errorf("Router() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "vroute.yml", "routes:\n  - path: /\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindProjectRoot() = %q, want %q", got, want)
	}
}

func TestLoadSource(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "routes.yaml", manifestYAML)

	cfg, err := LoadSource(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadSource(file) error: %v", err)
	}
	if cfg.Name != "shop" {
		t.Errorf("Name = %q", cfg.Name)
	}

	dir := t.TempDir()
	writeFile(t, dir, "vroute.yaml", manifestYAML)
	if _, err := LoadSource(context.Background(), dir); err != nil {
		t.Errorf("LoadSource(dir) error: %v", err)
	}
}

type fakeS3 struct {
	objects map[string]string
	gotKey  string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotKey = aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	body, ok := f.objects[f.gotKey]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestLoadS3(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"cfg/prod/vroute.yaml": manifestYAML,
		"cfg/prod/vroute.json": `{"routes": [{"name": "home", "path": "/"}]}`,
	}}

	cfg, err := LoadS3(context.Background(), client, "s3://cfg/prod/vroute.yaml")
	if err != nil {
		t.Fatalf("LoadS3 error: %v", err)
	}
	if cfg.Name != "shop" || cfg.Source() != "s3://cfg/prod/vroute.yaml" {
		t.Errorf("cfg = %q from %q", cfg.Name, cfg.Source())
	}

	cfg, err = LoadS3(context.Background(), client, "s3://cfg/prod/vroute.json")
	if err != nil {
		t.Fatalf("LoadS3 json error: %v", err)
	}
	if len(cfg.Routes) != 1 {
		t.Errorf("Routes = %+v", cfg.Routes)
	}

	_, err = LoadS3(context.Background(), client, "s3://cfg/missing.yaml")
	if code := codeOf(err); code != "E124" {
		t.Errorf("missing object code = %q, want E124", code)
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri      string
		bucket   string
		key      string
		wantErr  bool
		wantIsS3 bool
	}{
		{uri: "s3://b/k.yaml", bucket: "b", key: "k.yaml", wantIsS3: true},
		{uri: "s3://b/dir/k.json", bucket: "b", key: "dir/k.json", wantIsS3: true},
		{uri: "s3://b", wantErr: true, wantIsS3: true},
		{uri: "s3:///k", wantErr: true, wantIsS3: true},
		{uri: "/local/vroute.yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if IsS3URI(tt.uri) != tt.wantIsS3 {
				t.Errorf("IsS3URI() = %v, want %v", !tt.wantIsS3, tt.wantIsS3)
			}
			bucket, key, err := ParseS3URI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseS3URI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("ParseS3URI() = %q, %q, want %q, %q", bucket, key, tt.bucket, tt.key)
			}
		})
	}
}
