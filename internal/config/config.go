package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vroute/internal/errors"
)

// FileNames are the manifest names Load looks for, in order.
var FileNames = []string{"vroute.yaml", "vroute.yml", "vroute.json"}

const (
	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultMaxRedirects is the default redirect limit of a navigation.
	DefaultMaxRedirects = 10
)

// Config is a parsed vroute manifest.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// RouterConfig contains router settings.
	RouterConfig RouterConfig `json:"router,omitempty" yaml:"router,omitempty"`

	// Inspect contains inspector server settings.
	Inspect InspectConfig `json:"inspect,omitempty" yaml:"inspect,omitempty"`

	// Routes is the declared route tree.
	Routes []RouteConfig `json:"routes" yaml:"routes" validate:"required,min=1,dive"`

	// source is the file path or URI the config was loaded from.
	source string
}

// RouterConfig contains router settings.
type RouterConfig struct {
	// MaxRedirects bounds the redirects one navigation may follow.
	MaxRedirects int `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty" validate:"gte=0,lte=100"`
}

// InspectConfig contains inspector server settings.
type InspectConfig struct {
	// Addr is the host:port the inspector listens on.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" validate:"hostname_port"`

	// Metrics enables the /metrics endpoint.
	Metrics *bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// MetricsEnabled reports whether /metrics is served. It defaults to true.
func (c InspectConfig) MetricsEnabled() bool {
	return c.Metrics == nil || *c.Metrics
}

// RouteConfig declares one route of the manifest.
type RouteConfig struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty" validate:"omitempty,excludes=."`
	Host  string `json:"host,omitempty" yaml:"host,omitempty"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty" validate:"omitempty,startswith=/"`
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
	Hash  string `json:"hash,omitempty" yaml:"hash,omitempty"`

	// Params maps placeholder names to param types.
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`

	// State maps navigation state names to param types.
	State map[string]string `json:"state,omitempty" yaml:"state,omitempty"`

	Disabled  bool           `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Title     string         `json:"title,omitempty" yaml:"title,omitempty"`
	Component string         `json:"component,omitempty" yaml:"component,omitempty"`
	Meta      map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`

	// RedirectTo is the key of the route navigations to this route
	// continue to.
	RedirectTo string `json:"redirectTo,omitempty" yaml:"redirectTo,omitempty"`

	Children []RouteConfig `json:"children,omitempty" yaml:"children,omitempty" validate:"dive"`
}

// New creates a Config with default values and no routes.
func New() *Config {
	return &Config{
		RouterConfig: RouterConfig{MaxRedirects: DefaultMaxRedirects},
		Inspect:      InspectConfig{Addr: DefaultInspectAddr},
	}
}

// Load reads the manifest in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E120").
		WithDetail("No vroute.yaml or vroute.json found in " + dir)
}

// LoadFile reads the manifest at path. Files ending in .json are decoded as
// JSON, anything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E120").
				WithDetail("No manifest found at " + path)
		}
		return nil, errors.New("E121").Wrap(err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		if ce, ok := err.(*errors.CodedError); ok && ce.Code == "E121" {
			ce.WithLocationFromError(path, ce.Wrapped)
		}
		return nil, err
	}
	cfg.source = path
	return cfg, nil
}

// Parse decodes a manifest. ext selects the format: ".json" for JSON,
// anything else for YAML. The result has defaults applied and is validated.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := New()

	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E121").Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Source returns the file path or URI the config was loaded from.
func (c *Config) Source() string {
	return c.source
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.RouterConfig.MaxRedirects == 0 {
		c.RouterConfig.MaxRedirects = DefaultMaxRedirects
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
}

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// Validate checks the manifest structure and every param type.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		ce := errors.New("E122").Wrap(err)
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			ce.WithDetail(describeField(verrs[0]))
		}
		return ce
	}
	return walk(c.Routes, "", func(key string, rc RouteConfig) error {
		for name, typ := range rc.Params {
			if _, err := ParseParam(typ); err != nil {
				return errors.New("E123").
					WithDetail("Param " + name + " of route " + describeRoute(key, rc) + ": " + err.Error())
			}
		}
		for name, typ := range rc.State {
			if _, err := ParseParam(typ); err != nil {
				return errors.New("E123").
					WithDetail("State " + name + " of route " + describeRoute(key, rc) + ": " + err.Error())
			}
		}
		return nil
	})
}

func describeField(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Param() != "" {
		return field + " failed " + fe.Tag() + "=" + fe.Param()
	}
	return field + " failed " + fe.Tag()
}

func describeRoute(key string, rc RouteConfig) string {
	if key != "" {
		return key
	}
	return rc.Path
}

// walk visits every route config depth-first with its composed key.
func walk(routes []RouteConfig, parentKey string, fn func(key string, rc RouteConfig) error) error {
	for _, rc := range routes {
		key := parentKey
		if rc.Name != "" {
			key = joinKey(parentKey, rc.Name)
		}
		if err := fn(key, rc); err != nil {
			return err
		}
		if err := walk(rc.Children, key, fn); err != nil {
			return err
		}
	}
	return nil
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// FindProjectRoot walks up from startDir to the first directory holding a
// manifest.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range FileNames {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E120").
				WithDetail("No manifest found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads the manifest of the current working directory or
// its nearest parent.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
