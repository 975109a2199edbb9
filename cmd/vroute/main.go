// Command vroute inspects and exercises a vroute manifest.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vroute/internal/config"
	"github.com/vango-dev/vroute/internal/errors"
	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/router"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the persistent flags.
type globals struct {
	config  string
	verbose bool
	noColor bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(errors.FromError(err, "E140"))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "vroute",
		Short: "Inspect and exercise client-side route manifests",
		Long: `vroute loads a route manifest (vroute.yaml or vroute.json) and
answers questions about it:

  • which routes it declares
  • which route a URL resolves to
  • which URL a route name and params produce
  • what the current route is while navigating, over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				errors.Colors = false
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.config, "config", "c", "", "Manifest file, directory or s3://bucket/key (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		routesCmd(g),
		matchCmd(g),
		resolveCmd(g),
		serveCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// logger returns a text logger on w at the level the flags select.
func (g *globals) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// load reads the manifest and builds its router.
func (g *globals) load(ctx context.Context, logger *slog.Logger, opts ...router.Option) (*config.Config, *router.Router, error) {
	cfg, err := config.LoadSource(ctx, g.config)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("manifest loaded", "source", cfg.Source(), "routes", len(cfg.Routes))

	r, err := cfg.Router(append([]router.Option{router.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, r, nil
}

// parseParams decodes name=value flags with the codecs of rt.
func parseParams(rt *route.Route, pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, errors.New("E142").WithDetail(fmt.Sprintf("%q is not name=value", pair))
		}
		c, ok := rt.Codec(name)
		if !ok {
			return nil, errors.New("E142").
				WithDetail(fmt.Sprintf("Route %s has no param %q", rt.Key, name)).
				WithSuggestion("Params of " + rt.Key + ": " + strings.Join(rt.ParamNames(), ", "))
		}
		v, err := c.Decode(raw, true)
		if err != nil {
			return nil, errors.FromError(err, "E142")
		}
		params[name] = v
	}
	return params, nil
}
