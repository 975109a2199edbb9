package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vroute/internal/errors"
	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/router"
)

func resolveCmd(g *globals) *cobra.Command {
	var (
		params []string
		query  []string
		hash   string
	)

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Build the URL of a route",
		Long: `Build the URL of a named route. Param values are decoded with the
route's param types before assembly.

Examples:
  vroute resolve users.show --param id=42
  vroute resolve search --param q=go --query page=2 --hash results`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, r, err := g.load(cmd.Context(), g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			name := args[0]
			rt, ok := r.Route(name)
			if !ok {
				return errors.FromError(&routeerr.RouteNotFoundError{Name: name}, "E140")
			}
			values, err := parseParams(rt, params)
			if err != nil {
				return err
			}

			var opts []router.ResolveOption
			if len(query) > 0 {
				q := url.Values{}
				for _, pair := range query {
					k, v, _ := strings.Cut(pair, "=")
					q.Add(k, v)
				}
				opts = append(opts, router.WithQuery(q))
			}
			if hash != "" {
				opts = append(opts, router.WithHash(hash))
			}

			href, err := r.Resolve(name, values, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), href)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Route param as name=value (repeatable)")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "Extra query pair as key=value (repeatable)")
	cmd.Flags().StringVar(&hash, "hash", "", "Hash fragment")

	return cmd
}
