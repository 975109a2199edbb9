package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vroute/internal/errors"
	"github.com/vango-dev/vroute/pkg/inspect"
)

func matchCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <url>",
		Short: "Resolve a URL to a route",
		Long: `Resolve a URL against the manifest and print the matched route
with its decoded params.

Examples:
  vroute match /users/42
  vroute match "/users?page=2#top" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, r, err := g.load(cmd.Context(), g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			resolved := r.Lookup(args[0])
			view := inspect.NewResolvedView(resolved)
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), view); err != nil {
					return err
				}
			}
			if resolved.IsRejection() {
				return errors.New("E109").WithDetail(args[0] + " resolves to a " + view.Rejection + " rejection")
			}
			if asJSON {
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "route:  %s\n", view.Name)
			fmt.Fprintf(out, "href:   %s\n", view.Href)
			for _, name := range sortedKeys(view.Params) {
				fmt.Fprintf(out, "param:  %s = %v\n", name, view.Params[name])
			}
			for _, name := range sortedKeys(view.Query) {
				fmt.Fprintf(out, "query:  %s = %v\n", name, view.Query[name])
			}
			if view.Hash != "" {
				fmt.Fprintf(out, "hash:   %s\n", view.Hash)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
