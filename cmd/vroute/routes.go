package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vroute/pkg/inspect"
)

func routesCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes of the manifest",
		Long: `List every named route with its composed templates and params.

Examples:
  vroute routes
  vroute routes --json
  vroute routes -c s3://config/prod/vroute.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, r, err := g.load(cmd.Context(), g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			var views []inspect.RouteView
			for _, rt := range r.Routes() {
				if rt.IsNamed() {
					views = append(views, inspect.NewRouteView(rt))
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			return printRoutes(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func printRoutes(w io.Writer, views []inspect.RouteView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tURL\tPARAMS\tNOTES")
	for _, v := range views {
		url := v.Host + v.Path
		if v.Query != "" {
			url += "?" + v.Query
		}
		if v.Hash != "" {
			url += "#" + v.Hash
		}

		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			params[i] = p.Name + ":" + p.Type
		}

		var notes []string
		if v.Disabled {
			notes = append(notes, "disabled")
		}
		if v.RedirectTo != "" {
			notes = append(notes, "→ "+v.RedirectTo)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, url, strings.Join(params, " "), strings.Join(notes, ", "))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
