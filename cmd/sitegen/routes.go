package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"agency_site_go/services/routing"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table and check the slugs",
	Long: `Print every page with its localized path per locale and its route
pattern, then validate the slug table. Exits non-zero on slug collisions.`,
	RunE: runRoutes,
}

func runRoutes(cmd *cobra.Command, args []string) error {
	b, err := newBuilder()
	if err != nil {
		return err
	}
	router := b.Router()
	out := cmd.OutOrStdout()

	printRoutes(out, router)

	if missing := router.MissingTranslations(); len(missing) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Untranslated slugs:")
		for _, m := range missing {
			fmt.Fprintln(out, "  "+m)
		}
	}
	if err := router.ValidateSlugs(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d static paths, slugs OK\n", len(router.EnumerateStaticPaths()))
	return nil
}

func printRoutes(out io.Writer, router *routing.Router) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "PAGE")
	for _, l := range router.Locales() {
		fmt.Fprintf(w, "\t%s", l)
	}
	fmt.Fprintln(w, "\tPATTERN")
	for _, p := range routing.Pages() {
		fmt.Fprint(w, p)
		for _, l := range router.Locales() {
			fmt.Fprintf(w, "\t%s", router.BuildLocalizedPath(l, p))
		}
		pattern, _ := router.GetRoutePattern(p)
		fmt.Fprintf(w, "\t%s\n", pattern)
	}
	w.Flush()
}
