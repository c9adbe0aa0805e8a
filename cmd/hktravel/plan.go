package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"hktravel/internal/catalog"
	"hktravel/internal/domain"
	"hktravel/internal/planner"
)

var (
	planFrom       string
	planTo         string
	planPreference string
	planJSON       bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a journey between two places",
	Example: `  hktravel plan --from star-ferry-tst --to "ladies market"
  hktravel plan -f ifc-mall -t ocean-park -p cheapest`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFrom, "from", "f", "", "Origin location ID or name")
	planCmd.Flags().StringVarP(&planTo, "to", "t", "", "Destination location ID or name")
	planCmd.Flags().StringVarP(&planPreference, "preference", "p", "fastest", "fastest, cheapest or fewest_transfers")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print routes as JSON")
	planCmd.MarkFlagRequired("from")
	planCmd.MarkFlagRequired("to")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	cat := catalog.NewSampleStore()
	origin, err := findLocation(cat, planFrom)
	if err != nil {
		return err
	}
	destination, err := findLocation(cat, planTo)
	if err != nil {
		return err
	}
	pref, err := planner.ParsePreference(strings.ToLower(planPreference))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	client := newTransportClient(cfg, cat, logger)
	routes, err := client.PlanRoute(ctx, planner.PlanRequest{
		Origin:      *origin,
		Destination: *destination,
		Preference:  pref,
	})
	if err != nil {
		return fmt.Errorf("planning route: %w", err)
	}

	out := cmd.OutOrStdout()
	if planJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(routes)
	}
	printRoutes(out, origin, destination, routes)
	return nil
}

// findLocation resolves a location ID, falling back to the first name match
func findLocation(cat *catalog.Store, query string) (*domain.Location, error) {
	if loc, ok := cat.GetLocation(query); ok {
		return loc, nil
	}
	matches := cat.SearchLocations(query, 1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no location matches %q", query)
	}
	return matches[0], nil
}

func printRoutes(w io.Writer, origin, destination *domain.Location, routes []*domain.TravelRoute) {
	fmt.Fprintf(w, "%s -> %s\n\n", origin.Name, destination.Name)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tROUTE\tMINUTES\tFARE\tTRANSFERS\tARRIVE")
	for i, r := range routes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s %.1f\t%d\t%s\n",
			i+1, r.Summary, r.TotalDurationMinutes, r.Currency, r.TotalFare, r.Transfers,
			r.ArrivalTime.Local().Format("15:04"))
	}
	tw.Flush()

	if len(routes) == 0 {
		return
	}
	fmt.Fprintln(w)
	for i, s := range routes[0].Steps {
		fmt.Fprintf(w, "  %d. %s (%d min)\n", i+1, s.Instruction, s.DurationMinutes)
	}
}
