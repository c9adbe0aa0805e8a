package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"hktravel/internal/catalog"
	"hktravel/pkg/hktransport"
)

var arrivalsCmd = &cobra.Command{
	Use:     "arrivals <stop-id>",
	Short:   "Show upcoming arrivals at an MTR station or bus stop",
	Example: "  hktravel arrivals MOK\n  hktravel arrivals star-ferry --lang zh-HK",
	Args:    cobra.ExactArgs(1),
	RunE:    runArrivals,
}

var arrivalsLang string

func init() {
	arrivalsCmd.Flags().StringVar(&arrivalsLang, "lang", "en", "Language for error messages")
}

func runArrivals(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	cat := catalog.NewSampleStore()
	client := newTransportClient(cfg, cat, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	arrivals, err := client.Arrivals(ctx, args[0])
	if err != nil {
		var te *hktransport.Error
		if errors.As(err, &te) {
			return fmt.Errorf("%s", te.Localized(arrivalsLang))
		}
		return err
	}

	out := cmd.OutOrStdout()
	if len(arrivals) == 0 {
		fmt.Fprintln(out, "no upcoming arrivals")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tTO\tPLATFORM\tMIN")
	for _, a := range arrivals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", catalog.LineName(a.Line), a.Destination, a.Platform, a.MinutesAway)
	}
	return tw.Flush()
}
