package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/samirrijal/lunchpick/internal/adapters/presentation"
	"github.com/samirrijal/lunchpick/internal/adapters/provider"
	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/pkg/config"
)

// Seoul City Hall.
const (
	defaultLat = 37.5665
	defaultLng = 126.9780
)

var (
	recLat      float64
	recLng      float64
	recStrategy string
	recJSON     bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend eating places near a coordinate",
	Long: `Runs one recommendation against the configured Naver providers and prints
the result as map markers, or as the API's JSON body with --json.

$ lunchctl recommend --lat 37.5665 --lng 126.978 --strategy all`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load("lunchctl")
		if err != nil {
			return err
		}
		svc, err := provider.FromConfig(cfg).Recommender(cfg, nil)
		if err != nil {
			return err
		}

		rec, err := svc.RecommendRaw(cmd.Context(),
			strconv.FormatFloat(recLat, 'f', -1, 64),
			strconv.FormatFloat(recLng, 'f', -1, 64),
			recStrategy)
		if err != nil {
			return describeFailure(err)
		}

		if recJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		if rec.State == domain.StateEmpty {
			fmt.Fprintln(os.Stderr, "no places found nearby")
		} else if rec.RegionHint != "" {
			fmt.Fprintf(os.Stderr, "near %s via %s\n", rec.RegionHint, rec.Provider)
		}
		_, err = presentation.NewPresenter(presentation.NewConsoleMap(os.Stdout)).Show(rec)
		return err
	},
}

func describeFailure(err error) error {
	var re *domain.RecommendError
	if errors.As(err, &re) && re.Kind == domain.KindBadInput {
		return fmt.Errorf("invalid input: %s", re.Message)
	}
	var ae *domain.AdapterError
	if errors.As(err, &ae) {
		return fmt.Errorf("%s %s failed (%s): %w", ae.Provider, ae.Op, ae.Reason, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out: %w", err)
	}
	return err
}

func init() {
	recommendCmd.Flags().Float64Var(&recLat, "lat", defaultLat, "latitude in degrees")
	recommendCmd.Flags().Float64Var(&recLng, "lng", defaultLng, "longitude in degrees")
	recommendCmd.Flags().StringVar(&recStrategy, "strategy", "", "all or random (default from config)")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "print the JSON body instead of markers")
	rootCmd.AddCommand(recommendCmd)
}
