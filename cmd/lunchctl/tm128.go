package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/pkg/tm128"
)

var tm128Cmd = &cobra.Command{
	Use:   "tm128",
	Short: "Convert between TM128 grid points and WGS 84 coordinates",
}

var toGeodeticCmd = &cobra.Command{
	Use:   "to-geodetic X Y",
	Short: "Convert a TM128 grid point (mapx mapy) to lat lng",
	Long: `$ lunchctl tm128 to-geodetic 309946 552085
37.566... 126.977...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, y, err := parsePair(args)
		if err != nil {
			return err
		}
		c := tm128.ToGeodetic(domain.PlanarPoint{X: x, Y: y})
		fmt.Fprintf(cmd.OutOrStdout(), "%.7f %.7f\n", c.Lat, c.Lng)
		return nil
	},
}

var toPlanarCmd = &cobra.Command{
	Use:   "to-planar LAT LNG",
	Short: "Convert a WGS 84 coordinate to a TM128 grid point",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lng, err := parsePair(args)
		if err != nil {
			return err
		}
		c := domain.Coordinate{Lat: lat, Lng: lng}
		if !c.IsValid() {
			return fmt.Errorf("coordinate out of range: %v %v", lat, lng)
		}
		p := tm128.ToPlanar(c)
		fmt.Fprintf(cmd.OutOrStdout(), "%.2f %.2f\n", p.X, p.Y)
		return nil
	},
}

func parsePair(args []string) (float64, float64, error) {
	a, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", args[0], err)
	}
	b, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", args[1], err)
	}
	return a, b, nil
}

func init() {
	tm128Cmd.AddCommand(toGeodeticCmd, toPlanarCmd)
	rootCmd.AddCommand(tm128Cmd)
}
