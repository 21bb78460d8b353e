// overlaytool is a command line companion for inspecting baked contour
// datasets, listing manifest sources, projecting coordinates, and converting
// GPX tracks into the projected route format.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"contour-atlas/internal/geodesy"
	"contour-atlas/internal/gpx"
	"contour-atlas/internal/overlay"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "overlaytool",
	Short: "Inspect and convert contour overlay data",
	Long:  "overlaytool works with the baked contour datasets and GPX tracks used by Contour Atlas.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("assets", "", "contour asset directory (default \"data\")")
	rootCmd.AddCommand(sourcesCmd, inspectCmd, projectCmd, convertCmd)
}

func initConfig() {
	viper.SetConfigName(".contour-atlas")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetEnvPrefix("CONTOUR")
	viper.AutomaticEnv()
	viper.SetDefault("assets", "data")

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()

	if flag := rootCmd.PersistentFlags().Lookup("assets"); flag.Changed {
		viper.Set("assets", flag.Value.String())
	}
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the contour sources in the asset manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := overlay.NewSourceCache(viper.GetString("assets"))
		sources := cache.ListSources()
		if len(sources) == 0 {
			fmt.Println("no sources found")
			return nil
		}
		for _, s := range sources {
			fmt.Printf("%-16s %-28s %s\n", s.ID, s.Name, s.Asset)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <source-id>",
	Short: "Print summary statistics for a contour source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := overlay.NewSourceCache(viper.GetString("assets"))
		set, err := cache.LoadSource(args[0], nil)
		if err != nil {
			return err
		}

		minElev, maxElev := 0, 0
		majors, points := 0, 0
		for i, line := range set.Lines {
			if i == 0 || line.Elevation < minElev {
				minElev = line.Elevation
			}
			if i == 0 || line.Elevation > maxElev {
				maxElev = line.Elevation
			}
			if line.Major {
				majors++
			}
			points += len(line.Points)
		}

		fmt.Printf("bounds:    [%.1f, %.1f] - [%.1f, %.1f]\n",
			set.Bounds.MinX, set.Bounds.MinY, set.Bounds.MaxX, set.Bounds.MaxY)
		fmt.Printf("contours:  %d (%d major), %d points\n", len(set.Lines), majors, points)
		fmt.Printf("elevation: %d - %d\n", minElev, maxElev)
		if len(set.Route) > 0 {
			fmt.Printf("route:     %d segments\n", len(set.Route))
		}
		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project <lon> <lat>",
	Short: "Project a lon/lat pair into the unified grid",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lon, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("bad longitude %q: %w", args[0], err)
		}
		lat, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("bad latitude %q: %w", args[1], err)
		}

		p := geodesy.ToUnified(lon, lat)
		fmt.Printf("%.3f %.3f\n", p.X, p.Y)
		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <track.gpx> [out.json]",
	Short: "Convert a GPX track into projected route JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		polylines, err := gpx.ParseTrack(data)
		if err != nil {
			return err
		}

		route := make([][][]float64, len(polylines))
		for i, line := range polylines {
			route[i] = make([][]float64, len(line))
			for j, p := range line {
				route[i][j] = []float64{p.X, p.Y}
			}
		}

		out, err := json.MarshalIndent(map[string]interface{}{"route": route}, "", "  ")
		if err != nil {
			return err
		}
		if len(args) == 2 {
			return os.WriteFile(args[1], append(out, '\n'), 0o644)
		}
		fmt.Println(string(out))
		return nil
	},
}
