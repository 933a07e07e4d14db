package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cultivai/cropvision/advisor"
	"cultivai/cropvision/store"
	"cultivai/cropvision/weather"
)

var (
	analyzeLat  float64
	analyzeLon  float64
	analyzeUser string
	analyzeJSON bool

	chatLat float64
	chatLon float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze IMAGE",
	Short: "Classify a crop photo and print recommendations for the local weather",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var chatCmd = &cobra.Command{
	Use:   "chat MESSAGE...",
	Short: "Ask the agricultural assistant a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeLat, "lat", 0, "latitude of the field")
	analyzeCmd.Flags().Float64Var(&analyzeLon, "lon", 0, "longitude of the field")
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "add the detected crop to this user's crops")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the analysis as JSON")

	chatCmd.Flags().Float64Var(&chatLat, "lat", 0, "latitude used for weather context")
	chatCmd.Flags().Float64Var(&chatLon, "lon", 0, "longitude used for weather context")
}

// coordsFlag returns the coordinates when both flags were set.
func coordsFlag(cmd *cobra.Command, lat, lon float64) *weather.Coordinates {
	if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
		return nil
	}
	return &weather.Coordinates{Latitude: lat, Longitude: lon}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	adv, err := svc.Advisor(ctx)
	if err != nil {
		return err
	}
	result, err := adv.Analyze(ctx, image, coordsFlag(cmd, analyzeLat, analyzeLon))
	if err != nil {
		return err
	}
	logger.Info("image analyzed",
		zap.String("image", args[0]),
		zap.String("crop", result.Crop.Name),
		zap.Int("warnings", len(result.Warnings)))

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printAnalysis(out, result)
	}

	if analyzeUser != "" {
		crop, err := adv.AddDetectedCrop(ctx, analyzeUser, result.Crop.Name)
		switch {
		case errors.Is(err, store.ErrAlreadyOwned):
			fmt.Fprintf(cmd.ErrOrStderr(), "¡Ya tienes este sembrío! (%s)\n", result.Crop.Name)
		case err != nil:
			return err
		default:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s added to user %s\n", crop.Name, analyzeUser)
		}
	}
	return nil
}

func printAnalysis(w io.Writer, a *advisor.Analysis) {
	fmt.Fprintf(w, "Cultivo: %s (%s)\n", a.Crop.Name, a.Crop.Label)
	if a.Weather != nil {
		fmt.Fprintf(w, "Clima: %s\n", describeWeather(a.Weather))
	}
	if a.Recommendation != "" {
		fmt.Fprintf(w, "\n%s\n", a.Recommendation)
	}
	for _, warn := range a.Warnings {
		fmt.Fprintf(w, "! %s\n", warn)
	}
}

func describeWeather(r *weather.Report) string {
	var parts []string
	place := strings.TrimSpace(r.Name)
	if r.Sys.Country != "" {
		place = strings.TrimSpace(place + ", " + r.Sys.Country)
	}
	if place != "" {
		parts = append(parts, place)
	}
	if d := r.Description(); d != "" {
		parts = append(parts, weather.TranslateDescription(d))
	}
	if r.Main.Temp != nil {
		parts = append(parts, fmt.Sprintf("%.1f°C", *r.Main.Temp))
	}
	if r.Main.Humidity != nil {
		parts = append(parts, fmt.Sprintf("Humedad: %.0f%%", *r.Main.Humidity))
	}
	if r.Wind.Speed != nil {
		parts = append(parts, fmt.Sprintf("Viento: %.1f m/s", *r.Wind.Speed))
	}
	return strings.Join(parts, " | ")
}

func runChat(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	gen, err := svc.Generator(ctx)
	if err != nil {
		return err
	}
	var report *weather.Report
	if at := coordsFlag(cmd, chatLat, chatLon); at != nil {
		client, err := svc.Weather()
		if err != nil {
			return err
		}
		report, err = client.Current(ctx, *at)
		if err != nil {
			logger.Warn("weather lookup failed", zap.Error(err))
			report = nil
		}
	}
	answer, err := gen.Ask(ctx, strings.Join(args, " "), report)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
