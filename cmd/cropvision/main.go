package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cultivai/cropvision/internal/app"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    app.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cropvision",
	Short: "Identify crops in photos and get care recommendations",
	Long: `cropvision classifies a crop photo, resolves the first label that is a
supported crop, translates it to Spanish and, given a location, asks Gemini
for care recommendations under the current weather.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = app.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if logger != nil {
			return nil
		}
		logger, err = app.NewLogger(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", app.DefaultConfigFile, "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(resolveCmd, translateCmd, tablesCmd)
	rootCmd.AddCommand(analyzeCmd, cropsCmd, usersCmd, notesCmd, imagesCmd, chatCmd)
	rootCmd.AddCommand(configCmd)
}

// newService builds the application service from the loaded config.
func newService() (*app.Service, error) {
	return app.NewService(cfg, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
