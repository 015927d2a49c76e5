// Command danismanim runs the consultancy backend and its operator tools.
//
//	@title						Danismanim API
//	@version					1.0
//	@description				Live chat, blog, meetings and contact form backend.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/danismanim/danismanim-backend/docs"
	"github.com/danismanim/danismanim-backend/internal/config"
	"github.com/danismanim/danismanim-backend/internal/sysutil"
)

var rootCmd = &cobra.Command{
	Use:           "danismanim",
	Short:         "Danismanim consultancy backend",
	Long:          `Serves the live chat, blog, meeting and contact API and provides operator commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       sysutil.ResolveVersion(),
}

// loadConfig reads .env (if present) and the environment, then installs the
// global logger.
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env not loaded")
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, nil)
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("danismanim")
		stop()
		os.Exit(1)
	}
}
