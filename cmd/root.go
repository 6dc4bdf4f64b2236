package cmd

import (
	"errors"
	"os"

	"github.com/nguyentranbao-ct/product-hub/internal/app"
	"github.com/nguyentranbao-ct/product-hub/internal/kafka"
	"github.com/nguyentranbao-ct/product-hub/internal/server"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "product-hub",
	Short:         "Product directory with duplicate-aware recommendations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the syndication consumer",
	Run: func(*cobra.Command, []string) {
		app.Invoke(
			server.StartServer,
			kafka.StartSyndication,
		).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, newRecommendCmd())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errNotRecommended) {
			logger.MustNamed("cmd").Errorw("command failed", "error", err)
		}
		os.Exit(1)
	}
}
