package cli

import (
	"github.com/spf13/cobra"

	"github.com/eojedapilchik/couples-app/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Long:  `Start the HTTP API server and the background scheduler, and block until interrupted.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = daemon.DefaultConfigPath()
	}
	cfg, err := daemon.LoadConfig(path)
	if err != nil {
		return err
	}
	return daemon.Run(cfg)
}
