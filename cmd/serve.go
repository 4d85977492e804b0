package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inkpost/inkpost/internal/config"
	"github.com/inkpost/inkpost/internal/server"
)

func serveCmd() *cobra.Command {
	var port string

	command := &cobra.Command{
		Use:   "serve",
		Short: "start the api server",
		Run: func(cmd *cobra.Command, args []string) {
			if port == "" {
				port = config.LoadConfig().HTTPPort
			}
			server.NewServer(port).Start()
		},
	}

	command.Flags().StringVarP(&port, "port", "p", "", "http port")

	return command
}
