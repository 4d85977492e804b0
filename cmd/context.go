package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkpost/inkpost/pkg/client"
)

const configFileName = "inkpost"

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

type Context struct {
	Server string `json:"server"`
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// saves the context info to the config file in ./.tmp
func setContextCommand() *cobra.Command {
	var server string
	var token string
	var userID string

	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if token == "" && userID == "" {
				color.Red(`missing: --token or --user-id`)
				return
			}

			// save the context info to the config file
			viper.SetConfigName(configFileName)
			viper.AddConfigPath("./.tmp")
			viper.SetConfigType("yml")
			viper.Set("context", Context{
				Server: server,
				Token:  token,
				UserID: userID,
			})

			if err := os.MkdirAll("./.tmp", 0o755); err != nil {
				fmt.Println("error creating config dir: ", err)
				return
			}

			if err := viper.WriteConfigAs("./.tmp/" + configFileName + ".yml"); err != nil {
				fmt.Println("error writing config file: ", err)
			} else {
				fmt.Println("context saved")
			}
		},
	}

	command.Flags().StringVarP(&server, "server", "s", "http://localhost:4040", "server url")
	command.Flags().StringVarP(&token, "token", "t", "", "token")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "user id for insecure local servers")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			c := loadContext()
			if c.Server == "" && c.Token == "" && c.UserID == "" {
				color.Yellow("no context set")
				return
			}
			fmt.Println("server: ", c.Server)
			fmt.Println("user-id:", c.UserID)
			if c.Token != "" {
				fmt.Println("token:   set")
			}
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			if err := os.Remove("./.tmp/" + configFileName + ".yml"); err != nil && !os.IsNotExist(err) {
				fmt.Println("error removing config file: ", err)
				return
			}
			fmt.Println("context reset")
		},
	}

	return command
}

func loadContext() Context {
	viper.SetConfigName(configFileName)
	viper.AddConfigPath("./.tmp")
	viper.SetConfigType("yml")

	var c Context
	if err := viper.ReadInConfig(); err != nil {
		return c
	}

	c.Server = viper.GetString("context.server")
	c.Token = viper.GetString("context.token")
	c.UserID = viper.GetString("context.user_id")

	return c
}

// apiClient builds a client from the saved context, falling back to the local
// dev server with the X-User-ID identity.
func apiClient() *client.Client {
	c := loadContext()
	if c.Server == "" {
		c.Server = "http://localhost:4040"
	}
	if c.Token == "" && c.UserID == "" {
		c.UserID = "local"
	}
	return client.NewClient(c.Server, c.Token, c.UserID)
}
