package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inkpost",
	Short: "markdown blog versioning and publishing tool",
	Example: `inkpost post create -t <title> -c <content>
inkpost post get -p <post-id>
inkpost post list -a <author-id>
inkpost post publish -p <post-id>
inkpost post schedule -p <post-id> --at <rfc3339-time>
inkpost version list -p <post-id>
inkpost version rollback -p <post-id> -v <version-id>
inkpost version diff -p <post-id> --from <version-id> --to <version-id>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(contextCommand)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
