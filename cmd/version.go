package cmd

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inkpost/inkpost/internal/diff"
	"github.com/inkpost/inkpost/internal/model"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version commands",
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	versionCmd.AddCommand(createVersionCmd())
	versionCmd.AddCommand(listVersionsCmd())
	versionCmd.AddCommand(latestVersionCmd())
	versionCmd.AddCommand(rollbackCmd())
	versionCmd.AddCommand(diffCmd())
}

func createVersionCmd() *cobra.Command {
	var postID string
	var title string
	var content string
	var excerpt string
	var tags string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "snapshot the post fields as a new version",
		Example: "inkpost version create -p <post-id> -t <title> -c <content>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			fields := model.PostFields{
				Title:   title,
				Content: content,
				Excerpt: excerpt,
			}
			if tags != "" {
				fields.Tags = strings.Split(tags, ",")
			}

			version, err := apiClient().CreateVersion(context.Background(), postID, fields)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("version %d created with id: %s", version.VersionNumber, version.ID)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")
	command.Flags().StringVarP(&title, "title", "t", "", "title of the post")
	command.Flags().StringVarP(&content, "content", "c", "", "markdown content")
	command.Flags().StringVarP(&excerpt, "excerpt", "e", "", "excerpt")
	command.Flags().StringVar(&tags, "tags", "", "comma separated tags")

	command.Flags().SortFlags = false

	return command
}

func listVersionsCmd() *cobra.Command {
	var postID string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "list",
		Short:   "list the version history of a post",
		Example: "inkpost version list -p <post-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			versions, err := apiClient().GetVersionHistory(context.Background(), postID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Version", "Author", "Published", "Changes"})
			for _, version := range versions {
				changes, err := version.ChangeList()
				if err != nil {
					logrus.Error(err)
					return
				}
				table.Append([]string{
					version.ID,
					formatVersionNumber(version.VersionNumber),
					version.AuthorID,
					strconv.FormatBool(version.IsPublished),
					strconv.Itoa(len(changes)),
				})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")

	return command
}

func latestVersionCmd() *cobra.Command {
	var postID string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "latest",
		Short:   "get the latest version of a post",
		Example: "inkpost version latest -p <post-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			version, err := apiClient().GetLatestVersion(context.Background(), postID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Version", "Author"})
			table.Append([]string{version.ID, formatVersionNumber(version.VersionNumber), version.AuthorID})
			table.Render()
			printField("Title", version.Title)
			printField("Content", version.Content)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")

	return command
}

func rollbackCmd() *cobra.Command {
	var postID string
	var versionID string

	var required = []string{"post-id", "version-id"}

	command := &cobra.Command{
		Use:     "rollback",
		Short:   "restore the post fields from an earlier version",
		Example: "inkpost version rollback -p <post-id> -v <version-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			version, err := apiClient().RollbackToVersion(context.Background(), postID, versionID)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("rolled back, new version %d with id: %s", version.VersionNumber, version.ID)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")
	command.Flags().StringVarP(&versionID, "version-id", "v", "", "version id to restore (required)")

	command.Flags().SortFlags = false

	return command
}

func diffCmd() *cobra.Command {
	var postID string
	var fromID string
	var toID string

	var required = []string{"post-id", "from", "to"}

	command := &cobra.Command{
		Use:     "diff",
		Short:   "compare two versions of a post",
		Example: "inkpost version diff -p <post-id> --from <version-id> --to <version-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			result, err := apiClient().DiffVersions(context.Background(), postID, fromID, toID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Added", "Removed", "Modified"})
			table.Append([]string{
				joinFields(result.Added),
				joinFields(result.Removed),
				joinFields(result.Modified),
			})
			table.Render()

			for _, line := range result.ContentDiff {
				switch line.Op {
				case diff.LineInsert:
					printField("+", line.Text)
				case diff.LineDelete:
					printField("-", line.Text)
				}
			}
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")
	command.Flags().StringVar(&fromID, "from", "", "older version id (required)")
	command.Flags().StringVar(&toID, "to", "", "newer version id (required)")

	command.Flags().SortFlags = false

	return command
}

func joinFields(fields []diff.Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, string(f))
	}
	return strings.Join(parts, ",")
}
