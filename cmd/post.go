package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inkpost/inkpost/internal/model"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "post commands",
}

func init() {
	rootCmd.AddCommand(postCmd)
	postCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	postCmd.AddCommand(createPostCmd())
	postCmd.AddCommand(getPostCmd())
	postCmd.AddCommand(listPostsCmd())
	postCmd.AddCommand(deletePostCmd())
	postCmd.AddCommand(publishPostCmd())
	postCmd.AddCommand(schedulePostCmd())
	postCmd.AddCommand(cancelScheduleCmd())
}

func createPostCmd() *cobra.Command {
	var title string
	var content string
	var excerpt string
	var tags string

	var required = []string{"title"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a post draft",
		Example: "inkpost post create -t <title> -c <content> --tags go,blog",
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

			post, err := apiClient().CreatePost(context.Background(), fields)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("post created with id: %s", post.ID)
		},
	}

	command.Flags().StringVarP(&title, "title", "t", "", "title of the post (required)")
	command.Flags().StringVarP(&content, "content", "c", "", "markdown content")
	command.Flags().StringVarP(&excerpt, "excerpt", "e", "", "excerpt, derived from content when empty")
	command.Flags().StringVar(&tags, "tags", "", "comma separated tags")

	command.Flags().SortFlags = false

	return command
}

func getPostCmd() *cobra.Command {
	var postID string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a post",
		Example: "inkpost post get -p <post-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			post, err := apiClient().GetPost(context.Background(), postID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Status", "Release", "Tags"})
			table.Append([]string{post.ID, string(post.Status), post.ReleaseVersion, post.Tags})
			table.Render()
			printField("Title", post.Title)
			printField("Content", post.Content)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")

	return command
}

func listPostsCmd() *cobra.Command {
	var authorID string

	command := &cobra.Command{
		Use:     "list",
		Short:   "list posts",
		Example: "inkpost post list -a <author-id>",
		Run: func(cmd *cobra.Command, args []string) {
			posts, err := apiClient().ListPosts(context.Background(), authorID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Status", "Release", "Published At"})
			for _, post := range posts {
				publishedAt := ""
				if post.PublishedAt != nil {
					publishedAt = post.PublishedAt.Format(time.RFC3339)
				}
				table.Append([]string{post.ID, post.Title, string(post.Status), post.ReleaseVersion, publishedAt})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&authorID, "author-id", "a", "", "filter by author")

	return command
}

func deletePostCmd() *cobra.Command {
	var postID string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a post",
		Example: "inkpost post delete -p <post-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			if err := apiClient().DeletePost(context.Background(), postID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("post deleted: %s", postID)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")

	return command
}

func publishPostCmd() *cobra.Command {
	var postID string
	var platforms string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "publish",
		Short:   "publish a post immediately",
		Example: "inkpost post publish -p <post-id> --platforms twitter,linkedin",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			var share []string
			if platforms != "" {
				share = strings.Split(platforms, ",")
			}

			result, err := apiClient().PublishNow(context.Background(), postID, share)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("post published as release %s", result.Release)
			for platform, link := range result.ShareLinks {
				printField(platform, link)
			}
			for _, warning := range result.Warnings {
				color.Yellow("warning: %s", warning)
			}
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")
	command.Flags().StringVar(&platforms, "platforms", "", "comma separated share platforms")

	command.Flags().SortFlags = false

	return command
}

func schedulePostCmd() *cobra.Command {
	var postID string
	var at string

	var required = []string{"post-id", "at"}

	command := &cobra.Command{
		Use:     "schedule",
		Short:   "schedule a post for future publication",
		Example: "inkpost post schedule -p <post-id> --at 2026-09-01T09:00:00Z",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			scheduledFor, err := time.Parse(time.RFC3339, at)
			if err != nil {
				color.Red("invalid --at, expected an RFC3339 timestamp")
				return
			}

			item, err := apiClient().SchedulePost(context.Background(), postID, scheduledFor)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("scheduled with queue id: %s", item.ID)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")
	command.Flags().StringVar(&at, "at", "", "publication time, RFC3339 (required)")

	command.Flags().SortFlags = false

	return command
}

func cancelScheduleCmd() *cobra.Command {
	var queueID string

	var required = []string{"queue-id"}

	command := &cobra.Command{
		Use:     "cancel",
		Short:   "cancel a scheduled publication",
		Example: "inkpost post cancel -q <queue-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			if err := apiClient().CancelScheduledPost(context.Background(), queueID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("scheduled publication cancelled: %s", queueID)
		},
	}

	command.Flags().StringVarP(&queueID, "queue-id", "q", "", "queue item id (required)")

	return command
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags checks if the required flags are set and returns ok if they are set
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if cmd.Flag(required).Changed == false {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")

		return true
	}

	return false
}

func formatVersionNumber(n int64) string {
	return strconv.FormatInt(n, 10)
}
