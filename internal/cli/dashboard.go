package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var dashboardUpload string

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Manage saved chats",
	Long: `Manage the saved chats on the dashboard.

A saved chat can carry study material (a .txt, .md or .csv file) that the
tutor sees as extra context once the chat is opened as a tab.

Examples:
  tutorctl dashboard
  tutorctl dashboard add OLEVEL Pure Physics --upload notes.csv
  tutorctl dashboard open 3f2a
  tutorctl dashboard remove 3f2a`,
	Args: cobra.NoArgs,
	RunE: runDashboardList,
}

var dashboardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved chats",
	Args:  cobra.NoArgs,
	RunE:  runDashboardList,
}

var dashboardAddCmd = &cobra.Command{
	Use:   "add <level> <subject>",
	Short: "Save a new chat",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDashboardAdd,
}

var dashboardRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a saved chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RemoveChat(cmd.Context(), args[0])
	},
}

var dashboardOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a saved chat as the active tab",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.OpenChat(cmd.Context(), args[0])
	},
}

func init() {
	dashboardAddCmd.Flags().StringVarP(&dashboardUpload, "upload", "u", "", "study material file (.txt, .md, .csv)")

	dashboardCmd.AddCommand(dashboardListCmd)
	dashboardCmd.AddCommand(dashboardAddCmd)
	dashboardCmd.AddCommand(dashboardRemoveCmd)
	dashboardCmd.AddCommand(dashboardOpenCmd)
}

func runDashboardList(cmd *cobra.Command, args []string) error {
	app.ListChats(cmd.Context())
	return nil
}

func runDashboardAdd(cmd *cobra.Command, args []string) error {
	level, subject, err := app.curriculum.ParseChoice(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if subject == "" {
		return fmt.Errorf("%w: subject is required", errUsage)
	}

	var data []byte
	name := ""
	if dashboardUpload != "" {
		data, err = os.ReadFile(dashboardUpload)
		if err != nil {
			return fmt.Errorf("read upload: %w", err)
		}
		name = filepath.Base(dashboardUpload)
	}
	_, err = app.AddChat(cmd.Context(), level, subject, name, data)
	return err
}
