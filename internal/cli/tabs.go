package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "List and manage tabs",
	Long: `List and manage the local tutoring tabs.

Tabs are referenced by their position in "tabs list" or by an id prefix.

Examples:
  tutorctl tabs
  tutorctl tabs new PSLE Science
  tutorctl tabs switch 2
  tutorctl tabs rename 1 Fractions revision
  tutorctl tabs delete 3`,
	Args: cobra.NoArgs,
	RunE: runTabsList,
}

var tabsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tabs",
	Args:  cobra.NoArgs,
	RunE:  runTabsList,
}

var tabsNewCmd = &cobra.Command{
	Use:   "new <level> <subject>",
	Short: "Create a tab and make it active",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := app.NewTab(strings.Join(args, " "))
		return err
	},
}

var tabsSwitchCmd = &cobra.Command{
	Use:   "switch <n|id>",
	Short: "Activate a tab",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.SwitchTab(args[0])
	},
}

var tabsDeleteCmd = &cobra.Command{
	Use:   "delete <n|id>",
	Short: "Delete a tab",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.DeleteTab(args[0])
	},
}

var tabsRenameCmd = &cobra.Command{
	Use:   "rename <n|id> <title>",
	Short: "Rename a tab",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RenameTab(args[0], strings.Join(args[1:], " "))
	},
}

func init() {
	tabsCmd.AddCommand(tabsListCmd)
	tabsCmd.AddCommand(tabsNewCmd)
	tabsCmd.AddCommand(tabsSwitchCmd)
	tabsCmd.AddCommand(tabsDeleteCmd)
	tabsCmd.AddCommand(tabsRenameCmd)
}

func runTabsList(cmd *cobra.Command, args []string) error {
	app.ListTabs()
	return nil
}
