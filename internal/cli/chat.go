package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/set-night/tutorme/internal/config"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tutoring session",
	Long: `Start an interactive session on the active tab.

Type a question to send it to the tutor. Lines starting with / are commands;
type /help to list them. Ctrl+D or /quit exits.

Examples:
  tutorctl chat
  tutorctl chat --server http://localhost:3000`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

func runChat(cmd *cobra.Command, args []string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histFile := historyPath()
	if f, err := os.Open(histFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if err := os.MkdirAll(filepath.Dir(histFile), 0o700); err != nil {
			return
		}
		if f, err := os.OpenFile(histFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render("Type /help for commands, Ctrl+D to exit."))
	ctx := cmd.Context()
	for {
		input, err := line.Prompt(app.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			// EOF (Ctrl+D)
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		quit, err := app.Exec(ctx, input)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		if quit {
			return nil
		}
	}
}
