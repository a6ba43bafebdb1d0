package cli

import (
	"context"
	"fmt"
	"strings"
)

const replHelp = `Commands:
  /new <level> <subject>   Open a tab (e.g. /new PSLE Mathematics)
  /tabs                    List tabs
  /switch <n|id>           Activate a tab
  /rename <title>          Rename the active tab
  /delete [n|id]           Delete a tab (default: active)
  /model [id]              Show or set the active tab's model
  /attach <file> [text]    Send a PDF or image, or save .txt/.csv material
  /history                 Show the active tab's conversation
  /quit                    Exit
Anything else is sent to the active tab.`

// Exec runs one line of REPL input. It reports whether the session should
// end.
func (a *App) Exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, a.Ask(ctx, line, nil)
	}

	cmd, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/quit", "/q", "/exit":
		return true, nil
	case "/help", "/h":
		a.printf("%s\n", replHelp)
	case "/new":
		_, err := a.NewTab(args)
		return false, err
	case "/tabs":
		a.ListTabs()
	case "/switch":
		if args == "" {
			return false, fmt.Errorf("%w: /switch <n|id>", errUsage)
		}
		return false, a.SwitchTab(args)
	case "/rename":
		if args == "" {
			return false, fmt.Errorf("%w: /rename <title>", errUsage)
		}
		return false, a.RenameTab("", args)
	case "/delete":
		return false, a.DeleteTab(args)
	case "/model":
		return false, a.SetModel(args)
	case "/attach":
		path, question, _ := strings.Cut(args, " ")
		if path == "" {
			return false, fmt.Errorf("%w: /attach <file> [question]", errUsage)
		}
		return false, a.Attach(ctx, path, strings.TrimSpace(question))
	case "/history":
		return false, a.History(0)
	default:
		return false, fmt.Errorf("%w: %s (try /help)", errUnknownCmd, cmd)
	}
	return false, nil
}

func (a *App) prompt() string {
	title := "tutor"
	if tab, ok := a.store.Active(); ok {
		title = tab.Title
	}
	return promptStyle.Render(title+"> ")
}
