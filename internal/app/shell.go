package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spacesedan/sentiscope/internal/models"
)

const shellPrompt = "sentiscope> "

const shellHelp = `Type any text to analyze it, or one of:
  :history      reload and show the analysis history
  :view ID      show a past analysis
  :delete ID    delete a past analysis
  :clear        delete every analysis
  :search TEXT  search past analyses
  :reset        clear the current result
  :help         show this help
  :quit         leave the shell`

// RunShell reads lines from in until EOF, :quit or cancellation. in is
// shared with the confirmation prompt so answers are read in order.
func (a *App) RunShell(ctx context.Context, in *bufio.Reader, out io.Writer) error {
	fmt.Fprintln(out, shellHelp)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, shellPrompt)

		line, err := in.ReadString('\n')
		input := strings.TrimSpace(line)
		if input != "" {
			if quit := a.handleLine(ctx, input, out); quit {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read shell input: %w", err)
		}
	}
}

func (a *App) handleLine(ctx context.Context, input string, out io.Writer) bool {
	if !strings.HasPrefix(input, ":") {
		// Failures are already rendered by the session.
		_, _ = a.Submit(ctx, input)
		return false
	}

	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":exit", ":q":
		return true
	case ":help":
		fmt.Fprintln(out, shellHelp)
	case ":history":
		_ = a.Refresh(ctx)
	case ":reset":
		a.Reset()
	case ":view":
		if arg == "" {
			fmt.Fprintln(out, "usage: :view ID")
			return false
		}
		_, _ = a.View(ctx, models.AnalysisID(arg))
	case ":delete":
		if arg == "" {
			fmt.Fprintln(out, "usage: :delete ID")
			return false
		}
		a.logOutcome("delete", a.Delete(ctx, models.AnalysisID(arg)), out)
	case ":clear":
		result, err := a.ClearAll(ctx)
		if result.Attempted == 0 && err == nil {
			fmt.Fprintln(out, "History is already empty.")
			return false
		}
		a.logOutcome("clear", err, out)
	case ":search":
		if arg == "" {
			fmt.Fprintln(out, "usage: :search TEXT")
			return false
		}
		_, _ = a.Search(ctx, arg)
	default:
		fmt.Fprintf(out, "Unknown command %s. Type :help for commands.\n", cmd)
	}
	return false
}

func (a *App) logOutcome(action string, err error, out io.Writer) {
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotConfirmed):
		fmt.Fprintln(out, "Cancelled.")
	default:
		slog.Debug("[App] Command failed", slog.String("action", action), slog.String("error", err.Error()))
	}
}
