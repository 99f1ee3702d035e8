package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const chatGreeting = `Hi! I'm GlobeMate, your travel planner.
Tell me where you're going, for example:
  Lahore se Hunza, car, 40 km/l, petrol 295, 5 din
Type "exit" to quit.`

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Plan trips interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.loadApp(cmd.Context(), os.Stderr, true)
			if err != nil {
				return err
			}
			defer a.Shutdown(context.WithoutCancel(cmd.Context())) //nolint:errcheck

			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.Planner, a.Renderer)
		},
	}
}

// runChat reads one trip request per line, shows the detected details, and plans the
// trip once the person confirms. It returns on EOF, "exit" or context cancellation.
func runChat(ctx context.Context, in io.Reader, out io.Writer, p tripPlanner, r reportRenderer) error {
	scanner := bufio.NewScanner(in)
	prompt := func(text string) (string, bool) {
		fmt.Fprint(out, text)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	fmt.Fprintln(out, chatGreeting)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		message, ok := prompt("\n> ")
		if !ok {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		switch strings.ToLower(message) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Safe travels!")
			return nil
		}

		fields, err := p.Parse(ctx, message)
		if err != nil {
			fmt.Fprintln(out, "Sorry, "+userMessage(err)+".")
			continue
		}
		if err := r.Details(out, fields); err != nil {
			return err
		}

		answer, ok := prompt("Generate the full travel plan? (y/n): ")
		if !ok {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if !isYes(answer) {
			fmt.Fprintln(out, "Okay, tell me about another trip.")
			continue
		}

		plan, err := p.PlanFields(ctx, fields)
		if err != nil {
			fmt.Fprintln(out, "Sorry, "+userMessage(err)+".")
			continue
		}
		if err := r.Plan(out, plan); err != nil {
			return err
		}
	}
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "haan", "ha":
		return true
	default:
		return false
	}
}
