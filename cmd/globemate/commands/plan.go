package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/globemate/globemate/internal/trip"
)

// Output formats accepted by --output.
const (
	OutputMarkdown = "markdown"
	OutputJSON     = "json"
	OutputYAML     = "yaml"
)

// tripPlanner is the part of the planner the text channels drive.
type tripPlanner interface {
	Parse(ctx context.Context, message string) (trip.ParsedFields, error)
	Plan(ctx context.Context, message string) (*trip.Plan, error)
	PlanFields(ctx context.Context, fields trip.ParsedFields) (*trip.Plan, error)
}

// reportRenderer writes human-readable reports.
type reportRenderer interface {
	Details(w io.Writer, fields trip.ParsedFields) error
	Plan(w io.Writer, plan *trip.Plan) error
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan <message>",
		Short: "Plan a trip from a single message",
		Example: `  globemate plan "Lahore se Hunza, car, 40 km/l, petrol 295, 5 din"
  globemate plan --output json "Islamabad to Murree by bike, 35 km/l, fuel 280, 2 days"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			a, err := opts.loadApp(cmd.Context(), os.Stderr, true)
			if err != nil {
				return err
			}
			defer a.Shutdown(context.WithoutCancel(cmd.Context())) //nolint:errcheck

			return runPlan(cmd.Context(), cmd.OutOrStdout(), a.Planner, a.Renderer, strings.Join(args, " "), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", OutputMarkdown, "output format: markdown, json or yaml")
	return cmd
}

func validateOutput(format string) error {
	switch format {
	case OutputMarkdown, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want markdown, json or yaml)", format)
	}
}

func runPlan(ctx context.Context, out io.Writer, p tripPlanner, r reportRenderer, message, format string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("message is required")
	}

	plan, err := p.Plan(ctx, message)
	if err != nil {
		return errors.New(userMessage(err))
	}
	return writePlan(out, r, plan, format)
}

func writePlan(out io.Writer, r reportRenderer, plan *trip.Plan, format string) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case OutputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.Plan(out, plan)
	}
}
