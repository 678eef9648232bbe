// Command votectl inspects pull request votes from the command line using
// the same configuration as the bot. It never writes to GitHub.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ballotbot/internal/adapter/github"
	"github.com/pscheid92/ballotbot/internal/app"
	"github.com/pscheid92/ballotbot/internal/platform/config"
	"github.com/pscheid92/ballotbot/internal/platform/logging"
	"github.com/pscheid92/ballotbot/internal/platform/version"
	"github.com/pscheid92/ballotbot/internal/sentiment"
	"github.com/pscheid92/ballotbot/internal/voting"
	"github.com/spf13/cobra"
)

const commandTimeout = 2 * time.Minute

var globalFlags = struct {
	json     bool
	logLevel string
}{}

func newInspector(ctx context.Context) (*app.Inspector, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	clock := clockwork.NewRealClock()
	forge, err := github.NewClient(github.Config{
		BaseURL: cfg.GitHubAPIURL,
		Token:   cfg.GitHubToken,
		Owner:   cfg.GitHubOwner,
		Repo:    cfg.GitHubRepo,
		Clock:   clock,
	})
	if err != nil {
		return nil, err
	}

	settings := voting.Settings{
		Period:        cfg.VotingPeriod,
		Jitter:        cfg.VotingJitter,
		MinVotes:      cfg.MinVotes,
		Supermajority: cfg.Supermajority,
	}
	in := app.NewInspector(forge, voting.NewEngine(cfg.BotLogin, sentiment.NewScorer(nil)), settings, clock)
	if err := in.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load stargazers: %w", err)
	}
	return in, nil
}

func outcome(in app.Inspection) string {
	switch {
	case in.Verdict != "":
		return in.Verdict
	case !in.Decided:
		return "no quorum"
	case in.Pass:
		return "would pass"
	default:
		return "would fail"
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printInspection(w io.Writer, in app.Inspection) error {
	if globalFlags.json {
		return writeJSON(w, in)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := in.Proposal
	fmt.Fprintf(tw, "Pull request:\t#%d %s\n", p.Number, p.Title)
	fmt.Fprintf(tw, "Author:\t%s\n", p.Author)
	fmt.Fprintf(tw, "Announced:\t%t\n", in.Announced)
	if in.Modified {
		fmt.Fprintf(tw, "Modified:\tcommits after voting started\n")
	}
	fmt.Fprintf(tw, "Nominal deadline:\t%s\n", in.NominalDeadline.Format(time.RFC3339))
	fmt.Fprintf(tw, "%s\t%d (%.1f%%)\n", voting.PositiveToken, in.Tally.Positive, in.Tally.PercentPositive)
	fmt.Fprintf(tw, "%s\t%d (%.1f%%)\n", voting.NegativeToken, in.Tally.Negative, in.Tally.PercentNegative)
	fmt.Fprintf(tw, "Outcome:\t%s\n", outcome(in))
	if len(in.Tally.NonEndorsed) > 0 {
		fmt.Fprintf(tw, "Not counted:\t%v\n", in.Tally.NonEndorsed)
	}
	return tw.Flush()
}

func tallyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tally <number>",
		Short: "Compute the current tally of one pull request without acting on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid pull request number %q", args[0])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			in, err := newInspector(ctx)
			if err != nil {
				return err
			}
			result, err := in.Inspect(ctx, number)
			if err != nil {
				return err
			}
			return printInspection(cmd.OutOrStdout(), result)
		},
	}
}

func proposalsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "proposals",
		Short: "List open pull requests with their vote status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			in, err := newInspector(ctx)
			if err != nil {
				return err
			}
			results, err := in.InspectOpen(ctx)
			if err != nil {
				return err
			}

			if globalFlags.json {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tTITLE\tFOR\tAGAINST\tOUTCOME")
			for _, r := range results {
				fmt.Fprintf(tw, "#%d\t%s\t%d\t%d\t%s\n", r.Proposal.Number, r.Proposal.Title, r.Tally.Positive, r.Tally.Negative, outcome(r))
			}
			return tw.Flush()
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "votectl",
		Short:         "Inspect community votes on pull requests",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.InitLogger(globalFlags.logLevel, "text")
		},
	}

	rootCmd.PersistentFlags().BoolVar(&globalFlags.json, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(tallyCommand())
	rootCmd.AddCommand(proposalsCommand())
	rootCmd.AddCommand(versionCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
