package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"akiclient/cmd/akinator-cli/utils"
	"akiclient/lib/gamedata"
	"akiclient/lib/gamelog"
	"akiclient/lib/scrapers/akinator/game"
	"akiclient/lib/scrapers/akinator/region"
	"akiclient/lib/scrapers/akinator/session"
	"akiclient/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	playLanguage string
	playChild    bool
)

func init() {
	playCmd.Flags().StringVarP(&playLanguage, "language", "l", "", "The language (or region code) to play in, defaults to the config's.")
	playCmd.Flags().BoolVar(&playChild, "child", false, "Enable child mode.")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play [--language <language>] [--child]",
	Short: "Plays a game on the terminal.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()
		globals := getGlobals(cmd.Context())
		cfg := globals.Config

		language := cfg.Language
		if playLanguage != "" {
			language = playLanguage
		}

		cache, err := region.NewLRUCache(len(gamedata.RegionThemes))
		if err != nil {
			serviceutil.Fatal("failed to create region cache", err)
		}
		opts, err := cfg.SessionOptions(globals.Telemetry, cache)
		if err != nil {
			serviceutil.Fatal("failed to configure session", err)
		}

		s := session.New(opts...)
		err = PlayAndRecord(ctx, s, cfg, language, cfg.ChildMode || playChild, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			serviceutil.Fatal("game failed", err)
		}
	},
}

// PlayAndRecord plays a game and records it in the configured game log.
// The session is closed before it returns, whatever the outcome.
func PlayAndRecord(ctx context.Context, s *session.Session, cfg Config, language string, childMode bool, in io.Reader, out io.Writer) error {
	defer s.Close()

	err := Play(ctx, s, language, childMode, in, out)
	if err != nil {
		return err
	}

	snapshot := s.Snapshot()
	if cfg.LogDb == "" || snapshot.Outcome == game.OutcomeNone {
		return nil
	}
	store, err := gamelog.Open(ctx, cfg.LogDb)
	if err != nil {
		return fmt.Errorf("failed to open game log: %w", err)
	}
	defer store.Close()
	err = store.Record(ctx, gamelog.FromSnapshot(time.Now(), snapshot))
	if err != nil {
		slog.Warn("failed to record game", "err", err)
	}
	return nil
}

const answerHelp = "[y]es, [n]o, [i]dk, [p]robably, [pn] probably not, [b]ack, [q]uit"

// recoverable errors are the player's mistakes, the game goes on after
// them.
func recoverable(err error) bool {
	var choiceErr *gamedata.InvalidChoiceError
	return errors.As(err, &choiceErr) || errors.Is(err, game.ErrCantGoBackAnyFurther)
}

// Play runs a game reading answers from in, it returns when the game has
// an outcome, when the player quits or when in runs out.
func Play(ctx context.Context, s *session.Session, language string, childMode bool, in io.Reader, out io.Writer) error {
	err := s.Start(ctx, language, childMode)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for s.Snapshot().Outcome == game.OutcomeNone {
		snapshot := s.Snapshot()
		if snapshot.AwaitingResolution {
			fmt.Fprintf(out, "%s? [y/n]\n> ", snapshot.String())
		} else {
			fmt.Fprintf(out, "%d. %s (%.0f%%)\n%s\n> ", snapshot.Question(), snapshot.Prompt, snapshot.Confidence()*100, answerHelp)
		}

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.ToLower(strings.TrimSpace(scanner.Text()))

		switch input {
		case "q", "quit":
			return nil
		case "b", "back":
			err = s.Back(ctx)
		default:
			err = s.AnswerString(ctx, input)
		}
		if recoverable(err) {
			fmt.Fprintln(out, err.Error())
			continue
		}
		if err != nil {
			return err
		}
	}

	snapshot := s.Snapshot()
	fmt.Fprintln(out, snapshot.Prompt)
	RenderSummary(out, snapshot)
	return nil
}

// RenderSummary prints a finished game as a table.
func RenderSummary(out io.Writer, snapshot game.Snapshot) {
	guess := "-"
	if snapshot.Proposal != nil {
		guess = snapshot.Proposal.Name
	}

	t := utils.NewTable(out)
	t.AppendHeader(table.Row{"Outcome", "Questions", "Confidence", "Guess"})
	t.AppendRow(table.Row{
		snapshot.Outcome.String(),
		snapshot.Question(),
		fmt.Sprintf("%.0f%%", snapshot.Confidence()*100),
		guess,
	})
	t.Render()
}
