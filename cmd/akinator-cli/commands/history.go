package commands

import (
	"errors"
	"fmt"
	"time"

	"akiclient/cmd/akinator-cli/utils"
	"akiclient/lib/gamedata"
	"akiclient/lib/gamelog"
	"akiclient/lib/scrapers/akinator/game"
	"akiclient/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "The number of games to show, 0 shows every game.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Lists the games recorded in the game log.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := getGlobals(ctx).Config
		if cfg.LogDb == "" {
			serviceutil.Fatal("no game log is configured", errors.New("log_db is empty"))
		}

		store, err := gamelog.Open(ctx, cfg.LogDb)
		if err != nil {
			serviceutil.Fatal("failed to open game log", err)
		}
		defer store.Close()

		games, err := store.List(ctx, historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to list games", err)
		}
		stats, err := store.Stats(ctx)
		if err != nil {
			serviceutil.Fatal("failed to count games", err)
		}

		t := utils.NewTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Finished", "Outcome", "Language", "Theme", "Questions", "Guess"})
		for _, g := range games {
			language := gamedata.LanguageName(g.Language)
			if g.ChildMode {
				language += " (child)"
			}
			t.AppendRow(table.Row{
				g.FinishedAt.Format(time.DateTime),
				g.Outcome.String(),
				language,
				g.Theme.String(),
				g.Questions,
				g.Guess,
			})
		}
		t.AppendFooter(table.Row{
			"", "",
			fmt.Sprintf("%d won", stats[game.OutcomeWin]),
			fmt.Sprintf("%d lost", stats[game.OutcomeLoss]),
		})
		t.Render()
	},
}
