package commands

import (
	"strings"

	"akiclient/cmd/akinator-cli/utils"
	"akiclient/lib/gamedata"
	"akiclient/lib/scrapers/akinator/region"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(languagesCmd)
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Lists the languages that can be played in and their themes.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		globals := getGlobals(cmd.Context())
		resolver := region.Resolver{Domain: globals.Config.Domain}

		t := utils.NewTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Language", "Code", "Region", "Themes"})

		for _, name := range gamedata.LanguageNames() {
			r, err := resolver.Lookup(name)
			if err != nil {
				continue
			}
			themes := make([]string, len(r.Themes))
			for i, theme := range r.Themes {
				themes[i] = theme.String()
			}
			t.AppendRow(table.Row{name, r.Code, r.URI, strings.Join(themes, ", ")})
		}

		t.Render()
	},
}
