package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depview/pkg/i18n"
)

func (c *CLI) languagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the available interface languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.newSession(cmd.Flags().Changed("lang"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), languageTable(c.table, sess.Language()))
			return nil
		},
	}
}

// languageTable lists every language with its analyze button label as a
// sample, marking the active one.
func languageTable(t *i18n.Table, active string) string {
	codes := t.Languages()
	rows := make([][]string, len(codes))
	for i, code := range codes {
		mark := ""
		if code == active {
			mark = iconSuccess
		}
		rows[i] = []string{mark, code, t.Name(code), t.Label(code, i18n.KeyAnalyzeBtn)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Code", "Language", "Sample").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case codes[row] == active:
				return StyleSuccess.Bold(true)
			case col == 3:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
