package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/personarank/internal/pipeline"
)

const summaryWidth = 72

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

func newShowCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "show <output.json>",
		Short: "Print a result file as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, msg, err := pipeline.ReadOutput(args[0])
			if err != nil {
				return err
			}
			if msg != nil {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(msg.Message))
				return nil
			}
			renderOutput(cmd.OutOrStdout(), out, full)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "print refined text without truncation")
	return cmd
}

func renderOutput(w io.Writer, out *pipeline.Output, full bool) {
	md := out.Metadata
	fmt.Fprintln(w, titleStyle.Render("Persona Ranking"))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Persona:"), md.Persona)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Job:    "), md.JobToBeDone)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Docs:   "), strings.Join(md.InputDocuments, ", "))
	fmt.Fprintf(w, "%s %s\n\n", labelStyle.Render("Run at: "), dimStyle.Render(md.ProcessingTimestamp))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("#", "Document", "Section", "Page", "Summary").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for i, s := range out.ExtractedSections {
		summary := ""
		if i < len(out.SubsectionAnalysis) {
			summary = out.SubsectionAnalysis[i].RefinedText
		}
		if !full {
			summary = truncate(summary, summaryWidth)
		}
		t.Row(strconv.Itoa(s.ImportanceRank), s.Document, s.SectionTitle, strconv.Itoa(s.PageNumber), summary)
	}
	fmt.Fprintln(w, t.Render())
}

// truncate shortens s to at most n runes, ending in an ellipsis when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
