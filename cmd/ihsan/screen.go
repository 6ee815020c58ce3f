package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ihsan/internal/app"
	"ihsan/internal/pkg/text"
	"ihsan/internal/screening"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	halalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	haramStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func screenCmd() *cobra.Command {
	var asJSON, quiet bool
	cmd := &cobra.Command{
		Use:   "screen TICKER [TICKER...]",
		Short: "Screen tickers and print the verdicts",
		Long: `Screen one or more tickers against the compliance rules and print a table.

Tickers may be separated by spaces or commas, e.g. "ihsan screen AAPL,MSFT BTC-USD".
Tickers that cannot be resolved are listed after the table.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tickers := screening.ParseTickers(strings.Join(args, " "))
			if len(tickers) == 0 {
				return screening.ErrNoTickers
			}
			cfg, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()
			a, err := app.NewApp(cfg)
			if err != nil {
				return fmt.Errorf("initializing app failed: %w", err)
			}

			var opts []screening.BatchOption
			if !quiet && !asJSON {
				bar := newProgressBar(cmd.ErrOrStderr(), len(tickers))
				opts = append(opts, screening.WithProgress(func(string, error) { _ = bar.Add(1) }))
			}
			results := a.Screener().Screen(cmd.Context(), tickers, opts...)
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"success": true, "results": results})
			}
			return renderResults(cmd.OutOrStdout(), tickers, results)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the API JSON instead of a table")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan]Screening...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

func renderResults(out io.Writer, requested []string, results []screening.Result) error {
	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Ticker"),
		headerStyle.Render("Name"),
		headerStyle.Render("Verdict"),
		headerStyle.Render("Score"),
		headerStyle.Render("Debt %"),
		headerStyle.Render("Cash %"),
		headerStyle.Render("Price"),
		headerStyle.Render("Reason")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.Ticker] = true
		verdict := haramStyle.Render("NOT COMPLIANT")
		if r.IsHalal {
			verdict = halalStyle.Render("COMPLIANT")
		}
		debt, cash := "-", "-"
		if !r.Ratios.Skipped {
			debt = p.Sprintf("%.2f", r.Ratios.Debt)
			cash = p.Sprintf("%.2f", r.Ratios.Cash)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.Ticker,
			text.Truncate(r.Name, 28),
			verdict,
			r.ShariaScore,
			debt,
			cash,
			p.Sprintf("%.2f %s", r.Financials.Price, r.Currency),
			r.Reason); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	var missing []string
	for _, t := range requested {
		if !seen[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintln(out, dimStyle.Render("unresolved: "+strings.Join(missing, ", ")))
	}
	return nil
}
