package marketdata

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Reporter prints the human readable progress of a run.
// Styles fall back to plain text when the writer is not a terminal.
type Reporter struct {
	out          io.Writer
	headerStyle  lipgloss.Style
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	doneStyle    lipgloss.Style
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	renderer := lipgloss.NewRenderer(out)

	return &Reporter{
		out:          out,
		headerStyle:  renderer.NewStyle().Bold(true),
		successStyle: renderer.NewStyle().Foreground(lipgloss.Color("2")),
		errorStyle:   renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		doneStyle:    renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	}
}

// GroupStarted prints the banner of an asset class group.
func (r *Reporter) GroupStarted(assetClass AssetClass) {
	r.printf("\n%s\n", r.headerStyle.Render(fmt.Sprintf("--- Downloading %s Data ---", strings.ToUpper(string(assetClass)))))
}

// Fetching announces the fetch of symbol.
func (r *Reporter) Fetching(symbol string, providerName string) {
	r.printf("--> Fetching %s from %s...\n", symbol, providerName)
}

// Saved reports a written archive.
func (r *Reporter) Saved(path string) {
	r.printf("    %s\n", r.successStyle.Render("SUCCESS: Saved LEAN data to "+path))
}

// NoData reports an instrument skipped for lack of data.
func (r *Reporter) NoData(symbol string) {
	r.printf("    %s\n", r.errorStyle.Render(fmt.Sprintf("ERROR: No data returned for %s.", symbol)))
}

// Failed reports an instrument whose fetch or packaging failed.
func (r *Reporter) Failed(symbol string, err error) {
	r.printf("    %s\n", r.errorStyle.Render(fmt.Sprintf("ERROR: Failed to process %s. Reason: %v", symbol, err)))
}

// Completed prints the closing line of a run.
func (r *Reporter) Completed() {
	r.printf("\n\n%s\n", r.doneStyle.Render("All data downloads are complete! You are ready to backtest."))
}

// Summary prints the per-status counters of report.
func (r *Reporter) Summary(report Report) {
	r.printf("%d written, %d without data, %d failed\n", report.Succeeded(), report.Skipped(), report.Failed())
}

func (r *Reporter) printf(format string, args ...any) {
	// stdout write failures have nowhere to be reported
	_, _ = fmt.Fprintf(r.out, format, args...)
}
