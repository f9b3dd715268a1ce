// Package ui renders dashboard output for the terminal client.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/repovista/repovista/application/service"
	"github.com/repovista/repovista/domain/repository"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorWarning = color.New(color.FgYellow).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorDim     = color.New(color.Faint).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

// Printer writes formatted output to a terminal or plain writer.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer. Colors are disabled when out is not a
// terminal.
func NewPrinter(out io.Writer) *Printer {
	if f, ok := out.(*os.File); ok {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			color.NoColor = true
		}
	} else {
		color.NoColor = true
	}
	return &Printer{out: out}
}

// Out returns the underlying writer.
func (p *Printer) Out() io.Writer { return p.out }

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", colorSuccess("OK"), fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", colorError("ERROR"), fmt.Sprintf(format, args...))
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", colorInfo("INFO"), fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", colorWarning("WARN"), fmt.Sprintf(format, args...))
}

// StatusString renders an index status with its conventional color.
func StatusString(status repository.IndexStatus) string {
	switch status {
	case repository.StatusCompleted:
		return colorSuccess(string(status))
	case repository.StatusIndexing, repository.StatusPending:
		return colorWarning(string(status))
	case repository.StatusFailed:
		return colorError(string(status))
	default:
		return colorDim(string(status))
	}
}

// RenderRepositories prints the repository list table.
func (p *Printer) RenderRepositories(repos []repository.Repository) {
	if len(repos) == 0 {
		p.Info("no repositories yet; add one with 'repovista repos add <url>'")
		return
	}

	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"ID", "Name", "Status", "Language", "Last Indexed"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, repo := range repos {
		lastIndexed := "-"
		if !repo.LastIndexedAt().IsZero() {
			lastIndexed = repo.LastIndexedAt().Format("2006-01-02 15:04")
		}
		table.Append([]string{
			repo.ID(),
			repo.DisplayName(),
			StatusString(repo.Status()),
			repo.Language(),
			lastIndexed,
		})
	}
	table.Render()
}

// RenderDashboard prints the detail view for one repository in its
// reconciled mode.
func (p *Printer) RenderDashboard(repo repository.Repository, state service.ViewState, stats repository.Stats) {
	fmt.Fprintf(p.out, "\n%s  %s\n", colorBold(repo.DisplayName()), colorDim(repo.URL()))
	if repo.Description() != "" {
		fmt.Fprintf(p.out, "%s\n", repo.Description())
	}
	fmt.Fprintf(p.out, "status: %s\n\n", StatusString(repo.Status()))

	switch state.Mode() {
	case service.ModeNeedsInitialIndex:
		if state.Waiting() {
			p.Info("indexing in progress, statistics will appear when it completes")
			return
		}
		if state.RetryHint() {
			p.Warn("the last indexing run failed; retry with 'repovista repos index %s'", repo.ID())
			return
		}
		p.Info("this repository has not been indexed; run 'repovista repos index %s'", repo.ID())
	case service.ModeReindexing:
		p.Warn("re-indexing in progress, showing last indexed statistics")
		p.renderStats(stats)
	case service.ModeReady:
		p.renderStats(stats)
	}
}

func (p *Printer) renderStats(stats repository.Stats) {
	fmt.Fprintf(p.out, "commits: %s", colorBold(fmt.Sprintf("%d", stats.TotalCommits())))
	if !stats.LastCommit().IsZero() {
		fmt.Fprintf(p.out, "   last commit: %s", stats.LastCommit().Format("2006-01-02"))
	}
	if bf := stats.BusFactor(); bf != nil {
		fmt.Fprintf(p.out, "   bus factor: %s (%s risk)", colorBold(fmt.Sprintf("%d", bf.Count())), bf.RiskLevel())
	}
	fmt.Fprintln(p.out)

	if contributors := stats.Contributors(); len(contributors) > 0 {
		fmt.Fprintf(p.out, "\n%s\n", colorBold("Contributors"))
		table := tablewriter.NewWriter(p.out)
		table.SetHeader([]string{"Name", "Email", "Commits"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, c := range contributors {
			table.Append([]string{c.Name(), c.Email(), fmt.Sprintf("%d", c.Commits())})
		}
		table.Render()
	}

	if activity := stats.Activity(); len(activity) > 0 {
		fmt.Fprintf(p.out, "\n%s\n%s\n", colorBold("Activity (last weeks)"), Sparkline(activity))
	}

	if churn := stats.Churn(); len(churn) > 0 {
		fmt.Fprintf(p.out, "\n%s\n", colorBold("Hotspots"))
		table := tablewriter.NewWriter(p.out)
		table.SetHeader([]string{"File", "Changes", "Commits", "Category"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for i, f := range churn {
			if i >= 10 {
				break
			}
			table.Append([]string{f.Path(), fmt.Sprintf("%d", f.LinesChanged()),
				fmt.Sprintf("%d", f.CommitCount()), string(f.Category())})
		}
		table.Render()
	}
}

var sparks = []rune(" ▁▃▅▇")

// Sparkline renders commit activity as one line of block glyphs, one glyph
// per day, using the precomputed activity level (0-4).
func Sparkline(activity []repository.ActivityDay) string {
	var b strings.Builder
	for _, day := range activity {
		level := day.Level()
		if level < 0 {
			level = 0
		}
		if level > 4 {
			level = 4
		}
		b.WriteRune(sparks[level])
	}
	return b.String()
}

// Elapsed renders a duration since t compactly ("3d", "5h", "now").
func Elapsed(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
