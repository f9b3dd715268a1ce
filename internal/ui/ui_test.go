package ui_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/repovista/repovista/application/service"
	"github.com/repovista/repovista/domain/repository"
	"github.com/repovista/repovista/internal/ui"
)

func TestSparkline(t *testing.T) {
	activity := []repository.ActivityDay{
		repository.NewActivityDay("2026-08-01", 0, 0),
		repository.NewActivityDay("2026-08-02", 3, 1),
		repository.NewActivityDay("2026-08-03", 8, 2),
		repository.NewActivityDay("2026-08-04", 12, 3),
		repository.NewActivityDay("2026-08-05", 20, 4),
	}
	assert.Equal(t, " ▁▃▅▇", ui.Sparkline(activity))
}

func TestSparklineClampsLevels(t *testing.T) {
	activity := []repository.ActivityDay{
		repository.NewActivityDay("2026-08-01", 100, 9),
	}
	assert.Equal(t, "▇", ui.Sparkline(activity))
}

func TestRenderRepositoriesEmptyList(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(&buf)

	p.RenderRepositories(nil)

	assert.Contains(t, buf.String(), "no repositories yet")
}

func TestRenderRepositoriesTable(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(&buf)

	repos := []repository.Repository{
		repository.New("r1", "https://github.com/org/repo",
			repository.WithName("org/repo"),
			repository.WithIndexStatus(repository.StatusCompleted),
			repository.WithLanguage("Go")),
	}
	p.RenderRepositories(repos)

	out := buf.String()
	assert.Contains(t, out, "org/repo")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Go")
}

func TestRenderDashboardNeedsInitialIndex(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(&buf)

	repo := repository.New("r1", "https://github.com/org/repo",
		repository.WithIndexStatus(repository.StatusDiscovered))
	state := service.Reconcile(repository.StatusDiscovered, false, false)

	p.RenderDashboard(repo, state, repository.EmptyStats())

	assert.Contains(t, buf.String(), "repovista repos index r1")
}

func TestRenderDashboardReindexingKeepsStatsVisible(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(&buf)

	repo := repository.New("r1", "https://github.com/org/repo",
		repository.WithIndexStatus(repository.StatusIndexing))
	stats := repository.NewStats(7, time.Now(),
		[]repository.Contributor{repository.NewContributor("Ada", "ada@example.com", 7, "")},
		nil, nil, nil)
	state := service.Reconcile(repository.StatusIndexing, true, false)

	p.RenderDashboard(repo, state, stats)

	out := buf.String()
	assert.Contains(t, out, "re-indexing in progress")
	assert.Contains(t, out, "Ada")
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, "-", ui.Elapsed(time.Time{}))
	assert.Equal(t, "now", ui.Elapsed(time.Now()))
	assert.Equal(t, "2h", ui.Elapsed(time.Now().Add(-2*time.Hour)))
	assert.Equal(t, "3d", ui.Elapsed(time.Now().Add(-73*time.Hour)))
}
