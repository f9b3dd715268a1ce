package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/repovista/repovista/domain/repository"
)

// wireID accepts the backend's string-or-number repository identifiers and
// normalizes them to strings at the wire boundary.
type wireID string

// UnmarshalJSON implements json.Unmarshaler.
func (w *wireID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("repository id: %w", err)
	}
	*w = wireID(n.String())
	return nil
}

// repositoryRecord is the wire form of a repository.
type repositoryRecord struct {
	ID            wireID  `json:"id"`
	Name          *string `json:"name"`
	URL           string  `json:"url"`
	IsPrivate     bool    `json:"isPrivate"`
	Provider      string  `json:"provider"`
	DefaultBranch string  `json:"defaultBranch"`
	Status        string  `json:"status"`
	Description   *string `json:"description,omitempty"`
	Language      string  `json:"language,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
	LastIndexedAt string  `json:"lastIndexedAt,omitempty"`
}

func (r repositoryRecord) toDomain() repository.Repository {
	opts := []repository.Option{
		repository.WithPrivate(r.IsPrivate),
		repository.WithProvider(r.Provider),
		repository.WithDefaultBranch(r.DefaultBranch),
		repository.WithIndexStatus(repository.ParseIndexStatus(r.Status)),
		repository.WithLanguage(r.Language),
		repository.WithTimestamps(parseTime(r.CreatedAt), parseTime(r.UpdatedAt)),
	}
	if r.Name != nil {
		opts = append(opts, repository.WithName(*r.Name))
	}
	if r.Description != nil {
		opts = append(opts, repository.WithDescription(*r.Description))
	}
	if r.LastIndexedAt != "" {
		opts = append(opts, repository.WithLastIndexedAt(parseTime(r.LastIndexedAt)))
	}
	return repository.New(string(r.ID), r.URL, opts...)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Repositories exposes the repository endpoints of the backend API.
type Repositories struct {
	client *Client
	logger *slog.Logger
}

// NewRepositories creates a Repositories API wrapper.
func NewRepositories(client *Client) *Repositories {
	return &Repositories{client: client, logger: client.logger}
}

// List fetches all repositories.
func (r *Repositories) List(ctx context.Context) ([]repository.Repository, error) {
	var records []repositoryRecord
	if err := r.client.Get(ctx, "/repositories", nil, &records); err != nil {
		return nil, err
	}
	repos := make([]repository.Repository, len(records))
	for i, rec := range records {
		repos[i] = rec.toDomain()
	}
	return repos, nil
}

// Get fetches a single repository by id.
func (r *Repositories) Get(ctx context.Context, id string) (repository.Repository, error) {
	var record repositoryRecord
	if err := r.client.Get(ctx, "/repositories/"+id, nil, &record); err != nil {
		return repository.Repository{}, err
	}
	return record.toDomain(), nil
}

// Create submits a repository URL for tracking and returns the created record.
func (r *Repositories) Create(ctx context.Context, url string) (repository.Repository, error) {
	var record repositoryRecord
	body := map[string]string{"url": url}
	if err := r.client.Post(ctx, "/repositories", body, &record); err != nil {
		return repository.Repository{}, err
	}
	return record.toDomain(), nil
}

// syncResponse is the wire form of a provider re-scan result.
type syncResponse struct {
	Message string `json:"message"`
	Synced  int    `json:"synced"`
}

// Sync asks the backend to re-scan the provider for repositories.
func (r *Repositories) Sync(ctx context.Context) (repository.SyncSummary, error) {
	var resp syncResponse
	if err := r.client.Post(ctx, "/repositories/sync", struct{}{}, &resp); err != nil {
		return repository.SyncSummary{}, err
	}
	return repository.NewSyncSummary(resp.Message, resp.Synced), nil
}

// TriggerIndex requests (re-)indexing of a repository. The backend accepts
// with an empty 202-style response.
func (r *Repositories) TriggerIndex(ctx context.Context, id string) error {
	return r.client.Post(ctx, "/repositories/"+id+"/index", struct{}{}, nil)
}

// statusResponse is the wire form of the polled status.
type statusResponse struct {
	Status   string   `json:"status"`
	Progress *float64 `json:"progress,omitempty"`
}

// Status fetches the current indexing status of a repository.
func (r *Repositories) Status(ctx context.Context, id string) (repository.StatusReport, error) {
	var resp statusResponse
	if err := r.client.Get(ctx, "/repositories/"+id+"/status", nil, &resp); err != nil {
		return repository.StatusReport{}, err
	}
	status := repository.ParseIndexStatus(resp.Status)
	if resp.Progress != nil {
		return repository.NewStatusReportWithProgress(status, *resp.Progress), nil
	}
	return repository.NewStatusReport(status), nil
}

// contributorRecord is the wire form of a contributor.
type contributorRecord struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Commits   int    `json:"commits"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Contributors fetches the contributor breakdown.
func (r *Repositories) Contributors(ctx context.Context, id string) ([]repository.Contributor, error) {
	var resp struct {
		Contributors []contributorRecord `json:"contributors"`
	}
	if err := r.client.Get(ctx, "/repositories/"+id+"/stats/contributors", nil, &resp); err != nil {
		return nil, err
	}
	contributors := make([]repository.Contributor, len(resp.Contributors))
	for i, c := range resp.Contributors {
		contributors[i] = repository.NewContributor(c.Name, c.Email, c.Commits, c.AvatarURL)
	}
	return contributors, nil
}

// busFactorRecord is the wire form of the bus-factor summary.
type busFactorRecord struct {
	BusFactor       int     `json:"bus_factor"`
	RiskLevel       string  `json:"risk_level,omitempty"`
	TotalFiles      int     `json:"total_files,omitempty"`
	Threshold       float64 `json:"threshold,omitempty"`
	TopContributors []struct {
		Email        string  `json:"email"`
		Name         string  `json:"name"`
		FilesOwned   int     `json:"files_owned"`
		OwnershipPct float64 `json:"ownership_pct"`
	} `json:"top_contributors"`
}

// BusFactor fetches the bus-factor summary.
func (r *Repositories) BusFactor(ctx context.Context, id string) (*repository.BusFactor, error) {
	var record busFactorRecord
	if err := r.client.Get(ctx, "/repositories/"+id+"/stats/bus-factor", nil, &record); err != nil {
		return nil, err
	}
	owners := make([]repository.Owner, len(record.TopContributors))
	for i, o := range record.TopContributors {
		owners[i] = repository.NewOwner(o.Name, o.Email, o.FilesOwned, o.OwnershipPct)
	}
	bf := repository.NewBusFactor(record.BusFactor, record.RiskLevel, record.TotalFiles, record.Threshold, owners)
	return &bf, nil
}

// churnRecord is the wire form of one churn entry.
type churnRecord struct {
	FilePath     string  `json:"file_path"`
	Additions    int     `json:"additions"`
	Deletions    int     `json:"deletions"`
	ChurnScore   float64 `json:"churn_score"`
	CommitCount  int     `json:"commit_count"`
	LinesChanged int     `json:"lines_changed"`
	LastModified string  `json:"last_modified,omitempty"`
	Category     string  `json:"category"`
}

// Churn fetches the file-churn ranking.
func (r *Repositories) Churn(ctx context.Context, id string) ([]repository.ChurnFile, error) {
	var records []churnRecord
	if err := r.client.Get(ctx, "/repositories/"+id+"/stats/churn", nil, &records); err != nil {
		return nil, err
	}
	files := make([]repository.ChurnFile, len(records))
	for i, c := range records {
		files[i] = repository.NewChurnFile(
			c.FilePath,
			c.Additions,
			c.Deletions,
			c.CommitCount,
			c.LinesChanged,
			c.ChurnScore,
			parseTime(c.LastModified),
			repository.ChurnCategory(c.Category),
		)
	}
	return files, nil
}

// activityRecord is the wire form of one activity bucket.
type activityRecord struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// CommitActivity fetches the daily commit-activity series.
func (r *Repositories) CommitActivity(ctx context.Context, id string) ([]repository.ActivityDay, error) {
	var resp struct {
		Activity []activityRecord `json:"activity"`
	}
	if err := r.client.Get(ctx, "/repositories/"+id+"/stats/commit-activity", nil, &resp); err != nil {
		return nil, err
	}
	activity := make([]repository.ActivityDay, len(resp.Activity))
	for i, a := range resp.Activity {
		activity[i] = repository.NewActivityDay(a.Date, a.Count, a.Level)
	}
	return activity, nil
}

// Stats fetches all statistic sections concurrently and assembles them.
// Individual section failures degrade to zero-valued sections; an error is
// returned only when every section failed, so a partially indexed repository
// still renders.
func (r *Repositories) Stats(ctx context.Context, id string) (repository.Stats, error) {
	var (
		contributors []repository.Contributor
		activity     []repository.ActivityDay
		busFactor    *repository.BusFactor
		churn        []repository.ChurnFile
		errs         [4]error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		contributors, errs[0] = r.Contributors(groupCtx, id)
		return nil
	})
	group.Go(func() error {
		activity, errs[1] = r.CommitActivity(groupCtx, id)
		return nil
	})
	group.Go(func() error {
		busFactor, errs[2] = r.BusFactor(groupCtx, id)
		return nil
	})
	group.Go(func() error {
		churn, errs[3] = r.Churn(groupCtx, id)
		return nil
	})
	_ = group.Wait()

	if ctx.Err() != nil {
		return repository.EmptyStats(), ctx.Err()
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			r.logger.Warn("stats section unavailable",
				slog.String("repo_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	if failed == len(errs) {
		return repository.EmptyStats(), fmt.Errorf("fetch stats for %s: %w", id, firstErr(errs[:]))
	}

	totalCommits := 0
	for _, c := range contributors {
		totalCommits += c.Commits()
	}

	return repository.NewStats(totalCommits, lastCommitFrom(activity), contributors, activity, busFactor, churn), nil
}

func firstErr(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// lastCommitFrom derives the most recent commit date from the activity
// series (the backend exposes no dedicated endpoint for it).
func lastCommitFrom(activity []repository.ActivityDay) time.Time {
	dates := make([]string, 0, len(activity))
	for _, day := range activity {
		if day.Count() > 0 {
			dates = append(dates, day.Date())
		}
	}
	if len(dates) == 0 {
		return time.Time{}
	}
	sort.Strings(dates)
	t, err := time.Parse("2006-01-02", dates[len(dates)-1])
	if err != nil {
		return time.Time{}
	}
	return t
}
