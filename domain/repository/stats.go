package repository

import "time"

// Contributor is a single commit author in the repository statistics.
type Contributor struct {
	name      string
	email     string
	commits   int
	avatarURL string
}

// NewContributor creates a Contributor.
func NewContributor(name, email string, commits int, avatarURL string) Contributor {
	return Contributor{name: name, email: email, commits: commits, avatarURL: avatarURL}
}

// Name returns the contributor name.
func (c Contributor) Name() string { return c.name }

// Email returns the contributor email.
func (c Contributor) Email() string { return c.email }

// Commits returns the contributor commit count.
func (c Contributor) Commits() int { return c.commits }

// AvatarURL returns the optional avatar URL.
func (c Contributor) AvatarURL() string { return c.avatarURL }

// ActivityDay is one bucket of the daily commit-activity series.
type ActivityDay struct {
	date  string // YYYY-MM-DD
	count int
	level int // 0-4
}

// NewActivityDay creates an ActivityDay with an explicit level.
func NewActivityDay(date string, count, level int) ActivityDay {
	return ActivityDay{date: date, count: count, level: level}
}

// Date returns the bucket date in YYYY-MM-DD form.
func (a ActivityDay) Date() string { return a.date }

// Count returns the commits on that day.
func (a ActivityDay) Count() int { return a.count }

// Level returns the bucketed intensity level (0-4).
func (a ActivityDay) Level() int { return a.level }

// ActivityLevelFor buckets a daily commit count into an intensity level 0-4.
func ActivityLevelFor(count int) int {
	switch {
	case count <= 0:
		return 0
	case count < 5:
		return 1
	case count < 10:
		return 2
	case count < 15:
		return 3
	default:
		return 4
	}
}

// Owner is one ranked entry of the bus-factor ownership breakdown.
type Owner struct {
	name         string
	email        string
	filesOwned   int
	ownershipPct float64
}

// NewOwner creates an Owner.
func NewOwner(name, email string, filesOwned int, ownershipPct float64) Owner {
	return Owner{name: name, email: email, filesOwned: filesOwned, ownershipPct: ownershipPct}
}

// Name returns the owner name.
func (o Owner) Name() string { return o.name }

// Email returns the owner email.
func (o Owner) Email() string { return o.email }

// FilesOwned returns the number of files predominantly owned.
func (o Owner) FilesOwned() int { return o.filesOwned }

// OwnershipPct returns the ownership percentage.
func (o Owner) OwnershipPct() float64 { return o.ownershipPct }

// BusFactor summarizes knowledge-concentration risk for a repository.
type BusFactor struct {
	count      int
	riskLevel  string
	totalFiles int
	threshold  float64
	topOwners  []Owner
}

// NewBusFactor creates a BusFactor summary.
func NewBusFactor(count int, riskLevel string, totalFiles int, threshold float64, topOwners []Owner) BusFactor {
	owners := make([]Owner, len(topOwners))
	copy(owners, topOwners)
	return BusFactor{
		count:      count,
		riskLevel:  riskLevel,
		totalFiles: totalFiles,
		threshold:  threshold,
		topOwners:  owners,
	}
}

// Count returns the bus factor itself.
func (b BusFactor) Count() int { return b.count }

// RiskLevel returns the backend-assigned risk label.
func (b BusFactor) RiskLevel() string { return b.riskLevel }

// TotalFiles returns the number of files considered.
func (b BusFactor) TotalFiles() int { return b.totalFiles }

// Threshold returns the ownership threshold used by the backend.
func (b BusFactor) Threshold() float64 { return b.threshold }

// TopOwners returns the ranked ownership breakdown.
func (b BusFactor) TopOwners() []Owner {
	owners := make([]Owner, len(b.topOwners))
	copy(owners, b.topOwners)
	return owners
}

// ChurnCategory classifies a file's change pattern.
type ChurnCategory string

// ChurnCategory values.
const (
	ChurnHotspot  ChurnCategory = "hotspot"
	ChurnFrequent ChurnCategory = "frequent"
	ChurnMassive  ChurnCategory = "massive"
	ChurnStable   ChurnCategory = "stable"
)

// ChurnFile is one entry of the file-churn ranking.
type ChurnFile struct {
	path         string
	additions    int
	deletions    int
	commitCount  int
	linesChanged int
	churnScore   float64
	lastModified time.Time
	category     ChurnCategory
}

// NewChurnFile creates a ChurnFile.
func NewChurnFile(path string, additions, deletions, commitCount, linesChanged int, churnScore float64, lastModified time.Time, category ChurnCategory) ChurnFile {
	return ChurnFile{
		path:         path,
		additions:    additions,
		deletions:    deletions,
		commitCount:  commitCount,
		linesChanged: linesChanged,
		churnScore:   churnScore,
		lastModified: lastModified,
		category:     category,
	}
}

// Path returns the file path.
func (c ChurnFile) Path() string { return c.path }

// Additions returns the added-line count.
func (c ChurnFile) Additions() int { return c.additions }

// Deletions returns the deleted-line count.
func (c ChurnFile) Deletions() int { return c.deletions }

// CommitCount returns the number of commits touching the file.
func (c ChurnFile) CommitCount() int { return c.commitCount }

// LinesChanged returns the total changed-line count.
func (c ChurnFile) LinesChanged() int { return c.linesChanged }

// ChurnScore returns the backend-computed churn score.
func (c ChurnFile) ChurnScore() float64 { return c.churnScore }

// LastModified returns the last modification time.
func (c ChurnFile) LastModified() time.Time { return c.lastModified }

// Category returns the churn classification.
func (c ChurnFile) Category() ChurnCategory { return c.category }

// Stats aggregates the derived statistics of an indexed repository.
// Statistics are only valid once the repository status is completed;
// while indexing, views render EmptyStats instead of blocking.
type Stats struct {
	totalCommits int
	lastCommit   time.Time
	contributors []Contributor
	activity     []ActivityDay
	busFactor    *BusFactor
	churn        []ChurnFile
	present      bool
}

// NewStats creates a populated Stats.
func NewStats(totalCommits int, lastCommit time.Time, contributors []Contributor, activity []ActivityDay, busFactor *BusFactor, churn []ChurnFile) Stats {
	cs := make([]Contributor, len(contributors))
	copy(cs, contributors)
	as := make([]ActivityDay, len(activity))
	copy(as, activity)
	ch := make([]ChurnFile, len(churn))
	copy(ch, churn)

	var bf *BusFactor
	if busFactor != nil {
		b := *busFactor
		bf = &b
	}

	return Stats{
		totalCommits: totalCommits,
		lastCommit:   lastCommit,
		contributors: cs,
		activity:     as,
		busFactor:    bf,
		churn:        ch,
		present:      true,
	}
}

// EmptyStats returns the zero-valued tolerant default: zero commits, empty
// contributor, activity and churn lists, and no bus factor. Views render it
// in place of statistics that are unavailable while indexing.
func EmptyStats() Stats {
	return Stats{
		contributors: []Contributor{},
		activity:     []ActivityDay{},
		churn:        []ChurnFile{},
	}
}

// TotalCommits returns the total commit count.
func (s Stats) TotalCommits() int { return s.totalCommits }

// LastCommit returns the last commit timestamp.
func (s Stats) LastCommit() time.Time { return s.lastCommit }

// Contributors returns the contributor list.
func (s Stats) Contributors() []Contributor {
	cs := make([]Contributor, len(s.contributors))
	copy(cs, s.contributors)
	return cs
}

// Activity returns the daily activity series.
func (s Stats) Activity() []ActivityDay {
	as := make([]ActivityDay, len(s.activity))
	copy(as, s.activity)
	return as
}

// BusFactor returns the optional bus-factor summary (nil when absent).
func (s Stats) BusFactor() *BusFactor {
	if s.busFactor == nil {
		return nil
	}
	b := *s.busFactor
	return &b
}

// Churn returns the file-churn ranking.
func (s Stats) Churn() []ChurnFile {
	ch := make([]ChurnFile, len(s.churn))
	copy(ch, s.churn)
	return ch
}

// Present returns true for statistics actually fetched from the backend,
// false for the EmptyStats tolerant default.
func (s Stats) Present() bool { return s.present }
