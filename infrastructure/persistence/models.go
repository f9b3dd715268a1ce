// Package persistence provides the local state store backing the client:
// the persisted session and the last-known repository snapshot, so the
// dashboard renders before the first network round-trip.
package persistence

import "time"

// sessionModel is the single persisted session row.
type sessionModel struct {
	ID        uint `gorm:"primaryKey"`
	UserID    string
	Email     string
	Name      string
	AvatarURL string
	Token     string
	UpdatedAt time.Time
}

func (sessionModel) TableName() string { return "sessions" }

// repositoryModel is a snapshot row of a backend repository record.
type repositoryModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string
	URL           string
	IsPrivate     bool
	Provider      string
	DefaultBranch string
	Status        string
	Description   string
	Language      string
	CreatedAt     time.Time
	UpdatedAtRaw  time.Time `gorm:"column:remote_updated_at"`
	LastIndexedAt time.Time
	CachedAt      time.Time `gorm:"autoUpdateTime"`
}

func (repositoryModel) TableName() string { return "repository_snapshots" }
