package persistence

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/repovista/repovista/domain/repository"
	"github.com/repovista/repovista/domain/session"
)

// sessionRowID pins the session table to one row; there is at most one
// authenticated session per state store.
const sessionRowID = 1

// Store is the SQLite-backed local state store.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the state store at path. ":memory:" is accepted
// for tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	if err := db.AutoMigrate(&sessionModel{}, &repositoryModel{}); err != nil {
		return nil, fmt.Errorf("migrate state store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSession persists the session, replacing any previous one.
func (s *Store) SaveSession(sess session.Session) error {
	model := sessionModel{
		ID:        sessionRowID,
		UserID:    sess.User().ID(),
		Email:     sess.User().Email(),
		Name:      sess.User().Name(),
		AvatarURL: sess.User().AvatarURL(),
		Token:     sess.Token(),
	}
	if err := s.db.Save(&model).Error; err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted session, or a zero Session when none
// is stored.
func (s *Store) LoadSession() (session.Session, error) {
	var model sessionModel
	err := s.db.First(&model, sessionRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return session.Session{}, nil
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}

	var user session.User
	if model.UserID != "" {
		user = session.NewUser(model.UserID, model.Email, model.Name, model.AvatarURL)
	}
	return session.New(user, model.Token), nil
}

// ClearSession removes the persisted session.
func (s *Store) ClearSession() error {
	err := s.db.Delete(&sessionModel{}, sessionRowID).Error
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SaveRepositories replaces the repository snapshot with the given list.
func (s *Store) SaveRepositories(repos []repository.Repository) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&repositoryModel{}).Error; err != nil {
			return fmt.Errorf("clear repository snapshot: %w", err)
		}
		for _, repo := range repos {
			model := toModel(repo)
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("save repository snapshot %s: %w", repo.ID(), err)
			}
		}
		return nil
	})
}

// LoadRepositories returns the snapshot of the last-known repository list.
func (s *Store) LoadRepositories() ([]repository.Repository, error) {
	var models []repositoryModel
	if err := s.db.Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load repository snapshot: %w", err)
	}
	repos := make([]repository.Repository, len(models))
	for i, m := range models {
		repos[i] = toDomain(m)
	}
	return repos, nil
}

func toModel(repo repository.Repository) repositoryModel {
	return repositoryModel{
		ID:            repo.ID(),
		Name:          repo.Name(),
		URL:           repo.URL(),
		IsPrivate:     repo.Private(),
		Provider:      repo.Provider(),
		DefaultBranch: repo.DefaultBranch(),
		Status:        repo.Status().String(),
		Description:   repo.Description(),
		Language:      repo.Language(),
		CreatedAt:     repo.CreatedAt(),
		UpdatedAtRaw:  repo.UpdatedAt(),
		LastIndexedAt: repo.LastIndexedAt(),
	}
}

func toDomain(m repositoryModel) repository.Repository {
	opts := []repository.Option{
		repository.WithName(m.Name),
		repository.WithPrivate(m.IsPrivate),
		repository.WithProvider(m.Provider),
		repository.WithDefaultBranch(m.DefaultBranch),
		repository.WithIndexStatus(repository.ParseIndexStatus(m.Status)),
		repository.WithDescription(m.Description),
		repository.WithLanguage(m.Language),
		repository.WithTimestamps(m.CreatedAt, m.UpdatedAtRaw),
		repository.WithLastIndexedAt(m.LastIndexedAt),
	}
	return repository.New(m.ID, m.URL, opts...)
}
