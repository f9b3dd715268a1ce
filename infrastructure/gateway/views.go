package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repovista/repovista/application/service"
	"github.com/repovista/repovista/domain/repository"
	"github.com/repovista/repovista/infrastructure/backend"
)

type repositoryPayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Provider      string `json:"provider,omitempty"`
	Status        string `json:"status"`
	Description   string `json:"description,omitempty"`
	Language      string `json:"language,omitempty"`
	LastIndexedAt string `json:"lastIndexedAt,omitempty"`
}

func toRepositoryPayload(r repository.Repository) repositoryPayload {
	p := repositoryPayload{
		ID:          r.ID(),
		Name:        r.DisplayName(),
		URL:         r.URL(),
		Provider:    r.Provider(),
		Status:      string(r.Status()),
		Description: r.Description(),
		Language:    r.Language(),
	}
	if !r.LastIndexedAt().IsZero() {
		p.LastIndexedAt = r.LastIndexedAt().Format(time.RFC3339)
	}
	return p
}

// handleHome serves the repository list backing the dashboard index.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	repos, err := s.repos.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	payload := make([]repositoryPayload, 0, len(repos))
	for _, repo := range repos {
		payload = append(payload, toRepositoryPayload(repo))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"repositories": payload})
}

type dashboardPayload struct {
	Repository repositoryPayload `json:"repository"`
	Mode       string            `json:"mode"`
	Actionable bool              `json:"actionable,omitempty"`
	RetryHint  bool              `json:"retryHint,omitempty"`
	Stats      *statsPayload     `json:"stats,omitempty"`
}

type statsPayload struct {
	TotalCommits int                  `json:"totalCommits"`
	LastCommit   string               `json:"lastCommit,omitempty"`
	Contributors []contributorPayload `json:"contributors"`
}

type contributorPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Commits int    `json:"commits"`
}

// handleRepository serves the detail dashboard for one repository,
// reconciled into the view mode the terminal client renders.
func (s *Server) handleRepository(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	repo, err := s.repos.Get(r.Context(), id)
	if err != nil {
		if backend.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, "repository not found")
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if repo.IsEmpty() {
		s.writeError(w, http.StatusNotFound, "repository not found")
		return
	}

	status, _ := s.repos.LastStatus(id)
	stats, statsPresent := s.repos.CachedStats(id)
	state := service.Reconcile(status, statsPresent, s.repos.IndexSignal(id))

	payload := dashboardPayload{
		Repository: toRepositoryPayload(repo),
		Mode:       string(state.Mode()),
		Actionable: state.Actionable(),
		RetryHint:  state.RetryHint(),
	}
	if statsPresent {
		sp := &statsPayload{
			TotalCommits: stats.TotalCommits(),
			Contributors: make([]contributorPayload, 0, len(stats.Contributors())),
		}
		if !stats.LastCommit().IsZero() {
			sp.LastCommit = stats.LastCommit().Format(time.RFC3339)
		}
		for _, c := range stats.Contributors() {
			sp.Contributors = append(sp.Contributors, contributorPayload{
				Name: c.Name(), Email: c.Email(), Commits: c.Commits(),
			})
		}
		payload.Stats = sp
	}
	s.writeJSON(w, http.StatusOK, payload)
}
