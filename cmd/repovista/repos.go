package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/repovista/repovista"
	"github.com/repovista/repovista/application/service"
	"github.com/repovista/repovista/internal/ui"
)

func reposCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Manage tracked repositories",
	}

	cmd.AddCommand(reposListCmd(envFile))
	cmd.AddCommand(reposAddCmd(envFile))
	cmd.AddCommand(reposSyncCmd(envFile))
	cmd.AddCommand(reposIndexCmd(envFile))
	cmd.AddCommand(reposShowCmd(envFile))

	return cmd
}

func reposListCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(*envFile)
			if err != nil {
				return err
			}
			defer client.Close()

			repos, err := client.Repositories.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list repositories: %w", err)
			}
			printer(cmd).RenderRepositories(repos)
			return nil
		},
	}
}

func reposAddCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add [url]",
		Short: "Track a repository by URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(*envFile)
			if err != nil {
				return err
			}
			defer client.Close()
			p := printer(cmd)

			url := ""
			if len(args) > 0 {
				url = args[0]
			} else {
				url, err = ui.PromptRepositoryURL()
				if err != nil {
					return err
				}
			}

			created, err := client.Repositories.Create(cmd.Context(), url)
			if err != nil {
				p.Error("add repository: %v", err)
				return err
			}
			p.Success("tracking %s (id %s)", created.DisplayName(), created.ID())
			p.Info("start indexing with 'repovista repos index %s'", created.ID())
			return nil
		},
	}
}

func reposSyncCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Re-scan the provider for new repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(*envFile)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Repositories.Sync(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync repositories: %w", err)
			}
			printer(cmd).Success("%s (%d repositories)", summary.Message(), summary.Synced())
			return nil
		},
	}
}

func reposIndexCmd(envFile *string) *cobra.Command {
	var (
		watch bool
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "index <id>",
		Short: "Trigger (re-)indexing of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(*envFile)
			if err != nil {
				return err
			}
			defer client.Close()
			p := printer(cmd)
			id := args[0]

			// Re-indexing a repository that already has statistics keeps
			// them visible, but still costs a run; confirm first.
			if _, present := client.Repositories.CachedStats(id); present && !yes {
				repo, err := client.Repositories.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				confirmed, err := ui.ConfirmReindex(repo.DisplayName())
				if err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}

			if err := client.Repositories.TriggerIndex(cmd.Context(), id); err != nil {
				p.Error("trigger indexing: %v", err)
				return err
			}
			p.Success("indexing requested")

			if watch {
				return watchRepository(cmd, client, id)
			}
			p.Info("follow progress with 'repovista repos show %s --watch'", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Poll status until indexing completes")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the re-index confirmation")

	return cmd
}

func reposShowCmd(envFile *string) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the analytics dashboard for a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(*envFile)
			if err != nil {
				return err
			}
			defer client.Close()
			id := args[0]

			if watch {
				return watchRepository(cmd, client, id)
			}

			repo, state, stats, err := client.Dashboard(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("load dashboard: %w", err)
			}
			printer(cmd).RenderDashboard(repo, state, stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling and re-render on changes")

	return cmd
}

// watchRepository drives the indexing monitor and re-renders the dashboard
// on every change until the run settles in the ready mode or the user
// interrupts.
func watchRepository(cmd *cobra.Command, client *repovista.Client, id string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := printer(cmd)
	monitor := client.Monitor(id)

	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = monitor.Run(monitorCtx)
	}()

	render := func() (service.ViewState, error) {
		repo, err := client.Repositories.Get(ctx, id)
		if err != nil {
			return service.ViewState{}, err
		}
		stats, _ := client.Repositories.CachedStats(id)
		state := monitor.Snapshot()
		p.RenderDashboard(repo, state, stats)
		if progress, ok := monitor.Progress(); ok && state.Mode() != service.ModeReady {
			p.Info("progress: %.0f%%", progress*100)
		}
		return state, nil
	}

	if _, err := render(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		case <-monitor.Updates():
			state, err := render()
			if err != nil {
				return err
			}
			if state.Mode() == service.ModeReady {
				cancel()
				<-done
				return nil
			}
		}
	}
}
