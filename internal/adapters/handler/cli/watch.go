package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/services"
)

type watchOptions struct {
	duration time.Duration
	updates  int
	vote     int64
}

func newWatchCommand(app *App) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <poll-id>",
		Short: "Follow a poll's results live",
		Long: "Keeps a real-time connection to the poll and redraws the results on every change.\n" +
			"Results are also pulled periodically, so the view stays correct while offline.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			pollID, err := parseID(args[0], "poll")
			if err != nil {
				return err
			}
			return watch(cmd, deps, pollID, opts)
		},
	}
	cmd.Flags().DurationVar(&opts.duration, "for", 0, "stop after this long (default: until interrupted)")
	cmd.Flags().IntVar(&opts.updates, "updates", 0, "stop after this many redraws")
	cmd.Flags().Int64Var(&opts.vote, "vote", 0, "cast this option id once the poll is loaded")
	return cmd
}

func watch(cmd *cobra.Command, deps *Deps, pollID int64, opts watchOptions) error {
	ctx := cmd.Context()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	view := services.NewPollView(pollID, services.PollViewDeps{
		Results: deps.Results,
		Dialer:  deps.Dialer,
		Votes:   deps.Votes,
		Ledger:  deps.Ledger,
		Logger:  deps.Logger,
	}, services.PollViewConfig{
		RefreshInterval: deps.Config.RefreshInterval,
		Reconnect: services.ReconnectPolicy{
			BaseDelay:   deps.Config.ReconnectBase,
			MaxAttempts: deps.Config.ReconnectMaxAttempts,
		},
	})

	// Keep only the newest snapshot; rendering is slower than updates can be.
	snapshots := make(chan *domain.Poll, 1)
	view.OnChange(func(p *domain.Poll) {
		for {
			select {
			case snapshots <- p:
				return
			default:
				select {
				case <-snapshots:
				default:
				}
			}
		}
	})

	view.Mount()
	defer view.Unmount()

	// Later failures only degrade the view; a poll that never loads is an error.
	if _, err := view.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	r := newRenderer(cmd.OutOrStdout())
	voted := opts.vote == 0
	redraws := 0
	for {
		select {
		case <-ctx.Done():
			return nil

		case p := <-snapshots:
			if redraws > 0 {
				fmt.Fprintln(r.out)
			}
			r.poll(p, liveLabel(view))
			redraws++

			if !voted {
				voted = true
				option := opts.vote
				if _, err := view.Vote(ctx, &option); err != nil {
					return err
				}
				fmt.Fprintln(r.out, "vote recorded")
			}
			if opts.updates > 0 && redraws >= opts.updates {
				return nil
			}
			if err := view.LastError(); err != nil {
				deps.Logger.Debug("last refresh failed", zap.Error(err))
			}
		}
	}
}

func liveLabel(view *services.PollView) string {
	if view.Connected() {
		return "Live"
	}
	if view.ChannelStatus() == services.StatusFailed {
		return "Offline"
	}
	return "Offline, reconnecting"
}
