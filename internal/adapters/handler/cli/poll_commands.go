package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		v := domain.NewValidationError()
		v.Add(what, "must be a positive number")
		return 0, v
	}
	return id, nil
}

func listFlags(cmd *cobra.Command, input *ports.ListPollsInput) {
	cmd.Flags().IntVar(&input.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&input.Limit, "limit", 10, "polls per page (max 100)")
	cmd.Flags().StringVar(&input.Search, "search", "", "match title or description")
}

func newListCommand(app *App) *cobra.Command {
	var input ports.ListPollsInput
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List and search polls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			polls, err := deps.Polls.ListPolls(cmd.Context(), input)
			if err != nil {
				return err
			}
			newRenderer(cmd.OutOrStdout()).pollList(polls)
			return nil
		},
	}
	listFlags(cmd, &input)
	return cmd
}

func newMineCommand(app *App) *cobra.Command {
	var input ports.ListPollsInput
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List polls you created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			polls, err := deps.Polls.MyPolls(cmd.Context(), input)
			if err != nil {
				return err
			}
			newRenderer(cmd.OutOrStdout()).pollList(polls)
			return nil
		},
	}
	listFlags(cmd, &input)
	return cmd
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <poll-id>",
		Short: "Show a poll and its current results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "poll")
			if err != nil {
				return err
			}
			poll, err := deps.Polls.GetPoll(cmd.Context(), id)
			if err != nil {
				return err
			}
			newRenderer(cmd.OutOrStdout()).poll(poll, "")
			return nil
		},
	}
}

func newCreateCommand(app *App) *cobra.Command {
	var input ports.CreatePollInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a poll",
		Example: `  pollctl create --title "Lunch" --description "Where do we eat on Friday?" \
    --option Pizza --option Sushi`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			poll, err := deps.Polls.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created poll %d\n\n", poll.ID)
			newRenderer(cmd.OutOrStdout()).poll(poll, "")
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Title, "title", "", "poll title")
	cmd.Flags().StringVar(&input.Description, "description", "", "poll description")
	cmd.Flags().StringArrayVar(&input.Options, "option", nil, "an answer option, repeat for each one")
	return cmd
}

func newVoteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <poll-id> <option-id>",
		Short: "Vote on a poll",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			pollID, err := parseID(args[0], "poll")
			if err != nil {
				return err
			}

			input := ports.VoteInput{PollID: pollID}
			if len(args) == 2 {
				optionID, err := parseID(args[1], "option")
				if err != nil {
					return err
				}
				input.OptionID = &optionID
			}

			if _, err := deps.Votes.Vote(cmd.Context(), input); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "vote recorded")

			poll, err := deps.Polls.GetPoll(cmd.Context(), pollID)
			if err != nil {
				deps.Logger.Debug("could not reload poll after vote", zap.Error(err))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout())
			newRenderer(cmd.OutOrStdout()).poll(poll, "")
			return nil
		},
	}
}
