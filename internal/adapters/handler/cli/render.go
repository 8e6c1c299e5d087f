package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

const barWidth = 20

type renderer struct {
	out io.Writer
	now func() time.Time
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out, now: time.Now}
}

func (r *renderer) pollList(polls []*domain.Poll) {
	if len(polls) == 0 {
		fmt.Fprintln(r.out, "no polls found")
		return
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tVOTES\tCREATED\tVOTED")
	for _, p := range polls {
		voted := ""
		if p.HasVoted {
			voted = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Title, humanize.Comma(p.TotalVotes), humanize.RelTime(p.CreatedAt, r.now(), "ago", "from now"), voted)
	}
	tw.Flush()
}

// status is "" when the view has no live channel to report on.
func (r *renderer) poll(p *domain.Poll, status string) {
	header := fmt.Sprintf("#%d %s", p.ID, p.Title)
	if status != "" {
		header += "  [" + status + "]"
	}
	fmt.Fprintln(r.out, header)
	if p.Description != "" {
		fmt.Fprintln(r.out, p.Description)
	}
	fmt.Fprintf(r.out, "created %s · %s %s\n\n",
		humanize.RelTime(p.CreatedAt, r.now(), "ago", "from now"),
		humanize.Comma(p.TotalVotes),
		plural(p.TotalVotes, "vote", "votes"),
	)

	width := 0
	for _, opt := range p.Options {
		width = max(width, len([]rune(opt.Text)))
	}
	for _, s := range p.Stats() {
		marker := " "
		if p.UserVote != nil && *p.UserVote == s.OptionID {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s [%d] %-*s  %s %3d%%  (%s)\n",
			marker, s.OptionID, width, s.Text, bar(s.Percentage), s.Percentage, humanize.Comma(s.VoteCount))
	}

	if p.HasVoted {
		if p.UserVote != nil {
			if opt, ok := p.Option(*p.UserVote); ok {
				fmt.Fprintf(r.out, "\nyou voted for %q\n", opt.Text)
				return
			}
		}
		fmt.Fprintln(r.out, "\nyou already voted on this poll")
	}
}

func (r *renderer) user(u *domain.User) {
	fmt.Fprintf(r.out, "%s <%s> (id %d), member since %s\n",
		u.Name, u.Email, u.ID, humanize.RelTime(u.CreatedAt, r.now(), "ago", "from now"))
}

func bar(percentage int) string {
	filled := percentage * barWidth / 100
	filled = min(max(filled, 0), barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
