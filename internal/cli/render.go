package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/humanbelnik/storypoker/internal/client/state"
	"github.com/humanbelnik/storypoker/internal/model"
)

type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) view(v state.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, renderView(v))
}

func (p *printer) line(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func renderView(v state.View) string {
	var b strings.Builder

	status := "offline"
	if v.Live {
		status = "live"
	}
	fmt.Fprintf(&b, "\n== %s [%s]", v.Room.Name, status)
	if v.Stale {
		b.WriteString(" (out of date)")
	}
	b.WriteString(" ==\n")

	names := make(map[string]string, len(v.Members))
	members := make([]string, 0, len(v.Members))
	for _, m := range v.Members {
		names[m.ID] = m.Name
		if m.ID == v.ViewerID {
			members = append(members, m.Name+" (you)")
		} else {
			members = append(members, m.Name)
		}
	}
	fmt.Fprintf(&b, "members: %s\n", strings.Join(members, ", "))

	for i, s := range v.Stories {
		marker := "  "
		if i == v.ActiveStoryIndex {
			marker = "> "
		}
		done := " "
		if s.IsCompleted {
			done = "x"
		}
		fmt.Fprintf(&b, "%s%d. [%s] %s", marker, i+1, done, s.Title)
		if len(s.Votes) > 0 {
			votes := make([]string, 0, len(s.Votes))
			for _, vote := range s.Votes {
				votes = append(votes, names[vote.MemberID]+"="+voteLabel(v.ViewerID, s, vote))
			}
			fmt.Fprintf(&b, "  {%s}", strings.Join(votes, " "))
		}
		b.WriteString("\n")
	}

	if story, ok := v.ActiveStory(); ok && story.Description != "" {
		fmt.Fprintf(&b, "   %s\n", story.Description)
	}
	fmt.Fprintf(&b, "your card: %s\n", v.SelectedCard)
	return b.String()
}

// voteLabel shows "*" for a vote someone cast but the viewer may not see yet.
func voteLabel(viewerID string, s model.StoryWithVotes, vote model.Vote) string {
	if vote.Value != nil {
		return fmt.Sprint(*vote.Value)
	}
	if s.IsCompleted || vote.MemberID == viewerID {
		return "?"
	}
	return "*"
}
