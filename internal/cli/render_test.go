package cli

import (
	"testing"

	"github.com/humanbelnik/storypoker/internal/client/state"
	"github.com/humanbelnik/storypoker/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRenderView(t *testing.T) {
	v := state.View{
		ViewerID: "m-1",
		Room:     model.Room{Name: "Sprint"},
		Members:  []model.MemberSummary{{ID: "m-1", Name: "Alice"}, {ID: "m-2", Name: "Bob"}},
		Stories: []model.StoryWithVotes{
			{
				Story: model.Story{ID: "s-1", Title: "Login", IsCompleted: true},
				Votes: []model.Vote{{MemberID: "m-1", Value: model.IntPtr(3)}, {MemberID: "m-2"}},
			},
			{
				Story: model.Story{ID: "s-2", Title: "Search", Description: "full text"},
				Votes: []model.Vote{{MemberID: "m-1"}, {MemberID: "m-2"}},
			},
		},
		ActiveStoryIndex: 1,
		SelectedCard:     state.Abstain(),
		Live:             true,
	}

	out := renderView(v)
	assert.Contains(t, out, "== Sprint [live] ==")
	assert.Contains(t, out, "members: Alice (you), Bob")
	assert.Contains(t, out, "  1. [x] Login  {Alice=3 Bob=?}")
	assert.Contains(t, out, "> 2. [ ] Search  {Alice=? Bob=*}")
	assert.Contains(t, out, "   full text")
	assert.Contains(t, out, "your card: ?")
}

func TestRenderStaleOffline(t *testing.T) {
	out := renderView(state.View{Room: model.Room{Name: "Sprint"}, ActiveStoryIndex: -1, Stale: true})
	assert.Contains(t, out, "== Sprint [offline] (out of date) ==")
	assert.Contains(t, out, "your card: -")
}
