package state

import (
	"strconv"

	"github.com/humanbelnik/storypoker/internal/model"
)

type CardKind int

const (
	CardNone CardKind = iota
	CardAbstain
	CardPoints
)

type Card struct {
	Kind  CardKind
	Value int
}

func Points(v int) Card {
	return Card{Kind: CardPoints, Value: v}
}

func Abstain() Card {
	return Card{Kind: CardAbstain}
}

// CardOf maps a stored vote value to the card showing it. Nil is an abstention.
func CardOf(value *int) Card {
	if value == nil {
		return Abstain()
	}
	return Points(*value)
}

// VoteValue is the inverse of CardOf. It is only meaningful for picked cards.
func (c Card) VoteValue() *int {
	if c.Kind != CardPoints {
		return nil
	}
	return model.IntPtr(c.Value)
}

func (c Card) String() string {
	switch c.Kind {
	case CardAbstain:
		return "?"
	case CardPoints:
		return strconv.Itoa(c.Value)
	}
	return "-"
}

// View is what a viewer knows about the room.
type View struct {
	ViewerID string
	Room     model.Room
	Members  []model.MemberSummary
	Stories  []model.StoryWithVotes

	// ActiveStoryIndex is -1 while the room has no stories.
	ActiveStoryIndex int
	SelectedCard     Card

	Live  bool
	Stale bool
}

func (v View) ActiveStory() (model.StoryWithVotes, bool) {
	if v.ActiveStoryIndex < 0 || v.ActiveStoryIndex >= len(v.Stories) {
		return model.StoryWithVotes{}, false
	}
	return v.Stories[v.ActiveStoryIndex], true
}

func (v View) storyIndex(storyID string) int {
	for i, s := range v.Stories {
		if s.ID == storyID {
			return i
		}
	}
	return -1
}

func (v View) clone() View {
	c := v
	c.Members = append([]model.MemberSummary(nil), v.Members...)
	c.Stories = make([]model.StoryWithVotes, len(v.Stories))
	for i, s := range v.Stories {
		s.Votes = append([]model.Vote(nil), s.Votes...)
		c.Stories[i] = s
	}
	return c
}

// ownCard is the card matching the viewer's vote on the story at i.
func (v View) ownCard(i int) Card {
	if i < 0 || i >= len(v.Stories) {
		return Card{}
	}
	if vote, ok := v.Stories[i].VoteOf(v.ViewerID); ok {
		return CardOf(vote.Value)
	}
	return Card{}
}

// Hydrate builds a view from a server snapshot, replacing whatever was known before.
func Hydrate(snap model.Snapshot) View {
	v := View{
		ViewerID:         snap.ViewerID,
		Room:             snap.Room,
		Members:          snap.Members,
		Stories:          snap.Stories,
		ActiveStoryIndex: -1,
	}
	v = v.clone()
	for i := range v.Stories {
		if v.Stories[i].Votes == nil {
			v.Stories[i].Votes = []model.Vote{}
		}
	}

	if i := v.storyIndex(snap.ActiveStoryID); i >= 0 {
		v.ActiveStoryIndex = i
	} else if len(v.Stories) > 0 {
		v.ActiveStoryIndex = 0
	}
	v.SelectedCard = v.ownCard(v.ActiveStoryIndex)
	return v
}
