package state

import (
	"encoding/json"
	"fmt"

	"github.com/humanbelnik/storypoker/internal/model"
)

// Event is one stream message. The set of implementations is closed.
type Event interface {
	event()
}

type SelfVoted struct {
	StoryID string
	Value   *int
}

type UserVoted struct {
	StoryID  string
	MemberID string
}

type RevealStory struct {
	StoryID string
	Votes   []model.Vote
}

type UnrevealStory struct {
	StoryID string
}

type MemberJoined struct {
	Member model.MemberSummary
}

type NewStory struct {
	Story model.Story
}

type NextStory struct {
	StoryID string
}

func (SelfVoted) event()     {}
func (UserVoted) event()     {}
func (RevealStory) event()   {}
func (UnrevealStory) event() {}
func (MemberJoined) event()  {}
func (NewStory) event()      {}
func (NextStory) event()     {}

// DecodeFrame turns a raw stream message into an Event.
func DecodeFrame(raw []byte) (Event, error) {
	var f model.Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch f.Action {
	case model.ActionSelfVoted:
		return SelfVoted{StoryID: f.StoryID, Value: f.Value}, nil
	case model.ActionUserVoted:
		return UserVoted{StoryID: f.StoryID, MemberID: f.MemberID}, nil
	case model.ActionRevealStory:
		return RevealStory{StoryID: f.StoryID, Votes: f.Votes}, nil
	case model.ActionUnrevealStory:
		return UnrevealStory{StoryID: f.StoryID}, nil
	case model.ActionMemberJoined:
		if f.Member == nil {
			return nil, fmt.Errorf("decode frame: %s without member", f.Action)
		}
		return MemberJoined{Member: *f.Member}, nil
	case model.ActionNewStory:
		if f.Story == nil {
			return nil, fmt.Errorf("decode frame: %s without story", f.Action)
		}
		return NewStory{Story: *f.Story}, nil
	case model.ActionNextStory:
		return NextStory{StoryID: f.StoryID}, nil
	}
	return nil, fmt.Errorf("decode frame: unknown action %q", f.Action)
}
