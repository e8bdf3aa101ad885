package model

// EventName is what the gateway publishes to the relay.
type EventName string

const (
	EventUserVoted       EventName = "userVoted"
	EventAddStory        EventName = "addStory"
	EventCompleteStory   EventName = "completeStory"
	EventUncompleteStory EventName = "uncompleteStory"
	EventMembersJoined   EventName = "membersJoined"
	EventNextStory       EventName = "nextStory"
)

// Path is the relay endpoint accepting the event.
func (e EventName) Path() string {
	switch e {
	case EventUserVoted:
		return "/vote"
	case EventAddStory:
		return "/story"
	case EventCompleteStory:
		return "/reveal-story"
	case EventUncompleteStory:
		return "/unreveal-story"
	case EventMembersJoined:
		return "/join"
	case EventNextStory:
		return "/next-story"
	}
	return ""
}

type UserVotedPayload struct {
	MemberID string `json:"memberId" binding:"required"`
	StoryID  string `json:"storyId" binding:"required"`
	Value    *int   `json:"value"`
}

type AddStoryPayload struct {
	Story Story `json:"story"`
}

type StoryRefPayload struct {
	StoryID string `json:"storyId" binding:"required"`
}

type MembersJoinedPayload struct {
	Member MemberSummary `json:"member"`
	RoomID string        `json:"roomId" binding:"required"`
}

// Action tags a frame on the relay stream.
type Action string

const (
	ActionSelfVoted     Action = "self_voted"
	ActionUserVoted     Action = "user_voted"
	ActionRevealStory   Action = "reveal_story"
	ActionUnrevealStory Action = "unreveal_story"
	ActionMemberJoined  Action = "member_joined"
	ActionNewStory      Action = "new_story"
	ActionNextStory     Action = "next_story"
)

// Frame is the wire shape of every stream message. Which fields are set depends on Action.
type Frame struct {
	Action   Action         `json:"action"`
	StoryID  string         `json:"storyId,omitempty"`
	MemberID string         `json:"memberId,omitempty"`
	Value    *int           `json:"value,omitempty"`
	Votes    []Vote         `json:"votes,omitempty"`
	Member   *MemberSummary `json:"member,omitempty"`
	Story    *Story         `json:"story,omitempty"`
}
