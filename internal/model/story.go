package model

import "time"

type Story struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RoomID      string    `json:"roomId"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
}

type StoryDraft struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// Vote.Value == nil is an abstention ("?") or a value hidden from the viewer.
type Vote struct {
	MemberID  string    `json:"memberId"`
	StoryID   string    `json:"storyId"`
	Value     *int      `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

type StoryWithVotes struct {
	Story
	Votes []Vote `json:"votes"`
}

func (s StoryWithVotes) VoteOf(memberID string) (Vote, bool) {
	for _, v := range s.Votes {
		if v.MemberID == memberID {
			return v, true
		}
	}
	return Vote{}, false
}

// Snapshot is a room as one viewer is allowed to see it.
type Snapshot struct {
	Room          Room             `json:"room"`
	ViewerID      string           `json:"viewerId"`
	Members       []MemberSummary  `json:"members"`
	Stories       []StoryWithVotes `json:"stories"`
	ActiveStoryID string           `json:"activeStoryId"`
}

// FirstIncomplete returns the id of the first story not yet revealed, falling back
// to the first story when all are revealed.
func FirstIncomplete(stories []StoryWithVotes) string {
	for _, s := range stories {
		if !s.IsCompleted {
			return s.ID
		}
	}
	if len(stories) > 0 {
		return stories[0].ID
	}
	return ""
}

func IntPtr(v int) *int {
	return &v
}
