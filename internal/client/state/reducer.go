package state

import "github.com/humanbelnik/storypoker/internal/model"

// Reduce applies one event. The input view is never modified.
func Reduce(v View, e Event) View {
	next := v.clone()

	switch e := e.(type) {
	case SelfVoted:
		i := next.storyIndex(e.StoryID)
		if i < 0 {
			next.Stale = true
			return next
		}
		upsertVote(&next.Stories[i], model.Vote{MemberID: next.ViewerID, StoryID: e.StoryID, Value: e.Value})
		if i == next.ActiveStoryIndex {
			next.SelectedCard = CardOf(e.Value)
		}

	case UserVoted:
		if e.MemberID == next.ViewerID {
			return next
		}
		i := next.storyIndex(e.StoryID)
		if i < 0 {
			next.Stale = true
			return next
		}
		// Revealed stories take no votes, so the story was re-opened behind our back.
		if next.Stories[i].IsCompleted {
			next.Stale = true
			return next
		}
		if _, ok := next.Stories[i].VoteOf(e.MemberID); !ok {
			next.Stories[i].Votes = append(next.Stories[i].Votes, model.Placeholder(e.StoryID, e.MemberID))
		}

	case RevealStory:
		i := next.storyIndex(e.StoryID)
		if i < 0 {
			next.Stale = true
			return next
		}
		next.Stories[i].Votes = append([]model.Vote{}, e.Votes...)
		next.Stories[i].IsCompleted = true

	case UnrevealStory:
		i := next.storyIndex(e.StoryID)
		if i < 0 {
			next.Stale = true
			return next
		}
		next.Stories[i].Votes = []model.Vote{}
		next.Stories[i].IsCompleted = false
		if i == next.ActiveStoryIndex {
			next.SelectedCard = Card{}
		}

	case MemberJoined:
		for _, m := range next.Members {
			if m.ID == e.Member.ID {
				return next
			}
		}
		next.Members = append(next.Members, e.Member)

	case NewStory:
		if next.storyIndex(e.Story.ID) >= 0 {
			return next
		}
		next.Stories = append(next.Stories, model.StoryWithVotes{Story: e.Story, Votes: []model.Vote{}})
		if next.ActiveStoryIndex < 0 {
			next.ActiveStoryIndex = 0
			next.SelectedCard = next.ownCard(0)
		}

	case NextStory:
		i := next.storyIndex(e.StoryID)
		if i < 0 {
			next.Stale = true
			return next
		}
		next.ActiveStoryIndex = i
		next.SelectedCard = next.ownCard(i)
	}

	return next
}

func upsertVote(s *model.StoryWithVotes, vote model.Vote) {
	for i := range s.Votes {
		if s.Votes[i].MemberID == vote.MemberID {
			s.Votes[i].Value = vote.Value
			return
		}
	}
	s.Votes = append(s.Votes, vote)
}

func removeVote(s *model.StoryWithVotes, memberID string) {
	votes := s.Votes[:0]
	for _, v := range s.Votes {
		if v.MemberID != memberID {
			votes = append(votes, v)
		}
	}
	s.Votes = votes
}
