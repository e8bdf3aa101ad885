package model

// RedactVote hides the value of somebody else's vote on a story that has not been
// revealed yet. The vote itself stays visible so "has voted" can still be shown.
func RedactVote(viewerID string, story Story, v Vote) Vote {
	if story.IsCompleted || v.MemberID == viewerID {
		return v
	}
	v.Value = nil
	return v
}

func RedactStory(viewerID string, s StoryWithVotes) StoryWithVotes {
	votes := make([]Vote, 0, len(s.Votes))
	for _, v := range s.Votes {
		votes = append(votes, RedactVote(viewerID, s.Story, v))
	}
	s.Votes = votes
	return s
}

func RedactSnapshot(snap Snapshot) Snapshot {
	stories := make([]StoryWithVotes, 0, len(snap.Stories))
	for _, s := range snap.Stories {
		stories = append(stories, RedactStory(snap.ViewerID, s))
	}
	snap.Stories = stories
	return snap
}

// Placeholder is what a viewer records when told that another member voted.
func Placeholder(storyID, memberID string) Vote {
	return Vote{MemberID: memberID, StoryID: storyID}
}
