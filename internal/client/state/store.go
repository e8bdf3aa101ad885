package state

import (
	"context"
	"errors"
	"sync"

	"github.com/humanbelnik/storypoker/internal/model"
)

var (
	ErrNoActiveStory  = errors.New("no active story")
	ErrStoryCompleted = errors.New("story is already revealed")
	ErrNoVotes        = errors.New("nobody voted yet")
	ErrUnknownStory   = errors.New("unknown story")
)

// Gateway is the part of the mutation API the store calls on the viewer's behalf.
type Gateway interface {
	Vote(ctx context.Context, storyID string, value *int) error
	CompleteStory(ctx context.Context, storyID string) error
	UncompleteStory(ctx context.Context, storyID string) error
	NextStory(ctx context.Context) error
}

// Store owns the view of one viewer. Events, optimistic edits and snapshots are
// serialized through it and every change is pushed to the subscribers.
type Store struct {
	// notifyMu orders whole transitions, so subscribers see views in the order they
	// were produced. Subscribers must not change the store synchronously.
	notifyMu sync.Mutex

	mu      sync.Mutex
	view    View
	gateway Gateway

	// reloading is set between BeginReload and Hydrate; events applied meanwhile
	// are kept in pending and replayed on top of the fetched snapshot.
	reloading bool
	pending   []Event

	subsMu sync.Mutex
	subs   map[int]func(View)
	nextID int
}

func NewStore(gateway Gateway) *Store {
	return &Store{
		view:    View{ActiveStoryIndex: -1},
		gateway: gateway,
		subs:    make(map[int]func(View)),
	}
}

func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.clone()
}

// Subscribe registers fn for every future change and returns the function removing it.
func (s *Store) Subscribe(fn func(View)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// BeginReload is called right before a snapshot is requested. Events that arrive
// until the matching Hydrate are replayed on top of that snapshot, since it may
// have been read before them.
func (s *Store) BeginReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloading = true
	s.pending = nil
}

// AbortReload forgets a reload whose snapshot never came.
func (s *Store) AbortReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloading = false
	s.pending = nil
}

// Hydrate replaces local state wholesale with a snapshot, dropping any
// optimistic edit it may still carry.
func (s *Store) Hydrate(snap model.Snapshot) {
	s.update(func(v View) View {
		next := Hydrate(snap)
		next.Live = v.Live
		for _, e := range s.pending {
			next = Reduce(next, e)
		}
		s.reloading = false
		s.pending = nil
		return next
	})
}

func (s *Store) Apply(e Event) {
	s.update(func(v View) View {
		if s.reloading {
			s.pending = append(s.pending, e)
		}
		return Reduce(v, e)
	})
}

func (s *Store) SetLive(live bool) {
	s.update(func(v View) View {
		v.Live = live
		return v
	})
}

func (s *Store) ChangeActiveStory(storyID string) error {
	var err error
	s.update(func(v View) View {
		i := v.storyIndex(storyID)
		if i < 0 {
			err = ErrUnknownStory
			return v
		}
		v.ActiveStoryIndex = i
		v.SelectedCard = v.ownCard(i)
		return v
	})
	return err
}

// SelectCard shows the card at once and then records the vote. When the gateway
// refuses, the previous vote and card come back.
func (s *Store) SelectCard(ctx context.Context, card Card) error {
	var (
		storyID  string
		prevVote model.Vote
		hadVote  bool
		prevCard Card
		err      error
	)
	s.update(func(v View) View {
		story, ok := v.ActiveStory()
		if !ok {
			err = ErrNoActiveStory
			return v
		}
		if story.IsCompleted {
			err = ErrStoryCompleted
			return v
		}

		next := v.clone()
		storyID = story.ID
		prevVote, hadVote = story.VoteOf(v.ViewerID)
		prevCard = v.SelectedCard

		upsertVote(&next.Stories[next.ActiveStoryIndex], model.Vote{
			MemberID: v.ViewerID,
			StoryID:  story.ID,
			Value:    card.VoteValue(),
		})
		next.SelectedCard = card
		return next
	})
	if err != nil {
		return err
	}

	if err := s.gateway.Vote(ctx, storyID, card.VoteValue()); err != nil {
		s.update(func(v View) View {
			i := v.storyIndex(storyID)
			if i < 0 {
				return v
			}
			next := v.clone()
			if hadVote {
				upsertVote(&next.Stories[i], prevVote)
			} else {
				removeVote(&next.Stories[i], v.ViewerID)
			}
			if i == next.ActiveStoryIndex && next.SelectedCard == card {
				next.SelectedCard = prevCard
			}
			return next
		})
		return err
	}
	return nil
}

// CompleteActiveStory asks for a reveal. The story flips only when the reveal event arrives.
func (s *Store) CompleteActiveStory(ctx context.Context) error {
	v := s.View()
	story, ok := v.ActiveStory()
	if !ok {
		return ErrNoActiveStory
	}
	if story.IsCompleted {
		return ErrStoryCompleted
	}
	if len(story.Votes) == 0 {
		return ErrNoVotes
	}
	return s.gateway.CompleteStory(ctx, story.ID)
}

func (s *Store) ReopenActiveStory(ctx context.Context) error {
	story, ok := s.View().ActiveStory()
	if !ok {
		return ErrNoActiveStory
	}
	return s.gateway.UncompleteStory(ctx, story.ID)
}

func (s *Store) NextStory(ctx context.Context) error {
	return s.gateway.NextStory(ctx)
}

// update runs fn under mu and then notifies subscribers before the next transition starts.
func (s *Store) update(fn func(View) View) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.view = fn(s.view)
	snapshot := s.view.clone()
	s.mu.Unlock()

	s.subsMu.Lock()
	subs := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
