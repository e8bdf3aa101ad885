package usecase_room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/storypoker/internal/model"
)

var (
	ErrResourceNotFound = errors.New("no such resource")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrRelayUnavailable = errors.New("relay unavailable")
	ErrInternal         = errors.New("internal error")
)

const (
	MinVoteValue = 0
	MaxVoteValue = 100

	defaultPublishTimeout = 2 * time.Second
)

// RoomRepository is the persistent store. Every mutating method is one transaction;
// domain failures come back as the sentinel errors of this package.
//
//go:generate mockery --name=RoomRepository --output=./mocks/room/repository --filename=repository.go
type RoomRepository interface {
	CreateRoom(ctx context.Context, room model.Room, creator model.Member, stories []model.Story) error
	JoinRoom(ctx context.Context, roomID string, presented *model.Viewer, presentedCredential string, candidate model.Member) (model.Member, bool, error)
	AddStory(ctx context.Context, story model.Story) error
	UpsertVote(ctx context.Context, viewer model.Viewer, vote model.Vote) error
	CompleteStory(ctx context.Context, viewer model.Viewer, storyID string) error
	UncompleteStory(ctx context.Context, viewer model.Viewer, storyID string) error
	RoomState(ctx context.Context, roomID string) (model.Room, []model.MemberSummary, []model.StoryWithVotes, error)
	FirstIncompleteStory(ctx context.Context, roomID string) (model.Story, error)
	DeactivateIdleRooms(ctx context.Context, idleSince time.Time) (int64, error)
}

// Publisher is the relay. Delivery is at most once and it is never retried here.
//
//go:generate mockery --name=Publisher --output=./mocks/room/publisher --filename=publisher.go
type Publisher interface {
	Publish(ctx context.Context, credential string, event model.EventName, payload any) error
}

type CredentialService interface {
	Mint(memberID, name, roomID string) (string, error)
	Parse(credential string) (model.Viewer, error)
}

type Usecase struct {
	RoomRepository RoomRepository
	Publisher      Publisher
	Credentials    CredentialService

	publishTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(u *Usecase) {
		if d > 0 {
			u.publishTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		u.now = now
	}
}

func New(
	RoomRepository RoomRepository,
	Publisher Publisher,
	Credentials CredentialService,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		RoomRepository: RoomRepository,
		Publisher:      Publisher,
		Credentials:    Credentials,
		publishTimeout: defaultPublishTimeout,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type CreateRoomResult struct {
	Room       model.Room
	Member     model.Member
	Credential string
	Stories    []model.Story
	Stale      bool
}

type JoinResult struct {
	Member     model.Member
	Credential string
	Created    bool
	Stale      bool
}

func (u *Usecase) CreateRoom(ctx context.Context, roomName, creatorName string, drafts []model.StoryDraft) (CreateRoomResult, error) {
	roomName = strings.TrimSpace(roomName)
	creatorName = strings.TrimSpace(creatorName)
	if roomName == "" || creatorName == "" {
		return CreateRoomResult{}, fmt.Errorf("%w: room name and member name are required", ErrInvalidInput)
	}
	if len(drafts) == 0 {
		return CreateRoomResult{}, fmt.Errorf("%w: at least one story is required", ErrInvalidInput)
	}

	now := u.timestamp()
	room := model.Room{
		ID:        uuid.NewString(),
		Name:      roomName,
		CreatedAt: now,
		IsActive:  true,
	}

	stories := make([]model.Story, 0, len(drafts))
	for _, d := range drafts {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			return CreateRoomResult{}, fmt.Errorf("%w: story title is required", ErrInvalidInput)
		}
		stories = append(stories, model.Story{
			ID:          uuid.NewString(),
			Title:       title,
			Description: d.Description,
			RoomID:      room.ID,
			CreatedAt:   now,
		})
	}

	member, err := u.newMember(room.ID, creatorName, now)
	if err != nil {
		return CreateRoomResult{}, err
	}

	if err := u.RoomRepository.CreateRoom(ctx, room, member, stories); err != nil {
		return CreateRoomResult{}, translate(err)
	}

	stale := u.notify(ctx, member.AccessCredential, model.EventMembersJoined, model.MembersJoinedPayload{
		Member: member.Summary(),
		RoomID: room.ID,
	}, slog.String("room_id", room.ID))

	return CreateRoomResult{
		Room:       room,
		Member:     member,
		Credential: member.AccessCredential,
		Stories:    stories,
		Stale:      stale,
	}, nil
}

// JoinRoom is idempotent for a caller presenting a credential of this room: the
// existing member is returned and nothing is published.
func (u *Usecase) JoinRoom(ctx context.Context, roomCode, name, presentedCredential string) (JoinResult, error) {
	roomCode = strings.TrimSpace(roomCode)
	name = strings.TrimSpace(name)
	if roomCode == "" {
		return JoinResult{}, fmt.Errorf("%w: room code is required", ErrInvalidInput)
	}
	if name == "" {
		return JoinResult{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	var presented *model.Viewer
	if presentedCredential != "" {
		// A broken or foreign credential is not an error here, it just does not count.
		if v, err := u.Credentials.Parse(presentedCredential); err == nil && v.RoomID == roomCode {
			presented = &v
		}
	}

	candidate, err := u.newMember(roomCode, name, u.timestamp())
	if err != nil {
		return JoinResult{}, err
	}

	member, created, err := u.RoomRepository.JoinRoom(ctx, roomCode, presented, presentedCredential, candidate)
	if err != nil {
		return JoinResult{}, translate(err)
	}

	result := JoinResult{
		Member:     member,
		Credential: member.AccessCredential,
		Created:    created,
	}
	if created {
		result.Stale = u.notify(ctx, member.AccessCredential, model.EventMembersJoined, model.MembersJoinedPayload{
			Member: member.Summary(),
			RoomID: member.RoomID,
		}, slog.String("room_id", member.RoomID))
	}

	return result, nil
}

func (u *Usecase) AddStory(ctx context.Context, credential, roomID, title, description string) (model.Story, bool, error) {
	viewer, err := u.authorize(credential, roomID)
	if err != nil {
		return model.Story{}, false, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return model.Story{}, false, fmt.Errorf("%w: story title is required", ErrInvalidInput)
	}

	story := model.Story{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		RoomID:      viewer.RoomID,
		CreatedAt:   u.timestamp(),
	}
	if err := u.RoomRepository.AddStory(ctx, story); err != nil {
		return model.Story{}, false, translate(err)
	}

	stale := u.notify(ctx, credential, model.EventAddStory, model.AddStoryPayload{Story: story},
		slog.String("room_id", story.RoomID), slog.String("story_id", story.ID))

	return story, stale, nil
}

// VoteForStory upserts the caller's vote. A nil value is an abstention.
func (u *Usecase) VoteForStory(ctx context.Context, credential, storyID string, value *int) (bool, error) {
	viewer, err := u.authorize(credential, "")
	if err != nil {
		return false, err
	}
	if storyID == "" {
		return false, fmt.Errorf("%w: story id is required", ErrInvalidInput)
	}
	if value != nil && (*value < MinVoteValue || *value > MaxVoteValue) {
		return false, fmt.Errorf("%w: vote must be within %d..%d", ErrInvalidInput, MinVoteValue, MaxVoteValue)
	}

	vote := model.Vote{
		MemberID:  viewer.MemberID,
		StoryID:   storyID,
		Value:     value,
		CreatedAt: u.timestamp(),
	}
	if err := u.RoomRepository.UpsertVote(ctx, viewer, vote); err != nil {
		return false, translate(err)
	}

	return u.notify(ctx, credential, model.EventUserVoted, model.UserVotedPayload{
		MemberID: viewer.MemberID,
		StoryID:  storyID,
		Value:    value,
	}, slog.String("room_id", viewer.RoomID), slog.String("story_id", storyID)), nil
}

// CompleteStory reveals a story. A story nobody voted on cannot be revealed.
func (u *Usecase) CompleteStory(ctx context.Context, credential, storyID string) (bool, error) {
	viewer, err := u.authorize(credential, "")
	if err != nil {
		return false, err
	}

	if err := u.RoomRepository.CompleteStory(ctx, viewer, storyID); err != nil {
		return false, translate(err)
	}

	return u.notify(ctx, credential, model.EventCompleteStory, model.StoryRefPayload{StoryID: storyID},
		slog.String("room_id", viewer.RoomID), slog.String("story_id", storyID)), nil
}

// UncompleteStory re-opens a story and throws its votes away, whatever state it was in.
func (u *Usecase) UncompleteStory(ctx context.Context, credential, storyID string) (bool, error) {
	viewer, err := u.authorize(credential, "")
	if err != nil {
		return false, err
	}

	if err := u.RoomRepository.UncompleteStory(ctx, viewer, storyID); err != nil {
		return false, translate(err)
	}

	return u.notify(ctx, credential, model.EventUncompleteStory, model.StoryRefPayload{StoryID: storyID},
		slog.String("room_id", viewer.RoomID), slog.String("story_id", storyID)), nil
}

// NextStory picks the story everybody should move to and publishes its id, so clients
// never have to work the target out from their own, possibly stale, state.
func (u *Usecase) NextStory(ctx context.Context, credential, roomID string) (model.Story, bool, error) {
	viewer, err := u.authorize(credential, roomID)
	if err != nil {
		return model.Story{}, false, err
	}

	story, err := u.RoomRepository.FirstIncompleteStory(ctx, viewer.RoomID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.Story{}, false, fmt.Errorf("%w: every story is completed", ErrConflict)
		}
		return model.Story{}, false, translate(err)
	}

	stale := u.notify(ctx, credential, model.EventNextStory, model.StoryRefPayload{StoryID: story.ID},
		slog.String("room_id", viewer.RoomID), slog.String("story_id", story.ID))

	return story, stale, nil
}

// Snapshot returns the room redacted for the caller.
func (u *Usecase) Snapshot(ctx context.Context, credential, roomID string) (model.Snapshot, error) {
	viewer, err := u.authorize(credential, roomID)
	if err != nil {
		return model.Snapshot{}, err
	}

	room, members, stories, err := u.RoomRepository.RoomState(ctx, viewer.RoomID)
	if err != nil {
		return model.Snapshot{}, translate(err)
	}

	return model.RedactSnapshot(model.Snapshot{
		Room:          room,
		ViewerID:      viewer.MemberID,
		Members:       members,
		Stories:       stories,
		ActiveStoryID: model.FirstIncomplete(stories),
	}), nil
}

func (u *Usecase) DeactivateIdleRooms(ctx context.Context, idle time.Duration) (int64, error) {
	n, err := u.RoomRepository.DeactivateIdleRooms(ctx, u.timestamp().Add(-idle))
	if err != nil {
		return 0, errors.Join(ErrInternal, err)
	}
	return n, nil
}

// authorize resolves the credential. An empty roomID skips the room check; the
// repository then compares the viewer's room against the story's.
func (u *Usecase) authorize(credential, roomID string) (model.Viewer, error) {
	if credential == "" {
		return model.Viewer{}, fmt.Errorf("%w: credential required", ErrUnauthorized)
	}
	viewer, err := u.Credentials.Parse(credential)
	if err != nil {
		return model.Viewer{}, errors.Join(ErrUnauthorized, err)
	}
	if roomID != "" && viewer.RoomID != roomID {
		return model.Viewer{}, fmt.Errorf("%w: credential belongs to another room", ErrUnauthorized)
	}
	return viewer, nil
}

func (u *Usecase) newMember(roomID, name string, now time.Time) (model.Member, error) {
	memberID := uuid.NewString()
	credential, err := u.Credentials.Mint(memberID, name, roomID)
	if err != nil {
		return model.Member{}, errors.Join(ErrInternal, err)
	}
	return model.Member{
		ID:               memberID,
		Name:             name,
		RoomID:           roomID,
		AccessCredential: credential,
		CreatedAt:        now,
	}, nil
}

// notify makes the single publish attempt that follows a commit. It reports whether
// other viewers may now be looking at a stale room.
func (u *Usecase) notify(ctx context.Context, credential string, event model.EventName, payload any, attrs ...any) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.publishTimeout)
	defer cancel()

	if err := u.Publisher.Publish(ctx, credential, event, payload); err != nil {
		u.logger.Warn("relay publish failed, views may be stale",
			append([]any{slog.String("event", string(event)), slog.String("error", err.Error())}, attrs...)...)
		return true
	}
	return false
}

func (u *Usecase) timestamp() time.Time {
	return u.now().UTC()
}

func translate(err error) error {
	for _, known := range []error{ErrResourceNotFound, ErrUnauthorized, ErrConflict, ErrInvalidInput} {
		if errors.Is(err, known) {
			return err
		}
	}
	return errors.Join(ErrInternal, err)
}
