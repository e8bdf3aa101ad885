package infra_postgres_room

import (
	"context"
	"database/sql"
	"errors"
	"time"

	infra_pg_init "github.com/humanbelnik/storypoker/internal/infra/postgres/init"
	"github.com/humanbelnik/storypoker/internal/model"
	usecase_room "github.com/humanbelnik/storypoker/internal/usecase/room"
	"github.com/jmoiron/sqlx"
)

type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

// Queries are written with '?' and rebound for the connected driver.
func (d *Driver) q(query string) string {
	return d.db.Rebind(query)
}

func (d *Driver) CreateRoom(ctx context.Context, room model.Room, creator model.Member, stories []model.Story) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, d.q(`
		INSERT INTO rooms (id, name, created_at, is_active)
		VALUES (?, ?, ?, ?)
	`), room.ID, room.Name, room.CreatedAt, room.IsActive)
	if err != nil {
		return err
	}

	if err := d.insertMember(ctx, tx, creator); err != nil {
		return err
	}

	for i, s := range stories {
		if err := d.insertStory(ctx, tx, s, int64(i+1)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *Driver) RoomByID(ctx context.Context, roomID string) (model.Room, error) {
	var room roomDTO
	err := d.db.GetContext(ctx, &room, d.q(`
		SELECT id, name, created_at, is_active
		FROM rooms
		WHERE id = ?
	`), roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Room{}, usecase_room.ErrResourceNotFound
		}
		return model.Room{}, err
	}
	return room.toModel(), nil
}

// JoinRoom returns the presented member when its credential is still the one on
// record, and inserts the candidate otherwise.
func (d *Driver) JoinRoom(ctx context.Context, roomID string, presented *model.Viewer, presentedCredential string, candidate model.Member) (model.Member, bool, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Member{}, false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := d.roomExists(ctx, tx, roomID); err != nil {
		return model.Member{}, false, err
	}

	if presented != nil {
		var existing memberDTO
		err := tx.GetContext(ctx, &existing, d.q(`
			SELECT id, name, room_id, access_credential, created_at
			FROM members
			WHERE id = ? AND room_id = ? AND access_credential = ?
		`), presented.MemberID, roomID, presentedCredential)
		switch {
		case err == nil:
			return existing.toModel(), false, tx.Commit()
		case !errors.Is(err, sql.ErrNoRows):
			return model.Member{}, false, err
		}
	}

	if err := d.insertMember(ctx, tx, candidate); err != nil {
		return model.Member{}, false, err
	}
	if err := d.touchRoom(ctx, tx, roomID); err != nil {
		return model.Member{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return model.Member{}, false, err
	}
	return candidate, true, nil
}

func (d *Driver) AddStory(ctx context.Context, story model.Story) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := d.roomExists(ctx, tx, story.RoomID); err != nil {
		return err
	}

	var position int64
	err = tx.GetContext(ctx, &position, d.q(`
		SELECT COALESCE(MAX(position), 0) + 1
		FROM stories
		WHERE room_id = ?
	`), story.RoomID)
	if err != nil {
		return err
	}

	if err := d.insertStory(ctx, tx, story, position); err != nil {
		return err
	}
	if err := d.touchRoom(ctx, tx, story.RoomID); err != nil {
		return err
	}

	return tx.Commit()
}

// UpsertVote keeps one row per (member, story); the last committed value wins.
func (d *Driver) UpsertVote(ctx context.Context, viewer model.Viewer, vote model.Vote) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	story, err := d.storyForViewer(ctx, tx, viewer, vote.StoryID)
	if err != nil {
		return err
	}
	if story.IsCompleted {
		return usecase_room.ErrConflict
	}

	_, err = tx.ExecContext(ctx, d.q(`
		INSERT INTO votes (member_id, story_id, value, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (member_id, story_id)
		DO UPDATE SET value = excluded.value, created_at = excluded.created_at
	`), viewer.MemberID, vote.StoryID, nullValue(vote.Value), vote.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (d *Driver) CompleteStory(ctx context.Context, viewer model.Viewer, storyID string) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := d.storyForViewer(ctx, tx, viewer, storyID); err != nil {
		return err
	}

	var votes int
	if err := tx.GetContext(ctx, &votes, d.q(`SELECT COUNT(*) FROM votes WHERE story_id = ?`), storyID); err != nil {
		return err
	}
	if votes == 0 {
		return usecase_room.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, d.q(`UPDATE stories SET is_completed = TRUE WHERE id = ?`), storyID); err != nil {
		return err
	}

	return tx.Commit()
}

// UncompleteStory empties the vote set and re-opens the story in one transaction.
func (d *Driver) UncompleteStory(ctx context.Context, viewer model.Viewer, storyID string) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := d.storyForViewer(ctx, tx, viewer, storyID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, d.q(`DELETE FROM votes WHERE story_id = ?`), storyID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, d.q(`UPDATE stories SET is_completed = FALSE WHERE id = ?`), storyID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *Driver) RoomState(ctx context.Context, roomID string) (model.Room, []model.MemberSummary, []model.StoryWithVotes, error) {
	room, err := d.RoomByID(ctx, roomID)
	if err != nil {
		return model.Room{}, nil, nil, err
	}

	var members []memberDTO
	err = d.db.SelectContext(ctx, &members, d.q(`
		SELECT id, name, room_id, access_credential, created_at
		FROM members
		WHERE room_id = ?
		ORDER BY created_at, id
	`), roomID)
	if err != nil {
		return model.Room{}, nil, nil, err
	}

	var stories []storyDTO
	err = d.db.SelectContext(ctx, &stories, d.q(`
		SELECT id, title, description, room_id, is_completed, position, created_at
		FROM stories
		WHERE room_id = ?
		ORDER BY position, created_at
	`), roomID)
	if err != nil {
		return model.Room{}, nil, nil, err
	}

	var votes []voteDTO
	err = d.db.SelectContext(ctx, &votes, d.q(`
		SELECT v.member_id, v.story_id, v.value, v.created_at
		FROM votes v
		JOIN stories s ON s.id = v.story_id
		WHERE s.room_id = ?
		ORDER BY v.created_at, v.member_id
	`), roomID)
	if err != nil {
		return model.Room{}, nil, nil, err
	}

	summaries := make([]model.MemberSummary, 0, len(members))
	for _, m := range members {
		summaries = append(summaries, m.toModel().Summary())
	}

	byStory := make(map[string][]model.Vote, len(stories))
	for _, v := range votes {
		byStory[v.StoryID] = append(byStory[v.StoryID], v.toModel())
	}

	result := make([]model.StoryWithVotes, 0, len(stories))
	for _, s := range stories {
		sv := model.StoryWithVotes{Story: s.toModel(), Votes: byStory[s.ID]}
		if sv.Votes == nil {
			sv.Votes = []model.Vote{}
		}
		result = append(result, sv)
	}

	return room, summaries, result, nil
}

func (d *Driver) FirstIncompleteStory(ctx context.Context, roomID string) (model.Story, error) {
	if _, err := d.RoomByID(ctx, roomID); err != nil {
		return model.Story{}, err
	}

	var story storyDTO
	err := d.db.GetContext(ctx, &story, d.q(`
		SELECT id, title, description, room_id, is_completed, position, created_at
		FROM stories
		WHERE room_id = ? AND is_completed = FALSE
		ORDER BY position, created_at
		LIMIT 1
	`), roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Story{}, usecase_room.ErrResourceNotFound
		}
		return model.Story{}, err
	}
	return story.toModel(), nil
}

// RevealedVotes returns the unredacted vote set of a revealed story of the given room.
// While the story is still open the votes stay hidden and ErrConflict is returned.
func (d *Driver) RevealedVotes(ctx context.Context, roomID, storyID string) ([]model.Vote, error) {
	var story struct {
		RoomID      string `db:"room_id"`
		IsCompleted bool   `db:"is_completed"`
	}
	err := d.db.GetContext(ctx, &story, d.q(`SELECT room_id, is_completed FROM stories WHERE id = ?`), storyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, usecase_room.ErrResourceNotFound
		}
		return nil, err
	}
	if story.RoomID != roomID {
		return nil, usecase_room.ErrUnauthorized
	}
	if !story.IsCompleted {
		return nil, usecase_room.ErrConflict
	}

	var votes []voteDTO
	err = d.db.SelectContext(ctx, &votes, d.q(`
		SELECT member_id, story_id, value, created_at
		FROM votes
		WHERE story_id = ?
		ORDER BY created_at, member_id
	`), storyID)
	if err != nil {
		return nil, err
	}

	result := make([]model.Vote, 0, len(votes))
	for _, v := range votes {
		result = append(result, v.toModel())
	}
	return result, nil
}

// DeactivateIdleRooms flags rooms with no member, story or vote created since idleSince.
func (d *Driver) DeactivateIdleRooms(ctx context.Context, idleSince time.Time) (int64, error) {
	result, err := d.db.ExecContext(ctx, d.q(`
		UPDATE rooms
		SET is_active = FALSE
		WHERE is_active = TRUE
		  AND created_at < ?
		  AND NOT EXISTS (SELECT 1 FROM members m WHERE m.room_id = rooms.id AND m.created_at >= ?)
		  AND NOT EXISTS (SELECT 1 FROM stories s WHERE s.room_id = rooms.id AND s.created_at >= ?)
		  AND NOT EXISTS (
			SELECT 1 FROM votes v
			JOIN stories s ON s.id = v.story_id
			WHERE s.room_id = rooms.id AND v.created_at >= ?
		  )
	`), idleSince, idleSince, idleSince, idleSince)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (d *Driver) insertMember(ctx context.Context, tx *sqlx.Tx, m model.Member) error {
	_, err := tx.ExecContext(ctx, d.q(`
		INSERT INTO members (id, name, room_id, access_credential, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), m.ID, m.Name, m.RoomID, m.AccessCredential, m.CreatedAt)
	return err
}

func (d *Driver) insertStory(ctx context.Context, tx *sqlx.Tx, s model.Story, position int64) error {
	_, err := tx.ExecContext(ctx, d.q(`
		INSERT INTO stories (id, title, description, room_id, is_completed, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), s.ID, s.Title, s.Description, s.RoomID, s.IsCompleted, position, s.CreatedAt)
	return err
}

func (d *Driver) roomExists(ctx context.Context, tx *sqlx.Tx, roomID string) error {
	var id string
	err := tx.GetContext(ctx, &id, d.q(`SELECT id FROM rooms WHERE id = ?`), roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return usecase_room.ErrResourceNotFound
		}
		return err
	}
	return nil
}

// touchRoom brings a swept room back once somebody uses it again.
func (d *Driver) touchRoom(ctx context.Context, tx *sqlx.Tx, roomID string) error {
	_, err := tx.ExecContext(ctx, d.q(`UPDATE rooms SET is_active = TRUE WHERE id = ? AND is_active = FALSE`), roomID)
	return err
}

// forUpdate locks the selected rows until the transaction ends. SQLite runs on a single
// connection, so its transactions are already serialized.
func (d *Driver) forUpdate() string {
	if d.db.DriverName() == infra_pg_init.DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// storyForViewer loads and locks a story and checks that the viewer is a member of its room.
// Every read-then-write on a story goes through it, so votes, reveals and re-opens of one
// story are applied one after another.
func (d *Driver) storyForViewer(ctx context.Context, tx *sqlx.Tx, viewer model.Viewer, storyID string) (storyDTO, error) {
	var story storyDTO
	err := tx.GetContext(ctx, &story, d.q(`
		SELECT id, title, description, room_id, is_completed, position, created_at
		FROM stories
		WHERE id = ?`+d.forUpdate()), storyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storyDTO{}, usecase_room.ErrResourceNotFound
		}
		return storyDTO{}, err
	}
	if story.RoomID != viewer.RoomID {
		return storyDTO{}, usecase_room.ErrUnauthorized
	}

	var memberID string
	err = tx.GetContext(ctx, &memberID, d.q(`SELECT id FROM members WHERE id = ? AND room_id = ?`), viewer.MemberID, story.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storyDTO{}, usecase_room.ErrUnauthorized
		}
		return storyDTO{}, err
	}
	return story, nil
}
