package infra_postgres_room

import (
	"database/sql"
	"time"

	"github.com/humanbelnik/storypoker/internal/model"
)

type roomDTO struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	IsActive  bool      `db:"is_active"`
}

func (r roomDTO) toModel() model.Room {
	return model.Room{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC(),
		IsActive:  r.IsActive,
	}
}

type memberDTO struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	RoomID           string    `db:"room_id"`
	AccessCredential string    `db:"access_credential"`
	CreatedAt        time.Time `db:"created_at"`
}

func (m memberDTO) toModel() model.Member {
	return model.Member{
		ID:               m.ID,
		Name:             m.Name,
		RoomID:           m.RoomID,
		AccessCredential: m.AccessCredential,
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

type storyDTO struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	RoomID      string    `db:"room_id"`
	IsCompleted bool      `db:"is_completed"`
	Position    int64     `db:"position"`
	CreatedAt   time.Time `db:"created_at"`
}

func (s storyDTO) toModel() model.Story {
	return model.Story{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		RoomID:      s.RoomID,
		IsCompleted: s.IsCompleted,
		CreatedAt:   s.CreatedAt.UTC(),
	}
}

type voteDTO struct {
	MemberID  string        `db:"member_id"`
	StoryID   string        `db:"story_id"`
	Value     sql.NullInt64 `db:"value"`
	CreatedAt time.Time     `db:"created_at"`
}

func (v voteDTO) toModel() model.Vote {
	vote := model.Vote{
		MemberID:  v.MemberID,
		StoryID:   v.StoryID,
		CreatedAt: v.CreatedAt.UTC(),
	}
	if v.Value.Valid {
		vote.Value = model.IntPtr(int(v.Value.Int64))
	}
	return vote
}

func nullValue(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
