package model

import "time"

type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

type Member struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	RoomID           string    `json:"roomId"`
	AccessCredential string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// MemberSummary is the public part of a member, the only one other viewers get to see.
type MemberSummary struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (m Member) Summary() MemberSummary {
	return MemberSummary{ID: m.ID, Name: m.Name}
}

// Viewer is whoever presented an access credential: a member inside one room.
type Viewer struct {
	MemberID string
	Name     string
	RoomID   string
}
