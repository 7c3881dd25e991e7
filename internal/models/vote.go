package models

import (
	"fmt"
	"time"
)

// TargetKind discriminates the entity a vote points at.
type TargetKind string

const (
	KindQuestion TargetKind = "question"
	KindAnswer   TargetKind = "answer"
)

// Valid reports whether k is one of the votable kinds.
func (k TargetKind) Valid() bool {
	switch k {
	case KindQuestion, KindAnswer:
		return true
	default:
		return false
	}
}

// Target identifies a votable entity.
type Target struct {
	Kind TargetKind
	ID   int
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// Vote is unique per (UserID, TargetKind, TargetID); casting again overwrites Value.
type Vote struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	UserID     int        `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:1" json:"user_id"`
	TargetKind TargetKind `gorm:"size:16;not null;uniqueIndex:idx_votes_voter_target,priority:2;index:idx_votes_target,priority:1" json:"target_kind"`
	TargetID   int        `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:3;index:idx_votes_target,priority:2" json:"target_id"`
	Value      int        `gorm:"not null" json:"vote"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (v Vote) Target() Target {
	return Target{Kind: v.TargetKind, ID: v.TargetID}
}

type VoteRequest struct {
	Vote int `json:"vote"`
}
