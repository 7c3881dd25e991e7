package models

import "time"

type Question struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tags      string    `gorm:"size:255" json:"tags"` // comma separated
	UserID    int       `gorm:"index;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Answers   []Answer  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
	Tags    string `json:"tags" binding:"max=255"`
}

// UpdateQuestionRequest leaves fields untouched when they are nil.
type UpdateQuestionRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=255"`
	Content *string `json:"content"`
	Tags    *string `json:"tags" binding:"omitempty,max=255"`
}

// QuestionFilter drives question listing.
type QuestionFilter struct {
	Tags        string
	Search      string
	OldestFirst bool
	Offset      int
	Limit       int
}
