package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/store"
)

// targetModels resolves a vote target kind to the table holding it.
var targetModels = map[models.TargetKind]func() any{
	models.KindQuestion: func() any { return &models.Question{} },
	models.KindAnswer:   func() any { return &models.Answer{} },
}

type tx struct {
	db *gorm.DB
	s  *Store
}

func (t *tx) LockTarget(_ context.Context, target models.Target) error {
	newModel, ok := targetModels[target.Kind]
	if !ok {
		return fmt.Errorf("unknown target kind %q", target.Kind)
	}
	err := t.db.Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id").
		First(newModel(), target.ID).Error
	if err != nil {
		return t.s.translate("store_lock_target_failed", err, "target", target.String())
	}
	return nil
}

func (t *tx) UpsertVote(_ context.Context, vote *models.Vote) error {
	now := time.Now().UTC()
	row := models.Vote{
		UserID:     vote.UserID,
		TargetKind: vote.TargetKind,
		TargetID:   vote.TargetID,
		Value:      vote.Value,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_kind"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return t.s.translate("store_upsert_vote_failed", err,
			"user_id", vote.UserID,
			"target", vote.Target().String(),
		)
	}

	var stored models.Vote
	err = t.db.
		Where("user_id = ? AND target_kind = ? AND target_id = ?", vote.UserID, vote.TargetKind, vote.TargetID).
		First(&stored).Error
	if err != nil {
		return t.s.translate("store_reload_vote_failed", err,
			"user_id", vote.UserID,
			"target", vote.Target().String(),
		)
	}
	*vote = stored
	return nil
}

func (t *tx) Score(_ context.Context, target models.Target) (int, error) {
	var total int64
	err := t.db.Model(&models.Vote{}).
		Select("COALESCE(SUM(value), 0)").
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Scan(&total).Error
	if err != nil {
		return 0, t.s.translate("store_score_failed", err, "target", target.String())
	}
	return int(total), nil
}

func (t *tx) Answer(_ context.Context, id int) (models.Answer, error) {
	var answer models.Answer
	if err := t.db.First(&answer, id).Error; err != nil {
		return models.Answer{}, t.s.translate("store_tx_get_answer_failed", err, "answer_id", id)
	}
	return answer, nil
}

func (t *tx) LockQuestion(_ context.Context, id int) (models.Question, error) {
	var question models.Question
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&question, id).Error; err != nil {
		return models.Question{}, t.s.translate("store_lock_question_failed", err, "question_id", id)
	}
	return question, nil
}

func (t *tx) ClearAccepted(_ context.Context, questionID int) error {
	err := t.db.Model(&models.Answer{}).
		Where("question_id = ? AND is_accepted = ?", questionID, true).
		Updates(map[string]any{"is_accepted": false, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return t.s.translate("store_clear_accepted_failed", err, "question_id", questionID)
	}
	return nil
}

func (t *tx) MarkAccepted(_ context.Context, answerID int) error {
	result := t.db.Model(&models.Answer{}).
		Where("id = ?", answerID).
		Updates(map[string]any{"is_accepted": true, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return t.s.translate("store_mark_accepted_failed", result.Error, "answer_id", answerID)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) User(_ context.Context, id int) (models.User, error) {
	var user models.User
	if err := t.db.First(&user, id).Error; err != nil {
		return models.User{}, t.s.translate("store_tx_get_user_failed", err, "user_id", id)
	}
	return user, nil
}

var _ store.Tx = (*tx)(nil)
