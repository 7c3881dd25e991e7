// Package gormstore implements store.Store on postgres through gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/store"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) Transact(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&tx{db: db, s: s})
	})
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		user.Profile = nil
		if err := db.Create(user).Error; err != nil {
			return err
		}
		return db.Create(&models.UserProfile{UserID: user.ID}).Error
	})
	if err != nil {
		return s.translate("store_create_user_failed", err, "username", user.Username)
	}
	return nil
}

func (s *Store) User(ctx context.Context, id int) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, s.translate("store_get_user_failed", err, "user_id", id)
	}
	return user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).
		First(&user).Error
	if err != nil {
		return models.User{}, s.translate("store_get_user_by_email_failed", err)
	}
	return user, nil
}

func (s *Store) Profile(ctx context.Context, userID int) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return models.UserProfile{}, s.translate("store_get_profile_failed", err, "user_id", userID)
	}
	return profile, nil
}

func (s *Store) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(question).Error; err != nil {
		return s.translate("store_create_question_failed", err, "user_id", question.UserID)
	}
	return nil
}

func (s *Store) Question(ctx context.Context, id int) (models.Question, error) {
	var question models.Question
	if err := s.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return models.Question{}, s.translate("store_get_question_failed", err, "question_id", id)
	}
	return question, nil
}

func (s *Store) ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Tags != "" {
			db = db.Where("tags = ?", filter.Tags)
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			like := "%" + escapeLike(search) + "%"
			db = db.Where("title ILIKE ? OR tags ILIKE ?", like, like)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Question{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, s.translate("store_count_questions_failed", err)
	}

	order := "created_at DESC, id DESC"
	if filter.OldestFirst {
		order = "created_at ASC, id ASC"
	}
	query := s.db.WithContext(ctx).Scopes(scope).Order(order).Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var items []models.Question
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, s.translate("store_list_questions_failed", err)
	}
	return items, total, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question *models.Question) error {
	result := s.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]any{
			"title":      question.Title,
			"content":    question.Content,
			"tags":       question.Tags,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return s.translate("store_update_question_failed", result.Error, "question_id", question.ID)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	if err := s.db.WithContext(ctx).First(question, question.ID).Error; err != nil {
		return s.translate("store_reload_question_failed", err, "question_id", question.ID)
	}
	return nil
}

// DeleteQuestion removes the question, its answers and every vote on either.
func (s *Store) DeleteQuestion(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var question models.Question
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&question, id).Error; err != nil {
			return err
		}
		var answerIDs []int
		if err := db.Model(&models.Answer{}).Where("question_id = ?", id).Pluck("id", &answerIDs).Error; err != nil {
			return err
		}
		votes := db.Where("target_kind = ? AND target_id = ?", models.KindQuestion, id)
		if len(answerIDs) > 0 {
			votes = votes.Or("target_kind = ? AND target_id IN ?", models.KindAnswer, answerIDs)
		}
		if err := votes.Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := db.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return db.Delete(&models.Question{}, id).Error
	})
	if err != nil {
		return s.translate("store_delete_question_failed", err, "question_id", id)
	}
	return nil
}

func (s *Store) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	answer.IsAccepted = false
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		// Share lock keeps the question from being deleted underneath the insert.
		if err := db.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").First(&models.Question{}, answer.QuestionID).Error; err != nil {
			return err
		}
		return db.Omit(clause.Associations).Create(answer).Error
	})
	if err != nil {
		return s.translate("store_create_answer_failed", err, "question_id", answer.QuestionID)
	}
	return nil
}

func (s *Store) Answer(ctx context.Context, id int) (models.Answer, error) {
	var answer models.Answer
	if err := s.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return models.Answer{}, s.translate("store_get_answer_failed", err, "answer_id", id)
	}
	return answer, nil
}

func (s *Store) ListAnswers(ctx context.Context, questionID int) ([]models.Answer, error) {
	query := s.db.WithContext(ctx).Order("id ASC")
	if questionID != 0 {
		query = query.Where("question_id = ?", questionID)
	}
	var items []models.Answer
	if err := query.Find(&items).Error; err != nil {
		return nil, s.translate("store_list_answers_failed", err, "question_id", questionID)
	}
	return items, nil
}

func (s *Store) UpdateAnswer(ctx context.Context, answer *models.Answer) error {
	result := s.db.WithContext(ctx).Model(&models.Answer{}).
		Where("id = ?", answer.ID).
		Updates(map[string]any{
			"content":    answer.Content,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return s.translate("store_update_answer_failed", result.Error, "answer_id", answer.ID)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	if err := s.db.WithContext(ctx).First(answer, answer.ID).Error; err != nil {
		return s.translate("store_reload_answer_failed", err, "answer_id", answer.ID)
	}
	return nil
}

func (s *Store) DeleteAnswer(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		result := db.Delete(&models.Answer{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return db.Where("target_kind = ? AND target_id = ?", models.KindAnswer, id).Delete(&models.Vote{}).Error
	})
	if err != nil {
		return s.translate("store_delete_answer_failed", err, "answer_id", id)
	}
	return nil
}

func (s *Store) Scores(ctx context.Context, kind models.TargetKind, ids []int) (map[int]int, error) {
	scores := make(map[int]int, len(ids))
	if len(ids) == 0 {
		return scores, nil
	}
	var rows []struct {
		TargetID int
		Total    int
	}
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Select("target_id, COALESCE(SUM(value), 0) AS total").
		Where("target_kind = ? AND target_id IN ?", kind, ids).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, s.translate("store_scores_failed", err, "target_kind", string(kind))
	}
	for _, id := range ids {
		scores[id] = 0
	}
	for _, row := range rows {
		scores[row.TargetID] = row.Total
	}
	return scores, nil
}

func (s *Store) Usernames(ctx context.Context, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, s.translate("store_usernames_failed", err)
	}
	for _, user := range users {
		names[user.ID] = user.Username
	}
	return names, nil
}

func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Where("expires_at < ?", now).Delete(&models.RevokedToken{}).Error; err != nil {
			return err
		}
		return db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt.UTC()}).Error
	})
	if err != nil {
		return s.translate("store_revoke_token_failed", err)
	}
	return nil
}

func (s *Store) TokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("token_id = ?", tokenID).
		Count(&count).Error
	if err != nil {
		return false, s.translate("store_token_revoked_failed", err)
	}
	return count > 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate maps driver errors onto store sentinels and logs anything else.
func (s *Store) translate(event string, err error, attrs ...any) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrConflict):
		return err
	case isUniqueViolation(err):
		return store.ErrConflict
	case isForeignKeyViolation(err):
		return store.ErrNotFound
	}
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "store",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("store operation failed", fields...)
	return fmt.Errorf("%s: %w", event, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

var _ store.Store = (*Store)(nil)
