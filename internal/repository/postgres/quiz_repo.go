package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// canonicalOptionOrder — единственный порядок, в котором варианты ответов
// когда-либо загружаются из БД. Обе стороны игры (хост и игрок) разрешают
// "кнопку K" через этот порядок, поэтому он обязан быть тотальным:
// display_order — основной ключ, created_at и id добивают детерминизм
// для строк со старых викторин, где display_order мог совпадать.
const canonicalOptionOrder = "display_order ASC, created_at ASC, id ASC"

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новую викторину вместе с вопросами и вариантами
func (r *QuizRepo) Create(quiz *entity.Quiz) error {
	return r.db.Create(quiz).Error
}

// GetByID возвращает викторину по ID
func (r *QuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину с вопросами (по order_index)
// и вариантами в каноническом порядке отображения
func (r *QuizRepo) GetWithQuestions(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(canonicalOptionOrder)
		}).
		First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetQuestionByIndex возвращает вопрос с данным order_index вместе
// с вариантами в каноническом порядке отображения
func (r *QuizRepo) GetQuestionByIndex(quizID uint, orderIndex int) (*entity.Question, error) {
	var question entity.Question
	err := r.db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(canonicalOptionOrder)
		}).
		Where("quiz_id = ? AND order_index = ?", quizID, orderIndex).
		First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// CountQuestions возвращает число вопросов в викторине
func (r *QuizRepo) CountQuestions(quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}

// ListByOwner возвращает викторины владельца с пагинацией
func (r *QuizRepo) ListByOwner(ownerID uint, limit, offset int) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.Where("owner_id = ?", ownerID).
		Limit(limit).Offset(offset).Order("id DESC").
		Find(&quizzes).Error
	return quizzes, err
}

// Update обновляет информацию о викторине
func (r *QuizRepo) Update(quiz *entity.Quiz) error {
	return r.db.Save(quiz).Error
}

// Delete удаляет викторину
func (r *QuizRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Quiz{}, id).Error
}
