package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	"github.com/yourusername/livequiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// Ограничения на структуру викторины
const (
	maxQuizTitleLength    = 100
	maxQuestionTextLength = 500
	maxOptionTextLength   = 255
	minOptionsPerQuestion = 2
	maxOptionsPerQuestion = 8
	minTimeLimitSec       = 5
	maxTimeLimitSec       = 300
	defaultTimeLimitSec   = 20
	defaultPointValue     = 1000
)

// OptionInput — вариант ответа при создании викторины
type OptionInput struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionInput — вопрос при создании викторины
type QuestionInput struct {
	Text         string        `json:"text" binding:"required"`
	TimeLimitSec int           `json:"time_limit_sec"`
	PointValue   int           `json:"point_value"`
	Options      []OptionInput `json:"options" binding:"required"`
}

// QuizInput — викторина при создании
type QuizInput struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions" binding:"required"`
}

// QuizService отвечает за создание и управление викторинами.
// Инвариант "ровно один правильный вариант" проверяется здесь, при
// создании; во время игры он считается установленным.
type QuizService struct {
	quizRepo repository.QuizRepository
}

// NewQuizService создает новый сервис викторин
func NewQuizService(quizRepo repository.QuizRepository) *QuizService {
	return &QuizService{quizRepo: quizRepo}
}

// CreateQuiz создает викторину с вопросами и вариантами.
// Порядок вопросов и вариантов фиксируется на момент создания:
// order_index и display_order присваиваются по позиции во входных данных.
func (s *QuizService) CreateQuiz(ctx context.Context, ownerID uint, input QuizInput) (*entity.Quiz, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: quiz title is required", apperrors.ErrValidation)
	}
	if len(title) > maxQuizTitleLength {
		return nil, fmt.Errorf("%w: quiz title exceeds %d characters", apperrors.ErrValidation, maxQuizTitleLength)
	}
	if len(input.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz must have at least one question", apperrors.ErrValidation)
	}

	quiz := &entity.Quiz{
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
	}

	for i, questionInput := range input.Questions {
		question, err := buildQuestion(i, questionInput)
		if err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, *question)
	}

	if err := s.quizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// buildQuestion валидирует и собирает вопрос с позицией orderIndex
func buildQuestion(orderIndex int, input QuestionInput) (*entity.Question, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: question %d: text is required", apperrors.ErrValidation, orderIndex)
	}
	if len(text) > maxQuestionTextLength {
		return nil, fmt.Errorf("%w: question %d: text exceeds %d characters",
			apperrors.ErrValidation, orderIndex, maxQuestionTextLength)
	}

	if len(input.Options) < minOptionsPerQuestion || len(input.Options) > maxOptionsPerQuestion {
		return nil, fmt.Errorf("%w: question %d: must have between %d and %d options",
			apperrors.ErrValidation, orderIndex, minOptionsPerQuestion, maxOptionsPerQuestion)
	}

	timeLimit := input.TimeLimitSec
	if timeLimit == 0 {
		timeLimit = defaultTimeLimitSec
	}
	if timeLimit < minTimeLimitSec || timeLimit > maxTimeLimitSec {
		return nil, fmt.Errorf("%w: question %d: time limit must be between %d and %d seconds",
			apperrors.ErrValidation, orderIndex, minTimeLimitSec, maxTimeLimitSec)
	}

	pointValue := input.PointValue
	if pointValue == 0 {
		pointValue = defaultPointValue
	}
	if pointValue < 0 {
		return nil, fmt.Errorf("%w: question %d: point value cannot be negative",
			apperrors.ErrValidation, orderIndex)
	}

	question := &entity.Question{
		Text:         text,
		OrderIndex:   orderIndex,
		TimeLimitSec: timeLimit,
		PointValue:   pointValue,
	}

	correctCount := 0
	for position, optionInput := range input.Options {
		optionText := strings.TrimSpace(optionInput.Text)
		if optionText == "" {
			return nil, fmt.Errorf("%w: question %d: option %d: text is required",
				apperrors.ErrValidation, orderIndex, position)
		}
		if len(optionText) > maxOptionTextLength {
			return nil, fmt.Errorf("%w: question %d: option %d: text exceeds %d characters",
				apperrors.ErrValidation, orderIndex, position, maxOptionTextLength)
		}
		if optionInput.IsCorrect {
			correctCount++
		}
		question.Options = append(question.Options, entity.Option{
			Text:         optionText,
			IsCorrect:    optionInput.IsCorrect,
			DisplayOrder: position,
		})
	}

	if correctCount != 1 {
		return nil, fmt.Errorf("%w: question %d: must have exactly one correct option, got %d",
			apperrors.ErrValidation, orderIndex, correctCount)
	}
	return question, nil
}

// GetQuiz возвращает викторину с вопросами, проверяя владельца
func (s *QuizService) GetQuiz(ctx context.Context, quizID uint, ownerID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.OwnerID != ownerID {
		return nil, apperrors.ErrForbidden
	}
	return quiz, nil
}

// ListQuizzes возвращает викторины владельца с пагинацией
func (s *QuizService) ListQuizzes(ctx context.Context, ownerID uint, limit, offset int) ([]entity.Quiz, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.quizRepo.ListByOwner(ownerID, limit, offset)
}

// DeleteQuiz удаляет викторину владельца
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID uint, ownerID uint) error {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if quiz.OwnerID != ownerID {
		return apperrors.ErrForbidden
	}
	return s.quizRepo.Delete(quizID)
}
