package dto

import (
	"time"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
)

// OptionResponse представляет вариант ответа в формате для ответа клиенту.
// Position — позиция кнопки в каноническом порядке; правильность варианта
// наружу не отдается.
type OptionResponse struct {
	ID       uint   `json:"id"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// QuestionResponse представляет вопрос в формате для ответа клиенту
type QuestionResponse struct {
	ID           uint             `json:"id"`
	QuizID       uint             `json:"quiz_id"`
	Text         string           `json:"text"`
	OrderIndex   int              `json:"order_index"`
	TimeLimitSec int              `json:"time_limit_sec"`
	PointValue   int              `json:"point_value"`
	Options      []OptionResponse `json:"options"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// QuizResponse представляет викторину в формате для ответа клиенту
type QuizResponse struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewQuestionResponse создает DTO для вопроса. Варианты должны быть
// предварительно отсортированы в каноническом порядке (репозиторий это
// гарантирует); position присваивается по индексу.
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	options := make([]OptionResponse, 0, len(q.Options))
	for i := range q.Options {
		options = append(options, OptionResponse{
			ID:       q.Options[i].ID,
			Position: i,
			Text:     q.Options[i].Text,
		})
	}

	return QuestionResponse{
		ID:           q.ID,
		QuizID:       q.QuizID,
		Text:         q.Text,
		OrderIndex:   q.OrderIndex,
		TimeLimitSec: q.TimeLimitSec,
		PointValue:   q.PointValue,
		Options:      options,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

// NewQuizResponse создает DTO для викторины
func NewQuizResponse(quiz *entity.Quiz, includeQuestions bool) *QuizResponse {
	response := &QuizResponse{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		QuestionCount: quiz.QuestionCount(),
		CreatedAt:     quiz.CreatedAt,
		UpdatedAt:     quiz.UpdatedAt,
	}

	if includeQuestions && len(quiz.Questions) > 0 {
		response.Questions = make([]QuestionResponse, 0, len(quiz.Questions))
		for i := range quiz.Questions {
			response.Questions = append(response.Questions, NewQuestionResponse(&quiz.Questions[i]))
		}
	}

	return response
}

// NewListQuizResponse создает список DTO викторин без вопросов
func NewListQuizResponse(quizzes []entity.Quiz) []*QuizResponse {
	response := make([]*QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		response = append(response, NewQuizResponse(&quizzes[i], false))
	}
	return response
}
