package model

import "time"

// Subject — предмет: машинный идентификатор и русское название.
type Subject struct {
	ID    string
	Title string
}

// Question — вопрос банка: текст, перемешанные при загрузке варианты
// и индекс верного варианта в перемешанном порядке. После загрузки
// не изменяется.
type Question struct {
	Text         string
	Options      []string
	CorrectIndex int
}

// TestQuestion — копия вопроса внутри активного теста с отметкой об ответе.
// Отвеченный вопрос повторно не принимается.
type TestQuestion struct {
	Question
	Answered   bool
	UserAnswer int
}

// TestSession — активный тест пользователя. Живёт от старта до подведения
// итогов, после чего сбрасывается в nil.
type TestSession struct {
	Subject        string
	Questions      []TestQuestion
	CorrectAnswers int
	StartedAt      time.Time
}

// NextUnanswered возвращает индекс первого неотвеченного вопроса
// в исходном порядке выборки, либо -1, если отвечены все.
func (t *TestSession) NextUnanswered() int {
	for i := range t.Questions {
		if !t.Questions[i].Answered {
			return i
		}
	}
	return -1
}
