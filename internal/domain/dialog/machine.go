// Package dialog реализует машину состояний диалога: входящие события
// (текст, callback) превращаются в изменения сессии и исходящие намерения.
package dialog

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/hbg-dev/schoolbot/internal/app/messages"
	"github.com/hbg-dev/schoolbot/internal/domain/model"
	"github.com/hbg-dev/schoolbot/internal/domain/places"
	"github.com/hbg-dev/schoolbot/internal/domain/quiz"
	"github.com/hbg-dev/schoolbot/internal/domain/session"
)

// Assistant — внешний Q&A-коллаборатор. Может быть медленным и может
// ошибаться; любой сбой превращается в общее извинение без смены состояния.
type Assistant interface {
	ClassifySubject(ctx context.Context, question string) (string, error)
	Answer(ctx context.Context, question, subject string) (string, error)
	Fact(ctx context.Context, subject string) (string, error)
}

// Recorder — журнал событий: только добавление записей.
type Recorder interface {
	LogTestResult(ctx context.Context, s *model.UserSession, subject string) error
	LogPlaceResult(ctx context.Context, s *model.UserSession, place string) error
}

const (
	// QuestionsPerTest — сколько вопросов выбирается на один тест.
	QuestionsPerTest = 4
	// MaxPlaceAttempts — дневная квота показов подсказок.
	MaxPlaceAttempts = 5
	// PlacesPerRound — размер выборки мест в меню.
	PlacesPerRound = 5
)

// Machine — машина состояний диалога. Все операции над одной сессией
// сериализованы через session.Store.
type Machine struct {
	store     *session.Store
	bank      *quiz.Bank
	registry  *places.Registry
	assistant Assistant
	recorder  Recorder
	subjects  []model.Subject
	loc       *time.Location
	logger    *log.Logger

	now func() time.Time
}

// NewMachine собирает машину диалога из её коллабораторов.
func NewMachine(
	store *session.Store,
	bank *quiz.Bank,
	registry *places.Registry,
	assistant Assistant,
	recorder Recorder,
	subjects []model.Subject,
	loc *time.Location,
	logger *log.Logger,
) *Machine {
	return &Machine{
		store:     store,
		bank:      bank,
		registry:  registry,
		assistant: assistant,
		recorder:  recorder,
		subjects:  subjects,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

func (m *Machine) today() time.Time {
	return model.DateOnly(m.now().In(m.loc))
}

func (m *Machine) titleOf(id string) string {
	for _, s := range m.subjects {
		if s.ID == id {
			return s.Title
		}
	}
	return id
}

// HandleText обрабатывает входящее текстовое сообщение пользователя.
func (m *Machine) HandleText(ctx context.Context, chatID int64, text string) []Reply {
	text = strings.TrimSpace(text)

	var replies []Reply
	var question string

	_ = m.store.With(chatID, func(s *model.UserSession) error {
		switch s.State {
		case model.StateStart:
			if text == "/start" {
				s.State = model.StateRegistration
				s.Registration = model.Registration{}
				replies = append(replies, textReply(messages.EnterName))
			}
		case model.StateRegistration:
			replies = m.handleRegistration(ctx, s, text)
		case model.StateMainMenu:
			if strings.HasPrefix(text, "/") {
				return nil // префикс зарезервирован под команды
			}
			question = text
		case model.StateAsking:
			question = text
		case model.StateGuessingPlace:
			replies = m.checkGuess(ctx, s, text)
		}
		return nil
	})

	if question != "" {
		// Запрос к Q&A выполняется вне per-identity блокировки: состояние
		// на этом пути не меняется, а медленный внешний вызов не должен
		// задерживать обработку других событий.
		replies = append(replies, m.answerQuestion(ctx, question))
	}
	return replies
}

// HandleCallback обрабатывает нажатие inline-кнопки.
func (m *Machine) HandleCallback(ctx context.Context, chatID int64, data string) []Reply {
	data = strings.TrimSpace(data)

	var replies []Reply
	_ = m.store.With(chatID, func(s *model.UserSession) error {
		if !s.Registered() {
			replies = []Reply{textReply(messages.RegisterFirst)}
			return nil
		}
		replies = m.handleCallback(ctx, s, data)
		return nil
	})
	return replies
}

func (m *Machine) handleCallback(ctx context.Context, s *model.UserSession, data string) []Reply {
	switch {
	case data == "back_main":
		s.State = model.StateMainMenu
		return []Reply{m.mainMenu()}
	case data == "back_tests":
		s.State = model.StateMainMenu
		return []Reply{m.testsMenu()}
	case data == "back_places":
		return m.placesMenu(s)
	case strings.HasPrefix(data, "mode_"):
		return m.selectMode(s, strings.TrimPrefix(data, "mode_"))
	case strings.HasPrefix(data, "subject_"):
		return m.startTest(ctx, s, strings.TrimPrefix(data, "subject_"))
	case strings.HasPrefix(data, "place_"):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, "place_"))
		if err != nil {
			return nil
		}
		return m.revealPlace(ctx, s, idx)
	case strings.HasPrefix(data, "answer_"):
		subject, qIndex, optIndex, ok := parseAnswerData(data)
		if !ok {
			return nil
		}
		return m.submitAnswer(ctx, s, subject, qIndex, optIndex)
	}
	return nil
}

func (m *Machine) handleRegistration(ctx context.Context, s *model.UserSession, text string) []Reply {
	if text == "" {
		switch s.Registration.Step {
		case 0:
			return []Reply{textReply(messages.EnterName)}
		case 1:
			return []Reply{textReply(messages.EnterSurname)}
		default:
			return []Reply{textReply(messages.EnterClass)}
		}
	}

	switch s.Registration.Step {
	case 0:
		s.Name = text
		s.Registration.Step = 1
		return []Reply{textReply(messages.EnterSurname)}
	case 1:
		s.Surname = text
		s.Registration.Step = 2
		return []Reply{textReply(messages.EnterClass)}
	default:
		s.Class = text
		s.State = model.StateMainMenu
		s.Registration = model.Registration{}
		if err := m.store.Save(ctx, s); err != nil {
			m.logger.Printf("сохранение профиля %d: %v", s.ChatID, err)
			s.Class = ""
			s.State = model.StateRegistration
			s.Registration.Step = 2
			return []Reply{textReply(messages.GenericError)}
		}
		return []Reply{m.mainMenu()}
	}
}

func (m *Machine) selectMode(s *model.UserSession, mode string) []Reply {
	switch mode {
	case "places":
		s.Mode = model.ModePlaces
		return m.placesMenu(s)
	case "ask":
		s.Mode = model.ModeAsk
		s.State = model.StateAsking
		return []Reply{textReply(messages.EnterQuestion)}
	default:
		s.Mode = model.ModeTests
		s.State = model.StateMainMenu
		return []Reply{m.testsMenu()}
	}
}

func (m *Machine) mainMenu() Reply {
	return keyboardReply(messages.ChooseMode,
		[]Button{{Label: messages.ModeTestsButton, Data: "mode_tests"}},
		[]Button{{Label: messages.ModePlacesButton, Data: "mode_places"}},
		[]Button{{Label: messages.ModeAskButton, Data: "mode_ask"}},
	)
}

func (m *Machine) testsMenu() Reply {
	rows := make([][]Button, 0, len(m.subjects)+1)
	for _, subj := range m.subjects {
		rows = append(rows, []Button{{Label: subj.Title, Data: "subject_" + subj.ID}})
	}
	rows = append(rows, []Button{{Label: messages.BackButton, Data: "back_main"}})
	return Reply{Text: messages.ChooseSubject, Keyboard: rows}
}

func (m *Machine) answerQuestion(ctx context.Context, question string) Reply {
	subject, err := m.assistant.ClassifySubject(ctx, question)
	if err != nil {
		m.logger.Printf("классификация вопроса: %v", err)
		return textReply(messages.GenericError)
	}
	if subject == "" {
		titles := make([]string, 0, len(m.subjects))
		for _, s := range m.subjects {
			titles = append(titles, s.Title)
		}
		return textReply(fmt.Sprintf(messages.NotSchoolSubjectFmt, strings.Join(titles, ", ")))
	}
	answer, err := m.assistant.Answer(ctx, question, subject)
	if err != nil {
		m.logger.Printf("ответ на вопрос: %v", err)
		return textReply(messages.GenericError)
	}
	return textReply(fmt.Sprintf(messages.AnswerFmt, subject, answer))
}

// parseAnswerData разбирает callback вида "answer_<предмет>_<вопрос>_<вариант>".
func parseAnswerData(data string) (subject string, qIndex, optIndex int, ok bool) {
	parts := strings.Split(data, "_")
	if len(parts) != 4 {
		return "", 0, 0, false
	}
	q, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, false
	}
	o, err := strconv.Atoi(parts[3])
	if err != nil {
		return "", 0, 0, false
	}
	return parts[1], q, o, true
}
