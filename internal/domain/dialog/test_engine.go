package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/hbg-dev/schoolbot/internal/app/messages"
	"github.com/hbg-dev/schoolbot/internal/domain/model"
)

// canTakeTest — true, если по предмету нет отметки за текущий локальный день.
func (m *Machine) canTakeTest(s *model.UserSession, subject string) bool {
	last, ok := s.LastCompletion[subject]
	if !ok {
		return true
	}
	return model.DateOnly(last).Before(m.today())
}

func (m *Machine) startTest(ctx context.Context, s *model.UserSession, subject string) []Reply {
	title := m.titleOf(subject)
	if m.bank.Len(subject) == 0 {
		return []Reply{textReply(fmt.Sprintf(messages.TestUnavailableFmt, title))}
	}
	if !m.canTakeTest(s, subject) {
		return []Reply{textReply(fmt.Sprintf(messages.TestOncePerDayFmt, title))}
	}

	prev, hadPrev := s.LastCompletion[subject]
	// Дата фиксируется в момент старта: брошенную попытку нельзя
	// перезапустить в тот же день.
	s.LastCompletion[subject] = m.today()

	qs := m.bank.Sample(subject, QuestionsPerTest)
	test := &model.TestSession{
		Subject:   subject,
		StartedAt: m.now(),
		Questions: make([]model.TestQuestion, len(qs)),
	}
	for i, q := range qs {
		test.Questions[i] = model.TestQuestion{Question: q, UserAnswer: -1}
	}
	s.CurrentTest = test

	if err := m.store.Save(ctx, s); err != nil {
		m.logger.Printf("сохранение старта теста %d: %v", s.ChatID, err)
		s.CurrentTest = nil
		if hadPrev {
			s.LastCompletion[subject] = prev
		} else {
			delete(s.LastCompletion, subject)
		}
		return []Reply{textReply(messages.GenericError)}
	}
	return []Reply{m.questionReply(s)}
}

func (m *Machine) submitAnswer(ctx context.Context, s *model.UserSession, subject string, qIndex, optIndex int) []Reply {
	t := s.CurrentTest
	// Устаревшие и повторные нажатия молча игнорируются.
	if t == nil || t.Subject != subject {
		return nil
	}
	if qIndex < 0 || qIndex >= len(t.Questions) {
		return nil
	}
	q := &t.Questions[qIndex]
	if q.Answered {
		return nil
	}
	if optIndex < 0 || optIndex >= len(q.Options) {
		return nil
	}

	q.Answered = true
	q.UserAnswer = optIndex
	if optIndex == q.CorrectIndex {
		t.CorrectAnswers++
	}

	if t.NextUnanswered() == -1 {
		return m.finishTest(ctx, s)
	}
	return []Reply{m.questionReply(s)}
}

func (m *Machine) finishTest(ctx context.Context, s *model.UserSession) []Reply {
	t := s.CurrentTest
	title := m.titleOf(t.Subject)

	var result Reply
	if t.CorrectAnswers == len(t.Questions) {
		if err := m.recorder.LogTestResult(ctx, s, t.Subject); err != nil {
			m.logger.Printf("журнал результатов %d: %v", s.ChatID, err)
		}
		result = textReply(fmt.Sprintf(messages.PerfectScoreFmt, len(t.Questions), title))
	} else {
		result = textReply(fmt.Sprintf(messages.ScoreFmt, t.CorrectAnswers, len(t.Questions)))
	}

	s.CurrentTest = nil
	s.State = model.StateMainMenu
	return []Reply{result, m.mainMenu()}
}

// questionReply формирует сообщение с первым неотвеченным вопросом:
// текст вариантов в теле и кнопки с теми же вариантами.
func (m *Machine) questionReply(s *model.UserSession) Reply {
	t := s.CurrentTest
	idx := t.NextUnanswered()
	q := t.Questions[idx]

	var opts strings.Builder
	buttons := make([]Button, 0, len(q.Options))
	for i, opt := range q.Options {
		letter := string(rune('A' + i))
		fmt.Fprintf(&opts, "%s. %s\n", letter, opt)
		buttons = append(buttons, Button{
			Label: fmt.Sprintf("%s. %s", letter, opt),
			Data:  fmt.Sprintf("answer_%s_%d_%d", t.Subject, idx, i),
		})
	}
	text := fmt.Sprintf(messages.QuestionFmt, idx+1, len(t.Questions), q.Text, opts.String())
	return keyboardReply(text, buttons, []Button{{Label: messages.BackButton, Data: "back_tests"}})
}
