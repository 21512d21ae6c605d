// Package scheduler реализует фоновый цикл суточных событий: сброс дневных
// квот и две рассылки, каждая со своим вотермарком даты, так что событие
// срабатывает не более одного раза за локальный день.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hbg-dev/schoolbot/internal/app/messages"
	"github.com/hbg-dev/schoolbot/internal/domain/model"
	"github.com/hbg-dev/schoolbot/internal/domain/session"
)

// Sender доставляет сообщение пользователю.
type Sender interface {
	Send(chatID int64, text string, markdown bool) error
}

// Facts — источник фактов дня (Q&A-коллаборатор).
type Facts interface {
	Fact(ctx context.Context, subject string) (string, error)
}

// Scheduler опрашивает часы с грубым интервалом и сравнивает локальную
// дату с вотермарками триггеров.
type Scheduler struct {
	store    *session.Store
	sender   Sender
	facts    Facts
	subjects []model.Subject
	loc      *time.Location
	interval time.Duration
	testHour int
	factHour int
	logger   *log.Logger

	now func() time.Time

	lastReset    time.Time
	lastTestNote time.Time
	lastFactNote time.Time
}

// New создаёт планировщик. Вотермарк сброса нулевой: первый тик всегда
// проходит по сессиям и обнуляет те, чей персистентный LastPlaceReset
// отстал от текущей локальной даты. Так смена даты, пережитая процессом
// в выключенном состоянии, не теряется, а сессии, уже сброшенные сегодня,
// не трогаются повторно.
func New(
	store *session.Store,
	sender Sender,
	facts Facts,
	subjects []model.Subject,
	loc *time.Location,
	testHour, factHour int,
	interval time.Duration,
	logger *log.Logger,
) *Scheduler {
	return &Scheduler{
		store:    store,
		sender:   sender,
		facts:    facts,
		subjects: subjects,
		loc:      loc,
		interval: interval,
		testHour: testHour,
		factHour: factHour,
		logger:   logger,
		now:      time.Now,
	}
}

// Run крутит цикл до отмены контекста. Текущий проход рассылки не
// прерывается посередине — выходим только между тиками.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.loc)
	today := model.DateOnly(now)

	if s.lastReset.Before(today) {
		s.resetAll(ctx, today)
		s.lastReset = today
	}

	if now.Hour() == s.testHour && model.DateOnly(s.lastTestNote).Before(today) {
		s.broadcast(messages.MorningTests, false)
		s.lastTestNote = now
	}

	if now.Hour() == s.factHour && model.DateOnly(s.lastFactNote).Before(today) {
		s.broadcastFacts(ctx)
		s.lastFactNote = now
	}
}

// resetAll очищает отметки о прохождении и дневные квоты сессий, чей
// вотермарк сброса отстал от текущей даты, и зеркалирует каждую
// в персистентность. Ошибка по одному пользователю не прерывает проход.
func (s *Scheduler) resetAll(ctx context.Context, today time.Time) {
	for _, id := range s.store.IDs() {
		err := s.store.With(id, func(sess *model.UserSession) error {
			if !model.DateOnly(sess.LastPlaceReset).Before(today) {
				return nil
			}
			for subject := range sess.LastCompletion {
				delete(sess.LastCompletion, subject)
			}
			sess.DailyPlaceAttempts = 0
			sess.LastPlaceReset = today
			return s.store.Save(ctx, sess)
		})
		if err != nil {
			s.logger.Printf("сброс квот %d: %v", id, err)
		}
	}
}

func (s *Scheduler) broadcast(text string, markdown bool) {
	for _, id := range s.store.IDs() {
		if err := s.sender.Send(id, text, markdown); err != nil {
			s.logger.Printf("рассылка %d: %v", id, err)
		}
	}
}

// broadcastFacts генерирует по одному факту на предмет и рассылает всем
// одно и то же сообщение. Сбой по предмету пропускает только этот предмет.
func (s *Scheduler) broadcastFacts(ctx context.Context) {
	var lines []string
	for _, subj := range s.subjects {
		fact, err := s.facts.Fact(ctx, subj.Title)
		if err != nil {
			s.logger.Printf("факт по %s: %v", subj.Title, err)
			continue
		}
		lines = append(lines, fmt.Sprintf(messages.FactLineFmt, subj.Title, fact))
	}
	if len(lines) == 0 {
		return
	}
	s.broadcast(messages.FactsHeader+"\n\n"+strings.Join(lines, "\n\n"), true)
}
