package dialog

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hbg-dev/schoolbot/internal/domain/model"
	"github.com/hbg-dev/schoolbot/internal/domain/places"
	"github.com/hbg-dev/schoolbot/internal/domain/quiz"
	"github.com/hbg-dev/schoolbot/internal/domain/session"
)

// fakePersist совмещает роли session.Saver и Recorder.
type fakePersist struct {
	saveErr   error
	saves     int
	testLogs  []string
	placeLogs []string
	logErr    error
}

func (f *fakePersist) SaveUser(ctx context.Context, s *model.UserSession) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	return nil
}

func (f *fakePersist) LogTestResult(ctx context.Context, s *model.UserSession, subject string) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.testLogs = append(f.testLogs, subject)
	return nil
}

func (f *fakePersist) LogPlaceResult(ctx context.Context, s *model.UserSession, place string) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.placeLogs = append(f.placeLogs, place)
	return nil
}

type fakeAssistant struct {
	subject     string
	classifyErr error
	answer      string
	answerErr   error
	fact        string
}

func (f *fakeAssistant) ClassifySubject(ctx context.Context, question string) (string, error) {
	return f.subject, f.classifyErr
}

func (f *fakeAssistant) Answer(ctx context.Context, question, subject string) (string, error) {
	return f.answer, f.answerErr
}

func (f *fakeAssistant) Fact(ctx context.Context, subject string) (string, error) {
	return f.fact, nil
}

var testSubjects = []model.Subject{
	{ID: "chemistry", Title: "Химия"},
	{ID: "geography", Title: "География"},
}

// newTestMachine собирает машину с реальным банком вопросов по химии,
// шестью местами и переданными фейками.
func newTestMachine(t *testing.T, persist *fakePersist, assistant *fakeAssistant) *Machine {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	dir := t.TempDir()

	questions := "Вопрос 1?\nВопрос 2?\nВопрос 3?\nВопрос 4?\nВопрос 5?\n"
	answers := strings.Repeat("Верно;Мимо 1;Мимо 2;Мимо 3\n", 5)
	mustWrite(t, filepath.Join(dir, "chemistry_questions.txt"), questions)
	mustWrite(t, filepath.Join(dir, "chemistry_answers.txt"), answers)

	var placeLines []string
	for _, name := range []string{"Библиотека", "Спортзал", "Столовая", "Актовый зал", "Медпункт", "Гардероб"} {
		placeLines = append(placeLines, name+";Подсказка про "+name)
	}
	mustWrite(t, filepath.Join(dir, "school_places.txt"), strings.Join(placeLines, "\n"))

	bank := quiz.Load(dir, testSubjects, logger)
	registry := places.Load(filepath.Join(dir, "school_places.txt"), logger)
	store := session.NewStore(persist)

	return NewMachine(store, bank, registry, assistant, persist, testSubjects, time.UTC, logger)
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("запись %s: %v", path, err)
	}
}

// register проводит пользователя через регистрацию до главного меню.
func register(t *testing.T, m *Machine, chatID int64) {
	t.Helper()
	ctx := context.Background()
	m.HandleText(ctx, chatID, "/start")
	m.HandleText(ctx, chatID, "Иван")
	m.HandleText(ctx, chatID, "Иванов")
	m.HandleText(ctx, chatID, "9А")

	m.inspect(t, chatID, func(s *model.UserSession) {
		if s.State != model.StateMainMenu {
			t.Fatalf("после регистрации State = %v, ожидалось StateMainMenu", s.State)
		}
	})
}

// inspect читает сессию под блокировкой для проверок.
func (m *Machine) inspect(t *testing.T, chatID int64, fn func(*model.UserSession)) {
	t.Helper()
	_ = m.store.With(chatID, func(s *model.UserSession) error {
		fn(s)
		return nil
	})
}

// hasReply сообщает, содержит ли какой-нибудь из ответов подстроку.
func hasReply(replies []Reply, substr string) bool {
	for _, r := range replies {
		if strings.Contains(r.Text, substr) {
			return true
		}
	}
	return false
}

var errPersist = errors.New("нет связи с базой")
