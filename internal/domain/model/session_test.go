package model

import (
	"testing"
	"time"
)

// TestRegistered проверяет критерий заполненности профиля.
func TestRegistered(t *testing.T) {
	s := NewUserSession(1)
	if s.Registered() {
		t.Error("пустой профиль не может считаться заполненным")
	}
	s.Name, s.Surname = "Иван", "Иванов"
	if s.Registered() {
		t.Error("профиль без класса не может считаться заполненным")
	}
	s.Class = "9А"
	if !s.Registered() {
		t.Error("полный профиль должен считаться заполненным")
	}
}

// TestDateOnly проверяет обрезание момента до начала суток с сохранением
// тайм-зоны.
func TestDateOnly(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("загрузка тайм-зоны: %v", err)
	}
	moment := time.Date(2026, 3, 2, 23, 45, 12, 999, loc)

	got := DateOnly(moment)
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DateOnly = %v, ожидалось %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("тайм-зона потеряна: %v", got.Location())
	}
}

// TestNextUnanswered проверяет поиск первого неотвеченного вопроса.
func TestNextUnanswered(t *testing.T) {
	test := &TestSession{
		Questions: []TestQuestion{
			{Answered: true, UserAnswer: 0},
			{UserAnswer: -1},
			{UserAnswer: -1},
		},
	}
	if got := test.NextUnanswered(); got != 1 {
		t.Errorf("NextUnanswered = %d, ожидалось 1", got)
	}

	test.Questions[1].Answered = true
	test.Questions[2].Answered = true
	if got := test.NextUnanswered(); got != -1 {
		t.Errorf("NextUnanswered = %d, ожидалось -1 для завершённого теста", got)
	}
}
