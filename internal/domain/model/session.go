package model

import "time"

// State — верхнеуровневое состояние диалога с пользователем.
type State int

const (
	StateStart State = iota
	StateRegistration
	StateMainMenu
	StatePlacesMenu
	StateGuessingPlace
	StateAsking
)

// Mode — выбранный пользователем режим работы.
type Mode int

const (
	ModeTests Mode = iota
	ModePlaces
	ModeAsk
)

// Registration — прогресс трёхшаговой регистрации (имя → фамилия → класс).
// Имеет смысл только в состоянии StateRegistration.
type Registration struct {
	Step int // 0 — имя, 1 — фамилия, 2 — класс
}

// UserSession — вся информация о пользователе и его текущем диалоге.
// Авторитетная копия живёт в памяти (session.Store) и зеркалируется в БД
// при каждом значимом изменении. Сессии никогда не удаляются.
type UserSession struct {
	ChatID int64

	State        State
	Mode         Mode
	Registration Registration

	Name    string
	Surname string
	Class   string

	// LastCompletion хранит дату последнего запуска теста по предмету
	// (с точностью до дня). Заполняется в момент старта теста, а не
	// завершения: брошенный тест нельзя перезапустить в тот же день.
	LastCompletion map[string]time.Time

	DailyPlaceAttempts int
	LastPlaceReset     time.Time

	CurrentTest  *TestSession
	CurrentPlace *SchoolPlace
	// PlaceChoices — последняя предложенная пользователю выборка мест;
	// индекс из callback-кнопки разрешается только по ней.
	PlaceChoices []SchoolPlace
}

// NewUserSession создаёт сессию с состоянием по умолчанию.
func NewUserSession(chatID int64) *UserSession {
	return &UserSession{
		ChatID:         chatID,
		State:          StateStart,
		LastCompletion: make(map[string]time.Time),
	}
}

// Registered сообщает, заполнен ли профиль пользователя.
func (s *UserSession) Registered() bool {
	return s.Name != "" && s.Surname != "" && s.Class != ""
}

// DateOnly обрезает момент времени до начала суток в его тайм-зоне.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
