package session

import (
	"context"
	"sync"
	"time"

	"github.com/hbg-dev/schoolbot/internal/domain/model"
)

// Saver — коллаборатор персистентности: полная перезапись состояния
// одного пользователя.
type Saver interface {
	SaveUser(ctx context.Context, s *model.UserSession) error
}

type entry struct {
	mu   sync.Mutex
	sess *model.UserSession
}

// Store — единственный владелец сессий в памяти. Доступ к отдельной сессии
// сериализуется per-identity мьютексом: два конкурентных события одного
// пользователя не могут перемешать чтение и запись его состояния.
// Сессии создаются при первом обращении и никогда не удаляются.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]*entry
	saver   Saver
}

// NewStore создаёт пустое хранилище, зеркалирующее сессии через saver.
func NewStore(saver Saver) *Store {
	return &Store{
		entries: make(map[int64]*entry),
		saver:   saver,
	}
}

// Seed заполняет хранилище сессиями, восстановленными из БД при старте.
func (st *Store) Seed(sessions []*model.UserSession) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range sessions {
		if s.LastCompletion == nil {
			s.LastCompletion = make(map[string]time.Time)
		}
		st.entries[s.ChatID] = &entry{sess: s}
	}
}

// With выполняет fn с эксклюзивным доступом к сессии пользователя,
// создавая её с состоянием по умолчанию при первом обращении.
func (st *Store) With(id int64, fn func(*model.UserSession) error) error {
	e := st.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess)
}

func (st *Store) entryFor(id int64) *entry {
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if ok {
		return e
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok = st.entries[id]; ok {
		return e
	}
	e = &entry{sess: model.NewUserSession(id)}
	st.entries[id] = e
	return e
}

// IDs возвращает снимок известных идентификаторов. Итерация по снимку
// не блокирует работу с отдельными сессиями.
func (st *Store) IDs() []int64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]int64, 0, len(st.entries))
	for id := range st.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len возвращает число известных сессий.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// Save зеркалирует сессию в персистентность. Вызывается внутри With,
// до отправки пользователю сообщений о новом состоянии.
func (st *Store) Save(ctx context.Context, s *model.UserSession) error {
	return st.saver.SaveUser(ctx, s)
}
