// Package storage реализует персистентность на PostgreSQL: профили
// пользователей, отметки о прохождении тестов и append-only журнал
// результатов.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hbg-dev/schoolbot/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    chat_id              BIGINT PRIMARY KEY,
    name                 TEXT NOT NULL DEFAULT '',
    surname              TEXT NOT NULL DEFAULT '',
    class                TEXT NOT NULL DEFAULT '',
    daily_place_attempts INT  NOT NULL DEFAULT 0,
    last_place_reset     DATE NOT NULL DEFAULT '0001-01-01',
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS completions (
    chat_id      BIGINT NOT NULL REFERENCES users(chat_id) ON DELETE CASCADE,
    subject      TEXT   NOT NULL,
    completed_on DATE   NOT NULL,
    PRIMARY KEY (chat_id, subject)
);

CREATE TABLE IF NOT EXISTS results (
    id          BIGSERIAL PRIMARY KEY,
    happened_on DATE NOT NULL,
    kind        TEXT NOT NULL,
    name        TEXT NOT NULL,
    surname     TEXT NOT NULL,
    class       TEXT NOT NULL,
    subject     TEXT NOT NULL
);
`

const (
	kindTest  = "test"
	kindPlace = "place"
)

// Postgres — единственный конкретный бэкенд персистентности.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres создаёт хранилище поверх пула соединений.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema создаёт таблицы при первом запуске.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const op = "storage.EnsureSchema"
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveUser полностью перезаписывает состояние одного пользователя:
// профиль, счётчик попыток и отметки о прохождении — одной транзакцией.
func (p *Postgres) SaveUser(ctx context.Context, s *model.UserSession) error {
	const op = "storage.SaveUser"

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO users (chat_id, name, surname, class, daily_place_attempts, last_place_reset, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now())
        ON CONFLICT (chat_id) DO UPDATE SET
            name = EXCLUDED.name,
            surname = EXCLUDED.surname,
            class = EXCLUDED.class,
            daily_place_attempts = EXCLUDED.daily_place_attempts,
            last_place_reset = EXCLUDED.last_place_reset,
            updated_at = now()`,
		s.ChatID, s.Name, s.Surname, s.Class, s.DailyPlaceAttempts, s.LastPlaceReset)
	if err != nil {
		return fmt.Errorf("%s: upsert user: %w", op, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM completions WHERE chat_id = $1`, s.ChatID); err != nil {
		return fmt.Errorf("%s: clear completions: %w", op, err)
	}
	for subject, date := range s.LastCompletion {
		_, err := tx.Exec(ctx,
			`INSERT INTO completions (chat_id, subject, completed_on) VALUES ($1, $2, $3)`,
			s.ChatID, subject, model.DateOnly(date))
		if err != nil {
			return fmt.Errorf("%s: insert completion %s: %w", op, subject, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// LoadSessions восстанавливает все сессии на момент последней удачной
// записи. Пользователь с заполненным профилем попадает в главное меню;
// незавершённая регистрация не персистится и начинается заново.
func (p *Postgres) LoadSessions(ctx context.Context) ([]*model.UserSession, error) {
	const op = "storage.LoadSessions"

	rows, err := p.db.Query(ctx, `
        SELECT chat_id, name, surname, class, daily_place_attempts, last_place_reset
        FROM users`)
	if err != nil {
		return nil, fmt.Errorf("%s: query users: %w", op, err)
	}
	defer rows.Close()

	byID := make(map[int64]*model.UserSession)
	for rows.Next() {
		s := model.NewUserSession(0)
		if err := rows.Scan(&s.ChatID, &s.Name, &s.Surname, &s.Class,
			&s.DailyPlaceAttempts, &s.LastPlaceReset); err != nil {
			return nil, fmt.Errorf("%s: scan user: %w", op, err)
		}
		s.State = restoredState(s)
		byID[s.ChatID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: users: %w", op, err)
	}

	crows, err := p.db.Query(ctx, `SELECT chat_id, subject, completed_on FROM completions`)
	if err != nil {
		return nil, fmt.Errorf("%s: query completions: %w", op, err)
	}
	defer crows.Close()

	for crows.Next() {
		var chatID int64
		var subject string
		var date time.Time
		if err := crows.Scan(&chatID, &subject, &date); err != nil {
			return nil, fmt.Errorf("%s: scan completion: %w", op, err)
		}
		if s, ok := byID[chatID]; ok {
			s.LastCompletion[subject] = date
		}
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("%s: completions: %w", op, err)
	}

	out := make([]*model.UserSession, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	return out, nil
}

// restoredState определяет состояние восстановленной сессии.
func restoredState(s *model.UserSession) model.State {
	if s.Registered() {
		return model.StateMainMenu
	}
	return model.StateStart
}

// LogTestResult добавляет запись об идеально пройденном тесте.
func (p *Postgres) LogTestResult(ctx context.Context, s *model.UserSession, subject string) error {
	return p.appendResult(ctx, kindTest, s, subject)
}

// LogPlaceResult добавляет запись об угаданном месте.
func (p *Postgres) LogPlaceResult(ctx context.Context, s *model.UserSession, place string) error {
	return p.appendResult(ctx, kindPlace, s, place)
}

func (p *Postgres) appendResult(ctx context.Context, kind string, s *model.UserSession, subject string) error {
	const op = "storage.appendResult"
	_, err := p.db.Exec(ctx, `
        INSERT INTO results (happened_on, kind, name, surname, class, subject)
        VALUES (CURRENT_DATE, $1, $2, $3, $4, $5)`,
		kind, s.Name, s.Surname, s.Class, subject)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
