// Package app собирает приложение: конфигурация, база, доменные
// компоненты, бот и планировщик.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/telebot.v4"

	"github.com/hbg-dev/schoolbot/internal/ai"
	"github.com/hbg-dev/schoolbot/internal/app/handlers"
	"github.com/hbg-dev/schoolbot/internal/domain/dialog"
	"github.com/hbg-dev/schoolbot/internal/domain/model"
	"github.com/hbg-dev/schoolbot/internal/domain/places"
	"github.com/hbg-dev/schoolbot/internal/domain/quiz"
	"github.com/hbg-dev/schoolbot/internal/domain/session"
	"github.com/hbg-dev/schoolbot/internal/infra/config"
	"github.com/hbg-dev/schoolbot/internal/infra/middleware"
	"github.com/hbg-dev/schoolbot/internal/infra/scheduler"
	"github.com/hbg-dev/schoolbot/internal/storage"
)

type App struct {
	config *config.Config
	logger *log.Logger
	db     *pgxpool.Pool
	bot    *telebot.Bot

	store *session.Store
	sched *scheduler.Scheduler

	cancel context.CancelFunc
}

// NewApp собирает приложение по пути к конфигурационному файлу.
func NewApp(configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config.LoadConfig: %w", err)
	}

	logger := log.New(os.Stdout, "[schoolbot] ", log.LstdFlags)

	ctx := context.Background()
	db, err := initDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app.initDatabase: %w", err)
	}

	pg := storage.NewPostgres(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	restored, err := pg.LoadSessions(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	store := session.NewStore(pg)
	store.Seed(restored)
	logger.Printf("восстановлено сессий: %d", len(restored))

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("app.NewApp: таймзона %q: %w", cfg.Schedule.Timezone, err)
	}

	subjects := make([]model.Subject, 0, len(cfg.Content.Subjects))
	titles := make([]string, 0, len(cfg.Content.Subjects))
	for _, s := range cfg.Content.Subjects {
		subjects = append(subjects, model.Subject{ID: s.ID, Title: s.Title})
		titles = append(titles, s.Title)
	}

	bank := quiz.Load(cfg.Content.DataDir, subjects, logger)
	registry := places.Load(filepath.Join(cfg.Content.DataDir, "school_places.txt"), logger)

	assistant, err := ai.NewClient(
		cfg.Mistral.APIKey,
		cfg.Mistral.ClassifyModel,
		cfg.Mistral.AnswerModel,
		titles,
		time.Duration(cfg.Mistral.TimeoutSeconds)*time.Second,
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	machine := dialog.NewMachine(store, bank, registry, assistant, pg, subjects, loc, logger)

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramBot.Token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("telebot.NewBot: %w", err)
	}
	if cfg.Debug {
		bot.Use(middleware.Logger(logger))
	}
	bot.Use(middleware.Recover())
	handlers.RegisterHandlers(bot, machine, logger)

	sched := scheduler.New(
		store,
		handlers.NewTelebotSender(bot),
		assistant,
		subjects,
		loc,
		*cfg.Schedule.TestNotifyHour,
		*cfg.Schedule.FactNotifyHour,
		time.Duration(cfg.Schedule.PollIntervalSeconds)*time.Second,
		logger,
	)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		bot:    bot,
		store:  store,
		sched:  sched,
	}, nil
}

// Start запускает бота и планировщик в фоновых горутинах.
func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.bot.Start()
	go a.sched.Run(ctx)
	a.logger.Println("бот запущен")
}

// Stop останавливает приём обновлений, зеркалирует все сессии
// в персистентность и закрывает пул соединений.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.bot.Stop()

	for _, id := range a.store.IDs() {
		err := a.store.With(id, func(s *model.UserSession) error {
			return a.store.Save(ctx, s)
		})
		if err != nil {
			a.logger.Printf("финальное сохранение %d: %v", id, err)
		}
	}

	a.db.Close()
	a.logger.Println("бот остановлен")
}
