package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Subject — предмет из конфигурации: машинный идентификатор и русское
// название для пользователя.
type Subject struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

type Config struct {
	TelegramBot struct {
		Token string `yaml:"token"`
	} `yaml:"telegram_bot"`
	Database struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"dbname"`
	} `yaml:"database"`
	Mistral struct {
		APIKey         string `yaml:"api_key"`
		ClassifyModel  string `yaml:"classify_model"`
		AnswerModel    string `yaml:"answer_model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"mistral"`
	Schedule struct {
		Timezone string `yaml:"timezone"`
		// Часы заданы указателями: явный 0 (полночь) отличим
		// от отсутствующего поля.
		TestNotifyHour      *int `yaml:"test_notify_hour"`
		FactNotifyHour      *int `yaml:"fact_notify_hour"`
		PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
	} `yaml:"schedule"`
	Content struct {
		DataDir  string    `yaml:"data_dir"`
		Subjects []Subject `yaml:"subjects"`
	} `yaml:"content"`
	Debug bool `yaml:"debug"`
}

// LoadConfig читает yaml-файл, накладывает переменные окружения
// (в том числе из .env, если он есть) и подставляет значения по умолчанию.
func LoadConfig(filename string) (*Config, error) {
	const op = "config.LoadConfig"

	// .env опционален, его отсутствие не ошибка.
	_ = godotenv.Load()

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	config := &Config{}
	if err := yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Секреты из окружения важнее значений из файла.
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		config.TelegramBot.Token = v
	}
	if v := os.Getenv("MISTRAL_API_KEY"); v != "" {
		config.Mistral.APIKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}

	applyDefaults(config)

	if config.TelegramBot.Token == "" {
		return nil, fmt.Errorf("%s: telegram_bot.token не задан", op)
	}
	if h := *config.Schedule.TestNotifyHour; h < 0 || h > 23 {
		return nil, fmt.Errorf("%s: test_notify_hour %d вне диапазона 0-23", op, h)
	}
	if h := *config.Schedule.FactNotifyHour; h < 0 || h > 23 {
		return nil, fmt.Errorf("%s: fact_notify_hour %d вне диапазона 0-23", op, h)
	}
	if config.Schedule.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("%s: poll_interval_seconds должен быть положительным, задано %d",
			op, config.Schedule.PollIntervalSeconds)
	}
	return config, nil
}

func applyDefaults(c *Config) {
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Europe/Moscow"
	}
	if c.Schedule.TestNotifyHour == nil {
		c.Schedule.TestNotifyHour = intPtr(8)
	}
	if c.Schedule.FactNotifyHour == nil {
		c.Schedule.FactNotifyHour = intPtr(10)
	}
	if c.Schedule.PollIntervalSeconds == 0 {
		c.Schedule.PollIntervalSeconds = 30
	}
	if c.Content.DataDir == "" {
		c.Content.DataDir = "data"
	}
	if len(c.Content.Subjects) == 0 {
		c.Content.Subjects = defaultSubjects()
	}
}

func intPtr(v int) *int {
	return &v
}

func defaultSubjects() []Subject {
	return []Subject{
		{ID: "chemistry", Title: "Химия"},
		{ID: "geography", Title: "География"},
		{ID: "biology", Title: "Биология"},
	}
}
