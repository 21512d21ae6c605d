package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hbg-dev/schoolbot/internal/app"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к конфигурационному файлу")
	flag.Parse()

	application, err := app.NewApp(*configPath)
	if err != nil {
		log.Fatalf("Ошибка инициализации приложения: %v", err)
	}

	application.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	application.Stop(ctx)
}
