// Package handlers привязывает диалоговую машину к транспорту Telegram:
// конвертирует входящие обновления в вызовы машины и исходящие намерения
// в отправки сообщений.
package handlers

import (
	"context"
	"log"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/hbg-dev/schoolbot/internal/domain/dialog"
)

// RegisterHandlers регистрирует обработчики бота.
func RegisterHandlers(bot *telebot.Bot, machine *dialog.Machine, logger *log.Logger) {
	bot.Handle("/start", func(c telebot.Context) error {
		replies := machine.HandleText(context.Background(), c.Chat().ID, c.Text())
		return deliver(c, replies)
	})

	bot.Handle(telebot.OnText, func(c telebot.Context) error {
		replies := machine.HandleText(context.Background(), c.Chat().ID, c.Text())
		return deliver(c, replies)
	})

	bot.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := cleanCallbackData(c.Callback().Data)
		replies := machine.HandleCallback(context.Background(), c.Chat().ID, data)
		if err := deliver(c, replies); err != nil {
			logger.Printf("доставка callback %d: %v", c.Chat().ID, err)
		}
		// Снимаем "часики" на кнопке в любом случае.
		return c.Respond()
	})
}

// cleanCallbackData убирает служебные символы, которые telebot
// добавляет к данным callback-кнопок.
func cleanCallbackData(data string) string {
	cleaned := strings.TrimSpace(data)
	cleaned = strings.ReplaceAll(cleaned, "\f", "")
	cleaned = strings.ReplaceAll(cleaned, "\\f", "")
	return cleaned
}

// deliver отправляет намерения машины по порядку. Первая ошибка
// прерывает отправку остатка.
func deliver(c telebot.Context, replies []dialog.Reply) error {
	for _, r := range replies {
		if err := c.Send(r.Text, sendOptions(r)...); err != nil {
			return err
		}
	}
	return nil
}

func sendOptions(r dialog.Reply) []interface{} {
	var opts []interface{}
	if len(r.Keyboard) > 0 {
		opts = append(opts, markupFor(r.Keyboard))
	}
	if r.Markdown {
		opts = append(opts, telebot.ModeMarkdown)
	}
	return opts
}

func markupFor(rows [][]dialog.Button) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	inline := make([][]telebot.InlineButton, 0, len(rows))
	for _, row := range rows {
		line := make([]telebot.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, telebot.InlineButton{Text: b.Label, Data: b.Data})
		}
		inline = append(inline, line)
	}
	markup.InlineKeyboard = inline
	return markup
}

// TelebotSender адаптирует бота под рассылки планировщика.
type TelebotSender struct {
	bot *telebot.Bot
}

// NewTelebotSender создаёт адаптер отправки поверх бота.
func NewTelebotSender(bot *telebot.Bot) *TelebotSender {
	return &TelebotSender{bot: bot}
}

// Send отправляет текст в чат по идентификатору.
func (t *TelebotSender) Send(chatID int64, text string, markdown bool) error {
	recipient := &telebot.Chat{ID: chatID}
	if markdown {
		_, err := t.bot.Send(recipient, text, telebot.ModeMarkdown)
		return err
	}
	_, err := t.bot.Send(recipient, text)
	return err
}
