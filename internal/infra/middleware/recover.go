package middleware

import (
	"errors"
	"log"

	"gopkg.in/telebot.v4"
)

// Recover перехватывает панику в обработчике и передаёт её заданной
// функции обработки ошибки. Без неё паника просто логируется.
func Recover(onError ...func(error, telebot.Context)) telebot.MiddlewareFunc {
	var handleError func(error, telebot.Context)
	if len(onError) > 0 {
		handleError = onError[0]
	} else {
		handleError = func(err error, c telebot.Context) {
			log.Printf("Recovered from panic: %v", err)
		}
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var e error
					switch x := r.(type) {
					case error:
						e = x
					case string:
						e = errors.New(x)
					default:
						e = errors.New("unknown panic")
					}
					handleError(e, c)
					err = e
				}
			}()
			return next(c)
		}
	}
}
