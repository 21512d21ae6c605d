package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/hbg-dev/schoolbot/internal/app/messages"
	"github.com/hbg-dev/schoolbot/internal/domain/model"
)

// refreshPlaceQuota лениво обнуляет дневную квоту, если её вотермарк
// отстал от текущей локальной даты. Страхует окно между стартом процесса
// и первым проходом планировщика: прошлая квота не должна пережить смену
// даты только потому, что процесс её проспал.
func (m *Machine) refreshPlaceQuota(s *model.UserSession) {
	if model.DateOnly(s.LastPlaceReset).Before(m.today()) {
		s.DailyPlaceAttempts = 0
		s.LastPlaceReset = m.today()
	}
}

// placesMenu показывает свежую выборку мест или возвращает в главное меню,
// если дневная квота исчерпана.
func (m *Machine) placesMenu(s *model.UserSession) []Reply {
	m.refreshPlaceQuota(s)
	if s.DailyPlaceAttempts >= MaxPlaceAttempts {
		s.State = model.StateMainMenu
		s.PlaceChoices = nil
		return []Reply{textReply(messages.AllAttemptsUsed), m.mainMenu()}
	}

	s.PlaceChoices = m.registry.Sample(PlacesPerRound)
	if len(s.PlaceChoices) == 0 {
		s.State = model.StateMainMenu
		return []Reply{textReply(messages.PlaceUnavailable), m.mainMenu()}
	}
	s.State = model.StatePlacesMenu

	buttons := make([]Button, 0, len(s.PlaceChoices))
	for i := range s.PlaceChoices {
		buttons = append(buttons, Button{
			Label: fmt.Sprintf(messages.PlaceButtonFmt, i+1),
			Data:  fmt.Sprintf("place_%d", i),
		})
	}
	return []Reply{keyboardReply(messages.ChoosePlace,
		buttons,
		[]Button{{Label: messages.BackButton, Data: "back_main"}},
	)}
}

// revealPlace показывает подсказку выбранного места. Попытка расходуется
// при показе подсказки, а не при вводе ответа.
func (m *Machine) revealPlace(ctx context.Context, s *model.UserSession, index int) []Reply {
	m.refreshPlaceQuota(s)
	if s.DailyPlaceAttempts >= MaxPlaceAttempts {
		return []Reply{textReply(messages.AllAttemptsUsed)}
	}
	if index < 0 || index >= len(s.PlaceChoices) {
		return []Reply{textReply(messages.PlaceUnavailable)}
	}
	place := s.PlaceChoices[index]

	prevState := s.State
	s.CurrentPlace = &place
	s.DailyPlaceAttempts++
	s.State = model.StateGuessingPlace

	if err := m.store.Save(ctx, s); err != nil {
		m.logger.Printf("сохранение попытки %d: %v", s.ChatID, err)
		s.CurrentPlace = nil
		s.DailyPlaceAttempts--
		s.State = prevState
		return []Reply{textReply(messages.GenericError)}
	}
	return []Reply{
		keyboardReply(fmt.Sprintf(messages.ClueFmt, place.Clue),
			[]Button{{Label: messages.BackButton, Data: "back_places"}}),
		textReply(messages.EnterGuess),
	}
}

// checkGuess сверяет ответ с названием места без учёта регистра.
// Любой исход снимает активное место и возвращает в меню мест,
// либо в главное меню при исчерпанной квоте.
func (m *Machine) checkGuess(ctx context.Context, s *model.UserSession, guess string) []Reply {
	if s.CurrentPlace == nil {
		return append([]Reply{textReply(messages.PlaceLost)}, m.placesMenu(s)...)
	}

	var outcome Reply
	if strings.EqualFold(strings.TrimSpace(guess), s.CurrentPlace.Name) {
		if err := m.recorder.LogPlaceResult(ctx, s, s.CurrentPlace.Name); err != nil {
			m.logger.Printf("журнал угадываний %d: %v", s.ChatID, err)
		}
		outcome = textReply(fmt.Sprintf(messages.CorrectGuessFmt, s.CurrentPlace.Name))
	} else {
		outcome = textReply(messages.WrongGuess)
	}
	s.CurrentPlace = nil

	return append([]Reply{outcome}, m.placesMenu(s)...)
}
