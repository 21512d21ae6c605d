// Package messages собирает все видимые пользователю тексты бота.
package messages

const (
	EnterName    = "Введите ваше имя:"
	EnterSurname = "Введите фамилию:"
	EnterClass   = "Введите класс:"

	ChooseMode    = "Выберите режим:"
	ChooseSubject = "Выберите предмет для теста:"
	ChoosePlace   = "Выберите место:"
	EnterQuestion = "Введите ваш вопрос:"
	RegisterFirst = "Сначала зарегистрируйтесь через /start"

	ModeTestsButton  = "🧪 Тесты"
	ModePlacesButton = "🏫 Места"
	ModeAskButton    = "🤖 Задать вопрос"
	BackButton       = "◀️ Назад"

	TestOncePerDayFmt  = "Тест по %s доступен раз в день"
	TestUnavailableFmt = "Тест по %s сейчас недоступен"
	QuestionFmt        = "Вопрос %d/%d:\n%s\n\nВарианты ответов:\n%s"
	PerfectScoreFmt    = "Поздравляем! Все %d ответа правильные по %s!"
	ScoreFmt           = "Правильных ответов: %d/%d. Попробуйте завтра."

	PlaceButtonFmt   = "Место %d"
	PlaceUnavailable = "Место не доступно"
	AllAttemptsUsed  = "Все попытки использованы!"
	ClueFmt          = "Подсказка: %s"
	EnterGuess       = "Введите ответ:"
	CorrectGuessFmt  = "Правильно! Это %s"
	WrongGuess       = "Неверно. Попробуйте снова."
	PlaceLost        = "Ошибка. Выберите место снова."

	NotSchoolSubjectFmt = "Вопрос не относится к школьным предметам (%s)"
	AnswerFmt           = "[%s] Ответ: %s"
	GenericError        = "Произошла ошибка. Попробуйте позже."

	MorningTests = "Доброе утро! Новые тесты доступны!"
	FactsHeader  = "Интересные факты дня:"
	FactLineFmt  = "*%s:* %s"
)
