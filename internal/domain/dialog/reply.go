package dialog

// Button — кнопка inline-клавиатуры: подпись и callback-данные.
type Button struct {
	Label string
	Data  string
}

// Reply — исходящее намерение: сообщение, которое транспорт должен
// отправить пользователю. Машина диалога сама ничего не отправляет.
type Reply struct {
	Text     string
	Keyboard [][]Button
	Markdown bool
}

func textReply(text string) Reply {
	return Reply{Text: text}
}

func keyboardReply(text string, rows ...[]Button) Reply {
	return Reply{Text: text, Keyboard: rows}
}
