package model

// SchoolPlace — загадываемое место: название (ожидаемый ответ, сравнение
// без учёта регистра) и подсказка.
type SchoolPlace struct {
	Name string
	Clue string
}
