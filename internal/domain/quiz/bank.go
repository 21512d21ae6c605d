package quiz

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/hbg-dev/schoolbot/internal/domain/model"
)

// Bank — банк вопросов по предметам. Загружается один раз при старте,
// дальше только читается.
type Bank struct {
	questions map[string][]model.Question
}

// Load читает вопросы для каждого предмета из пары файлов
// <id>_questions.txt / <id>_answers.txt в каталоге dir. В файле ответов
// первый элемент строки — правильный вариант, остальные — дистракторы;
// варианты перемешиваются при загрузке. Предмет с нечитаемыми файлами
// пропускается с предупреждением, процесс продолжает работу.
func Load(dir string, subjects []model.Subject, logger *log.Logger) *Bank {
	b := &Bank{questions: make(map[string][]model.Question)}
	for _, s := range subjects {
		qs, err := loadSubject(dir, s.ID)
		if err != nil {
			logger.Printf("банк вопросов: предмет %q пропущен: %v", s.ID, err)
			continue
		}
		b.questions[s.ID] = qs
	}
	return b
}

func loadSubject(dir, subject string) ([]model.Question, error) {
	qLines, err := readLines(filepath.Join(dir, subject+"_questions.txt"))
	if err != nil {
		return nil, err
	}
	aLines, err := readLines(filepath.Join(dir, subject+"_answers.txt"))
	if err != nil {
		return nil, err
	}

	n := len(qLines)
	if len(aLines) < n {
		n = len(aLines)
	}

	var list []model.Question
	for i := 0; i < n; i++ {
		text := strings.TrimSpace(qLines[i])
		parts := splitFields(aLines[i])
		// Минимум 4 варианта: правильный и не меньше трёх дистракторов.
		if text == "" || len(parts) < 4 {
			continue
		}
		options := make([]string, len(parts))
		copy(options, parts)
		rand.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})
		correct := 0
		for j, opt := range options {
			if opt == parts[0] {
				correct = j
				break
			}
		}
		list = append(list, model.Question{
			Text:         text,
			Options:      options,
			CorrectIndex: correct,
		})
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("нет ни одного корректного вопроса")
	}
	return list, nil
}

// Sample возвращает до n случайных вопросов предмета без повторов.
// Если вопросов меньше n, возвращаются все в случайном порядке.
func (b *Bank) Sample(subject string, n int) []model.Question {
	pool := b.questions[subject]
	if len(pool) == 0 {
		return nil
	}
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	rand.Shuffle(len(idx), func(a, c int) {
		idx[a], idx[c] = idx[c], idx[a]
	})
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]model.Question, 0, n)
	for _, i := range idx[:n] {
		out = append(out, pool[i])
	}
	return out
}

// Len возвращает число загруженных вопросов по предмету.
func (b *Bank) Len(subject string) int {
	return len(b.questions[subject])
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}
	return lines, nil
}

// splitFields разбивает строку ответов по ';', отбрасывая пустые элементы.
func splitFields(line string) []string {
	var out []string
	for _, p := range strings.Split(line, ";") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
