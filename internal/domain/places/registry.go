package places

import (
	"bufio"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/hbg-dev/schoolbot/internal/domain/model"
)

// Registry — реестр загадываемых мест. Неизменяем после загрузки.
type Registry struct {
	places []model.SchoolPlace
}

// Load читает места из файла формата "название;подсказка" (по одному на
// строку). Некорректные строки пропускаются с предупреждением; отсутствие
// файла не фатально — реестр просто останется пустым.
func Load(path string, logger *log.Logger) *Registry {
	r := &Registry{}

	f, err := os.Open(path)
	if err != nil {
		logger.Printf("реестр мест: %v", err)
		return r
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		parts := strings.SplitN(line, ";", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		clue := strings.TrimSpace(parts[1])
		if name == "" || clue == "" {
			logger.Printf("реестр мест: строка %q пропущена", line)
			continue
		}
		r.places = append(r.places, model.SchoolPlace{Name: name, Clue: clue})
	}
	if err := sc.Err(); err != nil {
		logger.Printf("реестр мест: чтение %s: %v", path, err)
	}
	return r
}

// Len возвращает число мест в реестре.
func (r *Registry) Len() int {
	return len(r.places)
}

// Sample возвращает до n различных случайных мест. Если мест меньше n,
// возвращаются все в случайном порядке.
func (r *Registry) Sample(n int) []model.SchoolPlace {
	if len(r.places) == 0 {
		return nil
	}
	idx := make([]int, len(r.places))
	for i := range idx {
		idx[i] = i
	}
	rand.Shuffle(len(idx), func(a, b int) {
		idx[a], idx[b] = idx[b], idx[a]
	})
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]model.SchoolPlace, 0, n)
	for _, i := range idx[:n] {
		out = append(out, r.places[i])
	}
	return out
}
