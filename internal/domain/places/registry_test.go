package places

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/hbg-dev/schoolbot/internal/domain/model"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// TestLoad_ParsesAndSkips проверяет разбор строк "название;подсказка"
// и пропуск некорректных строк.
func TestLoad_ParsesAndSkips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "school_places.txt")
	content := "Библиотека;Здесь тихо и много книг\n" +
		"строка без разделителя\n" +
		";подсказка без названия\n" +
		"Спортзал; Здесь проходят уроки физкультуры \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("запись файла: %v", err)
	}

	r := Load(path, discardLogger())

	if got := r.Len(); got != 2 {
		t.Fatalf("ожидалось 2 места, получено %d", got)
	}
	if r.places[0].Name != "Библиотека" || r.places[0].Clue != "Здесь тихо и много книг" {
		t.Errorf("первое место разобрано неверно: %+v", r.places[0])
	}
	if r.places[1].Name != "Спортзал" || r.places[1].Clue != "Здесь проходят уроки физкультуры" {
		t.Errorf("пробелы вокруг полей не обрезаны: %+v", r.places[1])
	}
}

// TestLoad_MissingFile проверяет, что отсутствие файла даёт пустой реестр.
func TestLoad_MissingFile(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "нет_такого.txt"), discardLogger())
	if r.Len() != 0 {
		t.Errorf("ожидался пустой реестр, получено %d мест", r.Len())
	}
	if got := r.Sample(5); got != nil {
		t.Errorf("Sample по пустому реестру должен вернуть nil, получено %v", got)
	}
}

// TestSample_Sizes проверяет размер и уникальность выборки.
func TestSample_Sizes(t *testing.T) {
	r := &Registry{}
	for _, name := range []string{"Столовая", "Актовый зал", "Кабинет химии", "Библиотека", "Спортзал", "Медпункт", "Гардероб"} {
		r.places = append(r.places, model.SchoolPlace{Name: name, Clue: "подсказка"})
	}

	got := r.Sample(5)
	if len(got) != 5 {
		t.Fatalf("ожидалось 5 мест, получено %d", len(got))
	}
	seen := make(map[string]bool)
	for _, p := range got {
		if seen[p.Name] {
			t.Errorf("место %q повторяется в выборке", p.Name)
		}
		seen[p.Name] = true
	}

	small := &Registry{places: r.places[:3]}
	if got := small.Sample(5); len(got) != 3 {
		t.Errorf("при нехватке мест ожидалось 3, получено %d", len(got))
	}
}
