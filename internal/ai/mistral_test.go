package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var subjects = []string{"Химия", "География", "Биология"}

// newTestClient создаёт клиент, направленный на тестовый сервер.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", "", "", subjects, time.Second)
	if err != nil {
		t.Fatalf("NewClient вернул ошибку: %v", err)
	}
	c.baseURL = srv.URL
	return c
}

func completionResponse(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// TestNewClient_RequiresKey проверяет, что без ключа клиент не создаётся.
func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient("  ", "", "", subjects, time.Second); err == nil {
		t.Error("ожидалась ошибка при пустом ключе")
	}
}

// TestClassifySubject_MatchesKnown проверяет сопоставление ответа модели
// со списком предметов без учёта регистра и обрамляющих символов.
func TestClassifySubject_MatchesKnown(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Химия", "Химия"},
		{"'химия'.", "Химия"},
		{" География ", "География"},
		{"Нет", ""},
		{"Физика", ""},
	}
	for _, tc := range cases {
		c := newTestClient(t, completionResponse(tc.raw))
		got, err := c.ClassifySubject(context.Background(), "вопрос")
		if err != nil {
			t.Fatalf("ответ %q: ошибка %v", tc.raw, err)
		}
		if got != tc.want {
			t.Errorf("ответ %q: получено %q, ожидалось %q", tc.raw, got, tc.want)
		}
	}
}

// TestClassifySubject_SendsExpectedRequest проверяет модель, авторизацию
// и параметры запроса классификации.
func TestClassifySubject_SendsExpectedRequest(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		completionResponse("Нет")(w, r)
	})

	if _, err := c.ClassifySubject(context.Background(), "вопрос"); err != nil {
		t.Fatalf("ClassifySubject вернул ошибку: %v", err)
	}

	if auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != "mistral-tiny" {
		t.Errorf("Model = %q, ожидалось mistral-tiny", got.Model)
	}
	if got.Temperature != 0.1 || got.MaxTokens != 10 {
		t.Errorf("параметры классификации: temperature=%v max_tokens=%d", got.Temperature, got.MaxTokens)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("сообщения запроса собраны неверно: %+v", got.Messages)
	}
}

// TestAnswer_ReturnsContent проверяет обычный ответ на вопрос.
func TestAnswer_ReturnsContent(t *testing.T) {
	c := newTestClient(t, completionResponse("H — это водород."))

	got, err := c.Answer(context.Background(), "Что такое H?", "Химия")
	if err != nil {
		t.Fatalf("Answer вернул ошибку: %v", err)
	}
	if got != "H — это водород." {
		t.Errorf("получено %q", got)
	}
}

// TestChatCompletion_ErrorStatus проверяет обработку не-2xx статуса.
func TestChatCompletion_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	if _, err := c.Answer(context.Background(), "вопрос", "Химия"); err == nil {
		t.Error("ожидалась ошибка при статусе 429")
	}
}

// TestChatCompletion_EmptyChoices проверяет обработку пустого ответа.
func TestChatCompletion_EmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	if _, err := c.Fact(context.Background(), "Химия"); err == nil {
		t.Error("ожидалась ошибка при пустом списке choices")
	}
}
