// Package ai реализует клиент Mistral chat-completions API: классификацию
// вопроса по предмету, ответ на вопрос и генерацию факта дня.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.mistral.ai/v1"

// Client — клиент Mistral. Безопасен для конкурентного использования.
type Client struct {
	apiKey        string
	classifyModel string
	answerModel   string
	baseURL       string
	httpClient    *http.Client
	subjects      []string // допустимые названия предметов для классификации
}

// NewClient создаёт клиент. subjects — русские названия предметов,
// единственно допустимые ответы классификатора.
func NewClient(apiKey, classifyModel, answerModel string, subjects []string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("mistral: api key не задан")
	}
	if classifyModel == "" {
		classifyModel = "mistral-tiny"
	}
	if answerModel == "" {
		answerModel = "mistral-medium"
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Client{
		apiKey:        apiKey,
		classifyModel: classifyModel,
		answerModel:   answerModel,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		subjects:      subjects,
	}, nil
}

// ClassifySubject определяет предмет вопроса. Возвращает пустую строку,
// если вопрос не относится ни к одному из известных предметов.
func (c *Client) ClassifySubject(ctx context.Context, question string) (string, error) {
	system := fmt.Sprintf(
		"Ты определяешь предмет вопроса. Отвечай только одним словом: %s или 'Нет'.",
		quoteJoin(c.subjects))
	user := fmt.Sprintf("К какому предмету относится вопрос: %s?", question)

	content, err := c.chatCompletion(ctx, c.classifyModel, system, user, 0.1, 10)
	if err != nil {
		return "", err
	}

	detected := strings.Trim(strings.TrimSpace(content), "'\".")
	for _, s := range c.subjects {
		if strings.EqualFold(detected, s) {
			return s, nil
		}
	}
	return "", nil
}

// Answer отвечает на вопрос по известному предмету.
func (c *Client) Answer(ctx context.Context, question, subject string) (string, error) {
	system := fmt.Sprintf("Ты помощник по предмету %s. Отвечай кратко и понятно.", subject)
	return c.chatCompletion(ctx, c.answerModel, system, question, 0.7, 500)
}

// Fact генерирует короткий интересный факт по предмету.
func (c *Client) Fact(ctx context.Context, subject string) (string, error) {
	system := fmt.Sprintf(
		"Ты эксперт по предмету %s. Сгенерируй краткий интересный факт для школьника, без вступлений, просто факт.",
		subject)
	user := fmt.Sprintf("Расскажи интересный факт по предмету %s.", subject)
	return c.chatCompletion(ctx, c.answerModel, system, user, 0.7, 200)
}

func (c *Client) chatCompletion(ctx context.Context, model, system, user string, temperature float64, maxTokens int) (string, error) {
	type chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := map[string]any{
		"model": model,
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("mistral: сериализация запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("mistral: сборка запроса: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mistral: запрос не удался: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("mistral: чтение ответа: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("mistral: статус %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("mistral: разбор ответа: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("mistral: в ответе нет choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("mistral: пустой ответ")
	}
	return content, nil
}

func quoteJoin(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, it := range items {
		quoted = append(quoted, "'"+it+"'")
	}
	return strings.Join(quoted, ", ")
}
