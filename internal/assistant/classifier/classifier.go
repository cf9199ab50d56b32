package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Classifier maps raw query text to a category and task type.
//
// Classification is LLM-backed and intentionally not cached: identical text may
// classify differently between runs. That non-determinism is accepted, which is
// why tests substitute a deterministic chat model behind this interface.
type Classifier interface {
	Classify(ctx context.Context, text string) (model.Classification, error)
}

// LLMClassifier calls a chat model with a constrained JSON prompt. A malformed
// or out-of-enum response is retried once with a stricter reminder, then
// surfaced as a classification error. It never falls back to a guessed category.
type LLMClassifier struct {
	cm      einomodel.BaseChatModel
	timeout time.Duration
}

// New builds an LLMClassifier from the given chat model and config.
func New(cm einomodel.BaseChatModel, cfg model.ClassifierModelConfig) (*LLMClassifier, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier timeout %q: %w", cfg.Timeout, err)
	}
	return &LLMClassifier{cm: cm, timeout: timeout}, nil
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (model.Classification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Classification{}, errx.InvalidInput("query text must not be empty")
	}

	systemPrompt, err := RenderClassifierSystem(ctx)
	if err != nil {
		return model.Classification{}, errx.Classification(err, "could not prepare classification prompt")
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf("Query: %q", text)),
	}

	cls, err := c.generateOnce(ctx, messages)
	if err == nil {
		return cls, nil
	}

	logx.Warn().Err(err).Msg("Classification attempt failed, retrying with strict reminder")

	retryMessages := append(messages, schema.SystemMessage(strictReminder))
	cls, retryErr := c.generateOnce(ctx, retryMessages)
	if retryErr != nil {
		logx.Error().Err(retryErr).Msg("Classification retry failed")
		return model.Classification{}, errx.Classification(retryErr, "could not classify query")
	}
	return cls, nil
}

func (c *LLMClassifier) generateOnce(ctx context.Context, messages []*schema.Message) (model.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.cm.Generate(ctx, messages)
	if err != nil {
		return model.Classification{}, fmt.Errorf("chat model generate: %w", err)
	}
	if out == nil {
		return model.Classification{}, fmt.Errorf("chat model returned nil message")
	}
	return parseClassification(out.Content)
}

// parseClassification extracts the {category, task_type} object from model
// output. It tolerates surrounding prose or code fences but rejects any value
// outside the fixed enums.
func parseClassification(content string) (model.Classification, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return model.Classification{}, fmt.Errorf("no JSON object in model output")
	}

	var raw struct {
		Category string `json:"category"`
		TaskType string `json:"task_type"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return model.Classification{}, fmt.Errorf("unmarshal classification: %w", err)
	}

	cls := model.Classification{
		Category: model.Category(strings.ToLower(strings.TrimSpace(raw.Category))),
		TaskType: model.TaskType(strings.ToLower(strings.TrimSpace(raw.TaskType))),
	}
	if !cls.Category.Valid() {
		return model.Classification{}, fmt.Errorf("category %q outside the fixed set", raw.Category)
	}
	if !cls.TaskType.Valid() {
		return model.Classification{}, fmt.Errorf("task_type %q is not information or action", raw.TaskType)
	}
	return cls, nil
}

var _ Classifier = (*LLMClassifier)(nil)
