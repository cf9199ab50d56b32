package classifier

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/classifier_prompt.txt
var classifierSystemPrompt string

// strictReminder is appended on the single retry after a malformed or
// out-of-enum model response.
const strictReminder = "REMINDER: Your previous answer was not a valid classification. " +
	"Respond with ONLY the JSON object {\"category\": ..., \"task_type\": ...}. " +
	"The category MUST be one of: account, delivery, transaction, bill, repayment, collections. " +
	"The task_type MUST be information or action. No other text."

// RenderClassifierSystem renders the classifier system prompt through the Eino
// prompt component and returns the final string.
func RenderClassifierSystem(ctx context.Context) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(classifierSystemPrompt)},
	})
	if err != nil {
		return "", fmt.Errorf("render classifier prompt: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("render classifier prompt: empty result")
	}
	return msgs[0].Content, nil
}
