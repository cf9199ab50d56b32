package classifier

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M tokens (text tokens).
var defaultPricing = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
}

// ResolvePricing returns hardcoded pricing for a model, zero if unknown.
func ResolvePricing(model string) Pricing {
	p, ok := defaultPricing[model]
	if !ok {
		return Pricing{}
	}
	return p
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}

// NewUsageCallbacks builds a callbacks.Handler that logs token usage and cost
// for every chat model call. Register it once via callbacks.AppendGlobalHandlers.
func NewUsageCallbacks() einocb.Handler {
	modelHandler := &callbackHelper.ModelCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			if output == nil || output.TokenUsage == nil {
				return ctx
			}
			usage := &schema.TokenUsage{
				PromptTokens:     output.TokenUsage.PromptTokens,
				CompletionTokens: output.TokenUsage.CompletionTokens,
				TotalTokens:      output.TokenUsage.TotalTokens,
			}
			model := info.Name
			if output.Config != nil && output.Config.Model != "" {
				model = output.Config.Model
			}
			inputCost, outputCost, total := ComputeCost(usage, ResolvePricing(model))
			logx.Debug().
				Str("model", model).
				Int("prompt_tokens", usage.PromptTokens).
				Int("completion_tokens", usage.CompletionTokens).
				Int("total_tokens", usage.TotalTokens).
				Float64("input_cost_usd", inputCost).
				Float64("output_cost_usd", outputCost).
				Float64("total_cost_usd", total).
				Msg("Model call completed")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("model", info.Name).Msg("Model call failed")
			return ctx
		},
	}

	return callbackHelper.NewHandlerHelper().
		ChatModel(modelHandler).
		Handler()
}
