package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/analysis"
)

// DefaultTemperature keeps analyses close to deterministic.
const DefaultTemperature = 0.2

var instructions = map[analysis.Type]string{
	analysis.TypeTalentProfile: "Summarize the person's strengths, seniority and the roles they fit best.",
	analysis.TypeSkillGap:      "Identify skills the person lacks compared with the similar profiles and suggest how to close each gap.",
	analysis.TypeCareerPath:    "Propose realistic next career steps with the skills each step requires.",
	analysis.TypeTeamFit:       "Assess how the person would complement a team made of the similar profiles.",
	analysis.TypeRetentionRisk: "Estimate retention risk from the profile signals and list mitigating actions.",
}

// LLMAnalyzer implements the analysis tool contract on top of a chat completion provider.
type LLMAnalyzer struct {
	completer   completer
	temperature float32
}

// NewLLMAnalyzer creates an analyzer. A zero temperature falls back to DefaultTemperature.
func NewLLMAnalyzer(c completer, temperature float32) *LLMAnalyzer {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &LLMAnalyzer{completer: c, temperature: temperature}
}

// Analyze sends the serialized context with an analysis-type specific system prompt.
func (a *LLMAnalyzer) Analyze(ctx context.Context, req analysis.ToolRequest) (analysis.ToolResult, error) {
	instruction, ok := instructions[req.AnalysisType]
	if !ok {
		return analysis.ToolResult{}, fmt.Errorf("%w: unsupported analysis type %q",
			domain.ErrInvalidRequest, req.AnalysisType)
	}

	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: systemPrompt(req, instruction)},
		{Role: domain.RoleUser, Content: req.Context},
	}

	res, err := a.completer.Complete(ctx, messages, a.temperature)
	if err != nil {
		return analysis.ToolResult{}, fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return analysis.ToolResult{}, fmt.Errorf("%w: empty completion", domain.ErrAnalysisFailed)
	}

	return analysis.ToolResult{
		Text: res.Text,
		Usage: map[string]any{
			"model":             res.Model,
			"prompt_tokens":     res.PromptTokens,
			"completion_tokens": res.CompletionTokens,
			"total_tokens":      res.TotalTokens,
			"cost":              res.Cost,
		},
	}, nil
}

func systemPrompt(req analysis.ToolRequest, instruction string) string {
	var b strings.Builder
	b.WriteString("You are a talent intelligence analyst. The user message is a JSON bundle with the entity profile, ")
	b.WriteString("similar profiles and a skills summary. ")
	b.WriteString(instruction)
	fmt.Fprintf(&b, "\nAudience: %s. Urgency: %s. Confidentiality: %s.", req.CallerRole, req.Urgency, req.Confidentiality)
	if req.Confidentiality == analysis.ConfidentialityConfidential || req.Confidentiality == analysis.ConfidentialityRestricted {
		b.WriteString(" Do not repeat contact details.")
	}
	return b.String()
}
