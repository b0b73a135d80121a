package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/logger"
)

// Confidence placeholders reported with an answer. They describe which
// prompt was used, not a measured quality.
const (
	ConfidenceWithContext    = 0.8
	ConfidenceWithoutContext = 0.5
)

// AnswerGenerator renders the answer prompts and calls the language model.
type AnswerGenerator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.GenerateOptions
}

// NewAnswerGenerator creates an answer generator. llm may be nil, in which
// case Generate fails with domain.ErrLLMUnavailable.
func NewAnswerGenerator(llm driven.LLMService, prompts driven.PromptStore, settings domain.LLMSettings) *AnswerGenerator {
	return &AnswerGenerator{
		llm:     llm,
		prompts: prompts,
		opts: driven.GenerateOptions{
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		},
	}
}

// Generate answers question. With passages the answer is grounded in their
// full chunk text; without, the open-ended prompt is used. Upstream failures
// are not retried.
func (g *AnswerGenerator) Generate(
	ctx context.Context, question string, passages []domain.SearchResult, conversationID string,
) (*domain.Answer, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: configure an LLM provider with 'caresync config set llm.provider'",
			domain.ErrLLMUnavailable)
	}

	name := driven.PromptAnswerWithoutContext
	confidence := ConfidenceWithoutContext
	if len(passages) > 0 {
		name = driven.PromptAnswerWithContext
		confidence = ConfidenceWithContext
	}

	template, err := g.prompts.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}
	prompt := RenderPrompt(template, question, FormatContext(passages))
	logger.Debug("Generating with %s (%d sources, model %s)", name, len(passages), g.llm.ModelName())

	text, err := g.llm.Generate(ctx, prompt, g.opts)
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	return &domain.Answer{
		Text:           strings.TrimSpace(text),
		Confidence:     confidence,
		ConversationID: conversationID,
	}, nil
}

// RenderPrompt substitutes {{question}} and {{context}} in template.
// Substituted values are not scanned for further placeholders.
func RenderPrompt(template, question, context string) string {
	return strings.NewReplacer(
		"{{question}}", question,
		"{{context}}", context,
	).Replace(template)
}

// FormatContext joins retrieved chunks into the context block of the
// grounded prompt. Chunk text is passed in full.
func FormatContext(results []domain.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("] ")
		b.WriteString(r.Chunk.Metadata.Filename)
		if r.Chunk.Metadata.PageNumber != nil {
			b.WriteString(", page ")
			b.WriteString(strconv.Itoa(*r.Chunk.Metadata.PageNumber))
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(r.Chunk.Text))
	}
	return b.String()
}
