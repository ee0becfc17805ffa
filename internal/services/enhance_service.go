package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/rsvpd/internal/helpers"
	"github.com/joshua-takyi/rsvpd/internal/metrics"
	"github.com/joshua-takyi/rsvpd/internal/models"
)

const enhanceFallbackMessage = "ai enhancement unavailable, using original description"

// TextGenerator completes a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type EnhanceResult struct {
	EnhancedDescription string `json:"enhancedDescription"`
	Message             string `json:"message,omitempty"`
}

type EnhanceService struct {
	generator TextGenerator
	logger    *slog.Logger
}

func NewEnhanceService(generator TextGenerator, logger *slog.Logger) *EnhanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnhanceService{generator: generator, logger: logger}
}

// Enhance rewrites description for the event title. Provider failures return
// the original description with a message instead of an error.
func (es *EnhanceService) Enhance(ctx context.Context, title, description string) (*EnhanceResult, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, models.ValidationError("title and description required")
	}

	fallback := &EnhanceResult{EnhancedDescription: description, Message: enhanceFallbackMessage}
	if es.generator == nil {
		metrics.EnhanceFallbacks.Inc()
		return fallback, nil
	}

	text, err := es.generator.GenerateText(ctx, enhancePrompt(title, description))
	if err != nil {
		es.logger.Warn("text enhancement failed", "error", err)
		metrics.EnhanceFallbacks.Inc()
		return fallback, nil
	}

	enhanced := helpers.SanitizeHTML(text)
	if enhanced == "" {
		metrics.EnhanceFallbacks.Inc()
		return fallback, nil
	}
	return &EnhanceResult{EnhancedDescription: enhanced}, nil
}

func enhancePrompt(title, description string) string {
	return fmt.Sprintf(`Make this event description more engaging and professional. Keep it to 1-2 paragraphs at most. Return only the description with nothing before or after it.

Event Title: %s
Current Description: %s

Enhanced Description:`, title, description)
}
