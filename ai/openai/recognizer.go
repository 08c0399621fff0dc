// Copyright 2026 Docmesh Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/docmesh/docmesh/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// EntityRecognizer implements ai.EntityRecognizer using OpenAI-compatible
// chat APIs. The model names entities; offsets are recovered by locating
// each mention in the original text, so spans always index the source
// content rather than whatever normalization the model applied.
type EntityRecognizer struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.EntityRecognizer = (*EntityRecognizer)(nil)

// entity is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// extraction is the wrapper structure for the LLM's JSON response.
type extraction struct {
	Entities []entity `json:"entities"`
}

// newEntityRecognizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEntityRecognizer(config *ai.Config) (*EntityRecognizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/recognition
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.RecognizerHost),
		openai.WithToken("none"),
		openai.WithModel(config.RecognizerModel),
	)
	if err != nil {
		return nil, err
	}

	return &EntityRecognizer{
		client: client,
		logger: slog.Default().With("component", "openai-recognizer"),
	}, nil
}

// NewEntityRecognizer creates a new entity recognizer using the provided
// configuration.
//
// Returns ai.EntityRecognizer interface to enforce abstraction.
func NewEntityRecognizer(config *ai.Config) (ai.EntityRecognizer, error) {
	return newEntityRecognizer(config)
}

// Available reports true: this variant is only constructed when the
// recognition service could be configured.
func (e *EntityRecognizer) Available() bool { return true }

// Recognize extracts typed entity mentions from text using an LLM, then
// maps each named entity back to every occurrence in the original text.
func (e *EntityRecognizer) Recognize(ctx context.Context, text string) ([]ai.EntitySpan, error) {
	if strings.TrimSpace(text) == "" {
		return []ai.EntitySpan{}, nil
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildRecognizerPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result extraction
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return []ai.EntitySpan{}, nil
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing recognizer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse recognizer response after retries", "err", lastErr)
		return nil, lastErr
	}

	spans := []ai.EntitySpan{}
	seen := make(map[string]bool)
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))

	for _, ent := range result.Entities {
		name := strings.TrimSpace(ent.Name)
		if name == "" || ent.Type == "" {
			continue
		}
		typ := strings.ReplaceAll(strings.ToLower(ent.Type), " ", "_")

		key := name + "\x00" + typ
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, start := range occurrences(lower, []rune(strings.ToLower(name))) {
			end := start + len([]rune(name))
			spans = append(spans, ai.EntitySpan{
				Text:  string(runes[start:end]),
				Type:  typ,
				Start: start,
				End:   end,
			})
		}
	}

	e.logger.Debug("recognized entities", "named", len(result.Entities), "spans", len(spans))
	return spans, nil
}

// occurrences returns the start offset of every non-overlapping occurrence
// of needle in haystack.
func occurrences(haystack, needle []rune) []int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	var starts []int
	for i := 0; i+len(needle) <= len(haystack); {
		if matchAt(haystack, needle, i) {
			starts = append(starts, i)
			i += len(needle)
			continue
		}
		i++
	}
	return starts
}

func matchAt(haystack, needle []rune, at int) bool {
	for j := range needle {
		if haystack[at+j] != needle[j] {
			return false
		}
	}
	return true
}
