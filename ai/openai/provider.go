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
	"log/slog"

	"github.com/docmesh/docmesh/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// It manages embedder and entity recognizer instances.
type Provider struct {
	config     *ai.Config
	embedder   ai.Embedder
	recognizer ai.EntityRecognizer
	logger     *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// The recognizer is capability-optional: if its construction fails, the
// provider degrades to ai.UnavailableRecognizer and graph ingestion
// proceeds with zero entities. This selection happens once here, never
// per call.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")

	// One loaded embedding model serves every per-user collection in the
	// process; later providers reuse it regardless of their config.
	embedder, err := ai.SharedEmbedder(func() (ai.Embedder, error) {
		return newEmbedder(config)
	})
	if err != nil {
		return nil, err
	}

	var recognizer ai.EntityRecognizer
	recognizer, err = newEntityRecognizer(config)
	if err != nil {
		logger.Warn("could not load entity recognizer, entity extraction disabled", "err", err)
		recognizer = ai.UnavailableRecognizer{}
	}

	return &Provider{
		config:     config,
		embedder:   embedder,
		recognizer: recognizer,
		logger:     logger,
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Recognizer returns the entity recognition service.
func (p *Provider) Recognizer() ai.EntityRecognizer {
	return p.recognizer
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
