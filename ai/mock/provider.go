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


package mock

import "github.com/docmesh/docmesh/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder and recognizer instances.
type MockProvider struct {
	embedder   *MockEmbedder
	recognizer ai.EntityRecognizer
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockRecognizer() to access concrete types for
// test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		recognizer: NewMockRecognizer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom services.
// This allows full control over the behavior of each service; pass
// ai.UnavailableRecognizer{} to exercise the degraded no-NLP mode.
func NewMockProviderWithServices(embedder *MockEmbedder, recognizer ai.EntityRecognizer) ai.Provider {
	return &MockProvider{
		embedder:   embedder,
		recognizer: recognizer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Recognizer returns the configured entity recognizer.
func (p *MockProvider) Recognizer() ai.EntityRecognizer {
	return p.recognizer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockRecognizer returns the underlying recognizer as a *MockRecognizer
// for test assertions, or nil if a different variant was injected.
func (p *MockProvider) GetMockRecognizer() *MockRecognizer {
	r, _ := p.recognizer.(*MockRecognizer)
	return r
}
