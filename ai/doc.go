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


// Package ai provides abstractions for the AI services used in docmesh.
//
// It defines interfaces for text embedding and entity recognition so the
// adapters and coordinator depend on abstractions rather than concrete
// services.
//
//   - Embedder: generates vector embeddings from text
//   - EntityRecognizer: produces typed entity spans with offsets
//   - Provider: aggregates both for initialization and lifecycle
//
// Two implementation sub-packages exist:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// Production constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types to enforce abstraction; mock constructors return
// concrete types so tests can inject behavior and make assertions.
//
// Entity recognition is capability-optional: when no recognition service
// can be reached, UnavailableRecognizer stands in, reporting Available()
// == false and extracting zero entities. Upstream code treats that as a
// normal, degraded mode rather than an error.
package ai
