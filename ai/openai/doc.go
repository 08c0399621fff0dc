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


// Package openai implements the ai interfaces against OpenAI-compatible
// HTTP APIs (OpenAI, Ollama, LocalAI, vLLM and similar).
//
// Embeddings go through langchaingo's embeddings wrapper. Entity
// recognition uses chat completion in JSON mode with a strict schema
// prompt, retrying malformed output up to three times with light JSON
// repair in between.
package openai
