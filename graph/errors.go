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


package graph

import "errors"

var (
	// ErrStoreRequired indicates that no graph store was provided.
	ErrStoreRequired = errors.New("graph store is required")

	// ErrRecognizerRequired indicates that no entity recognizer was
	// provided. Pass ai.UnavailableRecognizer{} when the capability is
	// absent; nil is a wiring mistake.
	ErrRecognizerRequired = errors.New("entity recognizer is required")
)
