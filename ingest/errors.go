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


package ingest

import "errors"

var (
	// ErrVectorAdapterRequired indicates that no vector adapter was provided.
	ErrVectorAdapterRequired = errors.New("vector adapter is required")

	// ErrGraphAdapterRequired indicates that no graph adapter was provided.
	ErrGraphAdapterRequired = errors.New("graph adapter is required")
)
