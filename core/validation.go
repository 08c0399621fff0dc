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


package core

import (
	"fmt"
	"time"
)

// ValidateUpload checks the caller-supplied identifiers for an ingestion.
// Content may be empty: ingestion with zero chunks is a valid, empty
// outcome, so content length is deliberately not validated here.
func ValidateUpload(userID, documentName string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if documentName == "" {
		return ErrEmptyDocumentName
	}
	return nil
}

// Validate checks that an entity has a usable (name, type) identity.
func (e Entity) Validate() error {
	if e.Name == "" {
		return ErrEmptyEntityName
	}
	if e.Type == "" {
		return ErrEmptyEntityType
	}
	return nil
}

// Validate checks a graph document before it is written to a store.
func (d *GraphDocument) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("graph document: id is required")
	}
	if d.Name == "" {
		return ErrEmptyDocumentName
	}
	if d.Fingerprint == "" {
		return fmt.Errorf("graph document: fingerprint is required")
	}
	if !d.UploadTime.IsZero() && d.UploadTime.After(time.Now().UTC().Add(time.Minute)) {
		return ErrInvalidUploadTime
	}
	return nil
}

// Truncate returns at most n runes of s. Units are runes, not bytes, so
// multi-byte text never gets cut mid-character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
