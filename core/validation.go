// Copyright 2025 Docsift Authors
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

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Source must not be empty
//   - Position must be >= 1
//   - Id, if set, must match IDFromChunk(Source, Position, Text)
//
// NOT validated (populated by the pipeline):
//   - Vector (can be empty until the embedding step runs)
//   - Metadata (open mapping, callers may extend it)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySource)
	}

	if chunk.Position < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidPosition)
	}

	if !chunk.Id.IsZero() && chunk.Id != IDFromChunk(chunk.Source, chunk.Position, chunk.Text) {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidID)
	}

	return nil
}
