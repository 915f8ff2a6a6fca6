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

package retrieval

import "errors"

var (
	// ErrIndexRequired is returned when a component is created without an index.
	ErrIndexRequired = errors.New("index is required")

	// ErrEmbedderRequired is returned when a retriever is created without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrSnapshotCacheRequired is returned when a scanner is created without a snapshot cache.
	ErrSnapshotCacheRequired = errors.New("snapshot cache is required")

	// ErrEmptyQuery is returned when the query is empty or whitespace only.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidTopK is returned when the requested result count is not positive.
	ErrInvalidTopK = errors.New("topK must be >= 1")
)
