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


// Package index defines the persistent chunk index abstraction.
//
// The Index interface is a thin contract over whatever storage engine holds
// chunk text, metadata, and embeddings, keyed by content identifier. Public
// constructors in implementation packages return the Index interface to
// keep consumers decoupled from the engine:
//
//	idx, err := badger.Open("/path/to/index")  // returns index.Index
//
// The BadgerDB implementation in index/badger offers a durable on-disk mode
// and an in-memory mode for tests.
//
// All methods accept context.Context for cancellation. Implementations must
// be safe for concurrent readers; concurrent writers racing the same IDs
// are resolved by the add-with-duplicate-id behavior (reject), so callers
// should serialize ingestion runs externally if that matters.
package index
