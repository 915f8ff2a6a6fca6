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

// Package ingestion turns a directory of documents into indexed,
// embedded chunks.
//
// A Pipeline extracts and chunks documents in parallel on a bounded
// worker pool, skips chunks whose content identifiers are already
// present in the index, then embeds and persists the remainder in
// fixed-size batches. Runs are idempotent: repeating a run over an
// unchanged corpus adds nothing, and content identifiers guarantee
// that unchanged chunks keep their identity across runs.
package ingestion
