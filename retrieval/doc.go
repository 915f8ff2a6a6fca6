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

// Package retrieval implements hybrid passage retrieval over the
// persistent index.
//
// Two independent signals are combined: dense vector similarity from the
// index's similarity query, and exact keyword/number matching from a
// bounded scan over an in-memory corpus snapshot. Queries that are
// essentially a single long number short-circuit to keyword evidence
// alone. The SnapshotCache makes keyword-scan staleness explicit: each
// snapshot is stamped with the index generation it observed and is
// reloaded when the index moves on.
package retrieval
