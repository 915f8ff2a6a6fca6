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


// Package document turns raw source documents into normalized, chunked text.
//
// The processing chain is Extract -> Clean -> Split: page-ordered text is
// pulled out of a source file, normalized into a canonical string
// (dehyphenation, whitespace collapsing), and sliced into overlapping
// bounded-length chunks suitable for embedding and keyword scanning.
package document
