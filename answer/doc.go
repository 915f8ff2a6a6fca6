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

// Package answer generates context-grounded answers from retrieved
// passages. A Composer retrieves evidence for a question, formats it into
// numbered source blocks, and instructs the generator to answer from that
// context alone, citing sources by number. When retrieval produces no
// evidence the composer answers with a fixed insufficient-information
// message instead of calling the generator.
package answer
