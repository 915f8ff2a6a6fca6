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


package document

import "errors"

var (
	// ErrExtractionFailed indicates a document could not be read or parsed.
	ErrExtractionFailed = errors.New("document extraction failed")

	// ErrUnsupportedFormat indicates a file extension the extractor does not handle.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)
