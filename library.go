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

package docsift

import (
	"io"
	"log/slog"

	"github.com/docsift/docsift/ai"
	"github.com/docsift/docsift/ai/openai"
	"github.com/docsift/docsift/answer"
	"github.com/docsift/docsift/index"
	badgerindex "github.com/docsift/docsift/index/badger"
	"github.com/docsift/docsift/ingestion"
	"github.com/docsift/docsift/reembed"
	"github.com/docsift/docsift/retrieval"
)

// Library ties the persistent index and the AI provider together and hands
// out the ingestion, retrieval, and answer components built on them.
type Library struct {
	idx      index.Index
	provider ai.Provider
	logger   *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig sets the AI service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.aiConfig = config
	}
}

// OpenLibrary opens (or creates) the index at filePath and connects the AI
// provider.
func OpenLibrary(filePath string, opts ...LibraryOption) (*Library, error) {
	// Apply options
	options := &libraryOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	idx, err := badgerindex.Open(filePath)
	if err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		idx.Close()
		return nil, err
	}

	return &Library{
		idx:      idx,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (l *Library) Close() error {
	// Close AI provider first
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
	}

	if err := l.idx.Close(); err != nil {
		l.logger.Error("error closing index", "err", err)
		return err
	}
	return nil
}

func (l *Library) Index() index.Index {
	return l.idx
}

func (l *Library) Provider() ai.Provider {
	return l.provider
}

func (l *Library) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(l.idx, l.provider.Embedder(), opts...)
}

func (l *Library) NewRetriever(opts ...retrieval.Option) (*retrieval.Retriever, error) {
	return retrieval.NewRetriever(l.idx, l.provider.Embedder(), opts...)
}

func (l *Library) NewComposer(opts ...answer.Option) (*answer.Composer, error) {
	retriever, err := l.NewRetriever()
	if err != nil {
		return nil, err
	}
	return answer.NewComposer(retriever, l.provider.Generator(), opts...)
}

func (l *Library) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(l.idx, l.provider.Embedder(), config, progress)
}
