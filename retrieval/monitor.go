package retrieval

import (
	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during retrieval.
type RetrievalMonitor interface {
	Start(query string, topK int)
	AfterKeywordScan(hits []*KeywordHit)
	NumericShortCircuit(hits []*KeywordHit)
	AfterVectorSearch(matches []*index.Match)
	Finish(results []*core.RetrievalResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                  {}
func (n *noopMonitor) AfterKeywordScan(_ []*KeywordHit)       {}
func (n *noopMonitor) NumericShortCircuit(_ []*KeywordHit)    {}
func (n *noopMonitor) AfterVectorSearch(_ []*index.Match)     {}
func (n *noopMonitor) Finish(_ []*core.RetrievalResult)       {}
