package search

import "github.com/poiesic/docent/core"

// RetrievalMonitor provides hooks to observe a retrieval.
// Implement this interface to trace candidates and threshold decisions.
type RetrievalMonitor interface {
	Start(query string)
	AfterSearch(candidates []core.ScoredEntry)
	Rejected(candidate core.ScoredEntry)
	Finish(rc core.RetrievedContext)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                   {}
func (n *noopMonitor) AfterSearch(_ []core.ScoredEntry) {}
func (n *noopMonitor) Rejected(_ core.ScoredEntry)      {}
func (n *noopMonitor) Finish(_ core.RetrievedContext)   {}
