package vector

import "github.com/docmesh/docmesh/core"

// QueryMonitor provides hooks to observe the multi-term query process.
// Implement this interface to track term expansion and merging.
type QueryMonitor interface {
	Start(query string)
	AfterTermExpansion(terms []string)
	TermSearched(term string, hits int)
	TermFailed(term string, err error)
	AfterMerge(merged int)
	Finish(results []core.VectorResult)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterTermExpansion(_ []string)   {}
func (n *noopMonitor) TermSearched(_ string, _ int)    {}
func (n *noopMonitor) TermFailed(_ string, _ error)    {}
func (n *noopMonitor) AfterMerge(_ int)                {}
func (n *noopMonitor) Finish(_ []core.VectorResult)    {}
