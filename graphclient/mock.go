package graphclient

import (
	"context"
	"sync"

	"cosmossdk.io/math"

	"allocation-agent/ipfshash"
)

// MockSource is a mock implementation of NetworkSource for testing
type MockSource struct {
	Mu sync.Mutex

	Deployments []Subgraph
	Indexers    map[string]*Indexer
	Network     *NetworkParameters

	// Error injection
	SubgraphDeploymentsError    error
	IndexerByIDError            error
	IndexersForDeploymentsError error
	ParamsError                 error

	// Call tracking
	DeploymentCalls []DeploymentCall
}

type DeploymentCall struct {
	Include   []ipfshash.IpfsHash
	Exclude   []ipfshash.IpfsHash
	MinSignal math.Int
}

var _ NetworkSource = (*MockSource)(nil)

func NewMockSource() *MockSource {
	return &MockSource{
		Indexers: make(map[string]*Indexer),
	}
}

func (m *MockSource) SubgraphDeployments(ctx context.Context, include, exclude []ipfshash.IpfsHash, minSignal math.Int) ([]Subgraph, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.DeploymentCalls = append(m.DeploymentCalls, DeploymentCall{Include: include, Exclude: exclude, MinSignal: minSignal})
	if m.SubgraphDeploymentsError != nil {
		return nil, m.SubgraphDeploymentsError
	}

	included := func(h ipfshash.IpfsHash) bool {
		if len(include) == 0 {
			return true
		}
		for _, i := range include {
			if i == h {
				return true
			}
		}
		return false
	}
	excluded := func(h ipfshash.IpfsHash) bool {
		for _, e := range exclude {
			if e == h {
				return true
			}
		}
		return false
	}

	var out []Subgraph
	for _, d := range m.Deployments {
		if !included(d.ID) || excluded(d.ID) {
			continue
		}
		if !minSignal.IsNil() && d.SignalledTokens.LT(minSignal) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *MockSource) IndexerByID(ctx context.Context, id string) (*Indexer, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.IndexerByIDError != nil {
		return nil, m.IndexerByIDError
	}
	idx, ok := m.Indexers[id]
	if !ok {
		return nil, ErrNetworkSource
	}
	cp := *idx
	return &cp, nil
}

func (m *MockSource) IndexersForDeployments(ctx context.Context, deployments []ipfshash.IpfsHash) ([]Indexer, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.IndexersForDeploymentsError != nil {
		return nil, m.IndexersForDeploymentsError
	}
	member := make(map[ipfshash.IpfsHash]struct{}, len(deployments))
	for _, h := range deployments {
		member[h] = struct{}{}
	}
	var out []Indexer
	for _, idx := range m.Indexers {
		for _, a := range idx.Allocations {
			if _, ok := member[a.SubgraphDeployment]; ok {
				out = append(out, *idx)
				break
			}
		}
	}
	return out, nil
}

func (m *MockSource) Params(ctx context.Context) (*NetworkParameters, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ParamsError != nil {
		return nil, m.ParamsError
	}
	if m.Network == nil {
		return nil, ErrNetworkSource
	}
	cp := *m.Network
	return &cp, nil
}
