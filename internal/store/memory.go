package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"dialer-insights-go/internal/types"
)

// Memory is a volatile Store. Results live until the process exits.
type Memory struct {
	mu       sync.RWMutex
	analyses map[string]*types.AnalysisResult
}

func NewMemory() *Memory {
	return &Memory{analyses: map[string]*types.AnalysisResult{}}
}

func (m *Memory) Put(_ context.Context, res *types.AnalysisResult) error {
	if res == nil || res.ID == "" {
		return eris.New("store: analysis without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[res.ID] = res
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*types.AnalysisResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.analyses[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "store: %s", id)
	}
	return res, nil
}

func (m *Memory) List(_ context.Context) ([]types.AnalysisSummary, error) {
	m.mu.RLock()
	out := make([]types.AnalysisSummary, 0, len(m.analyses))
	for _, res := range m.analyses {
		out = append(out, res.Summary())
	}
	m.mu.RUnlock()

	sortSummaries(out)
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.analyses[id]; !ok {
		return eris.Wrapf(ErrNotFound, "store: %s", id)
	}
	delete(m.analyses, id)
	return nil
}

func (m *Memory) Close() error { return nil }

func sortSummaries(s []types.AnalysisSummary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].UploadedAt.Equal(s[j].UploadedAt) {
			return s[i].UploadedAt.After(s[j].UploadedAt)
		}
		return s[i].ID < s[j].ID
	})
}
