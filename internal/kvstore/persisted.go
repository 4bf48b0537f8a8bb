package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// Keys under which the orchestrator persists build-time state (spec.md §6).
const (
	KeySPOIndex   = "spo_index"
	KeyGraphStats = "graph_stats"
)

// SaveSPOIndex serializes idx as JSON under KeySPOIndex.
func (s *Store) SaveSPOIndex(ctx context.Context, idx *model.SPOIndex) error {
	b, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("kvstore.SaveSPOIndex: marshal: %w", err)
	}
	return s.Set(ctx, KeySPOIndex, string(b))
}

// LoadSPOIndex reads and deserializes the SPO index, returning (nil, false, nil)
// if it has never been built.
func (s *Store) LoadSPOIndex(ctx context.Context) (*model.SPOIndex, bool, error) {
	raw, ok, err := s.Get(ctx, KeySPOIndex)
	if err != nil || !ok {
		return nil, ok, err
	}
	var idx model.SPOIndex
	if err := json.Unmarshal([]byte(raw), &idx); err != nil {
		return nil, false, fmt.Errorf("kvstore.LoadSPOIndex: unmarshal: %w", err)
	}
	return &idx, true, nil
}

// SaveGraphStats serializes stats as JSON under KeyGraphStats.
func (s *Store) SaveGraphStats(ctx context.Context, stats model.GraphStats) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("kvstore.SaveGraphStats: marshal: %w", err)
	}
	return s.Set(ctx, KeyGraphStats, string(b))
}

// LoadGraphStats reads and deserializes the cached graph statistics.
func (s *Store) LoadGraphStats(ctx context.Context) (model.GraphStats, bool, error) {
	raw, ok, err := s.Get(ctx, KeyGraphStats)
	if err != nil || !ok {
		return model.GraphStats{}, ok, err
	}
	var stats model.GraphStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return model.GraphStats{}, false, fmt.Errorf("kvstore.LoadGraphStats: unmarshal: %w", err)
	}
	return stats, true, nil
}
