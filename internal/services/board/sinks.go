package board

import (
	"context"
	"sync"

	"github.com/mcoot/blockmatch/internal/model"
)

// NopSink discards every notification
type NopSink struct{}

var _ Sink = NopSink{}

func (NopSink) BlockRemoved(*model.Block, model.Position)               {}
func (NopSink) BlockMoved(*model.Block, model.Position, model.Position) {}
func (NopSink) BlockSpawned(*model.Block, model.Position)               {}
func (NopSink) BlockTierChanged(*model.Block, model.Tier)               {}
func (NopSink) MatchRejected(model.Position)                            {}
func (NopSink) BoardHidden()                                            {}
func (NopSink) BoardRevealed()                                          {}

// Record is one notification captured by a RecordingSink
type Record struct {
	Type    model.EventType
	BlockID model.BlockID
	Color   model.Color
	Tier    model.Tier
	From    model.Position
	To      model.Position // Also the position of removed, spawned and rejected cells
}

// RecordingSink keeps every notification in order. It backs headless play
// and tests.
type RecordingSink struct {
	mu      sync.Mutex
	records []Record
}

var _ Sink = (*RecordingSink)(nil)

// NewRecordingSink creates an empty RecordingSink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) add(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

func (s *RecordingSink) BlockRemoved(b *model.Block, at model.Position) {
	s.add(Record{Type: model.EventBlockRemoved, BlockID: b.ID, Color: b.Color, Tier: b.Tier, To: at})
}

func (s *RecordingSink) BlockMoved(b *model.Block, from, to model.Position) {
	s.add(Record{Type: model.EventBlockMoved, BlockID: b.ID, Color: b.Color, Tier: b.Tier, From: from, To: to})
}

func (s *RecordingSink) BlockSpawned(b *model.Block, at model.Position) {
	s.add(Record{Type: model.EventBlockSpawned, BlockID: b.ID, Color: b.Color, Tier: b.Tier, To: at})
}

func (s *RecordingSink) BlockTierChanged(b *model.Block, tier model.Tier) {
	s.add(Record{Type: model.EventBlockTierChanged, BlockID: b.ID, Color: b.Color, Tier: tier})
}

func (s *RecordingSink) MatchRejected(at model.Position) {
	s.add(Record{Type: model.EventMatchRejected, To: at})
}

func (s *RecordingSink) BoardHidden() {
	s.add(Record{Type: model.EventBoardHidden})
}

func (s *RecordingSink) BoardRevealed() {
	s.add(Record{Type: model.EventBoardRevealed})
}

// Records returns a copy of everything recorded so far
func (s *RecordingSink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Count returns how many notifications of type t were recorded
func (s *RecordingSink) Count(t model.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.Type == t {
			n++
		}
	}
	return n
}

// Reset forgets every record
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// MultiSink fans each notification out to several sinks in order
type MultiSink []Sink

var _ Sink = MultiSink(nil)

func (m MultiSink) BlockRemoved(b *model.Block, at model.Position) {
	for _, s := range m {
		s.BlockRemoved(b, at)
	}
}

func (m MultiSink) BlockMoved(b *model.Block, from, to model.Position) {
	for _, s := range m {
		s.BlockMoved(b, from, to)
	}
}

func (m MultiSink) BlockSpawned(b *model.Block, at model.Position) {
	for _, s := range m {
		s.BlockSpawned(b, at)
	}
}

func (m MultiSink) BlockTierChanged(b *model.Block, tier model.Tier) {
	for _, s := range m {
		s.BlockTierChanged(b, tier)
	}
}

func (m MultiSink) MatchRejected(at model.Position) {
	for _, s := range m {
		s.MatchRejected(at)
	}
}

func (m MultiSink) BoardHidden() {
	for _, s := range m {
		s.BoardHidden()
	}
}

func (m MultiSink) BoardRevealed() {
	for _, s := range m {
		s.BoardRevealed()
	}
}

// AwaitStationary waits on every member sink that animates
func (m MultiSink) AwaitStationary(ctx context.Context) error {
	for _, s := range m {
		if settler, ok := s.(Settler); ok {
			if err := settler.AwaitStationary(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
