package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/blockmatch/internal/dependencies/clock"
	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/services/board"
	"github.com/mcoot/blockmatch/internal/services/session"
)

// Publisher turns board notifications into JSON SSE events
type Publisher struct {
	hubs   *HubManager
	clock  clock.Clock
	logger *slog.Logger
}

var _ session.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new Publisher
func NewPublisher(hubs *HubManager, clock clock.Clock, logger *slog.Logger) *Publisher {
	return &Publisher{
		hubs:   hubs,
		clock:  clock,
		logger: logger.With(slog.String("component", "sse-publisher")),
	}
}

// SinkFor returns the lifecycle sink of a board
func (p *Publisher) SinkFor(id model.BoardID) board.Sink {
	return &BoardSink{id: id, publisher: p}
}

// InteractionChanged publishes input gate toggles
func (p *Publisher) InteractionChanged(id model.BoardID, enabled bool) {
	p.publish(id, model.EventInteractionChanged, model.InteractionChangedPayload{Enabled: enabled})
}

// BoardClosed tells watchers the board is gone and drops its hub
func (p *Publisher) BoardClosed(id model.BoardID) {
	p.publish(id, model.EventBoardClosed, nil)
	p.hubs.RemoveHub(id)
}

func (p *Publisher) publish(id model.BoardID, eventType model.EventType, payload any) {
	hub := p.hubs.GetHub(id)
	if hub == nil {
		// Nobody is watching this board
		return
	}
	data, err := json.Marshal(model.Event{
		Type:      eventType,
		Timestamp: p.clock.Now(),
		BoardID:   id,
		Payload:   payload,
	})
	if err != nil {
		p.logger.Error("sse failed to encode event",
			slog.String("board_id", string(id)),
			slog.String("event", string(eventType)),
			slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(string(eventType), string(data))
}

// BoardSink forwards one board's lifecycle notifications to its hub
type BoardSink struct {
	id        model.BoardID
	publisher *Publisher
}

var _ board.Sink = (*BoardSink)(nil)

func blockPayload(b *model.Block, at model.Position) model.BlockPayload {
	return model.BlockPayload{BlockID: b.ID, Color: b.Color.String(), Tier: b.Tier, At: at}
}

func (s *BoardSink) BlockRemoved(b *model.Block, at model.Position) {
	s.publisher.publish(s.id, model.EventBlockRemoved, blockPayload(b, at))
}

func (s *BoardSink) BlockMoved(b *model.Block, from, to model.Position) {
	s.publisher.publish(s.id, model.EventBlockMoved, model.BlockMovedPayload{BlockID: b.ID, From: from, To: to})
}

func (s *BoardSink) BlockSpawned(b *model.Block, at model.Position) {
	s.publisher.publish(s.id, model.EventBlockSpawned, blockPayload(b, at))
}

func (s *BoardSink) BlockTierChanged(b *model.Block, tier model.Tier) {
	s.publisher.publish(s.id, model.EventBlockTierChanged, model.TierChangedPayload{BlockID: b.ID, Tier: tier})
}

func (s *BoardSink) MatchRejected(at model.Position) {
	s.publisher.publish(s.id, model.EventMatchRejected, model.MatchRejectedPayload{At: at})
}

func (s *BoardSink) BoardHidden() {
	s.publisher.publish(s.id, model.EventBoardHidden, nil)
}

func (s *BoardSink) BoardRevealed() {
	s.publisher.publish(s.id, model.EventBoardRevealed, nil)
}
