package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blockmatch/internal/dependencies/mocks"
	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/services/board"
	"github.com/mcoot/blockmatch/internal/services/levels"
	"github.com/mcoot/blockmatch/internal/storage/memory"
	"github.com/mcoot/blockmatch/internal/testutil"
)

type fakePublisher struct {
	mu           sync.Mutex
	sinks        map[model.BoardID]*board.RecordingSink
	interactions []bool
	closed       []model.BoardID
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{sinks: make(map[model.BoardID]*board.RecordingSink)}
}

func (p *fakePublisher) SinkFor(id model.BoardID) board.Sink {
	p.mu.Lock()
	defer p.mu.Unlock()
	sink := board.NewRecordingSink()
	p.sinks[id] = sink
	return sink
}

func (p *fakePublisher) InteractionChanged(id model.BoardID, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactions = append(p.interactions, enabled)
}

func (p *fakePublisher) BoardClosed(id model.BoardID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, id)
}

func (p *fakePublisher) sink(id model.BoardID) *board.RecordingSink {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sinks[id]
}

type ManagerSuite struct {
	suite.Suite
	levels    *levels.Service
	publisher *fakePublisher
	clock     *mocks.MockClock
	random    *mocks.MockRandom
	manager   *Manager
	ctx       context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.levels = levels.New(memory.New(), testutil.NopLogger())
	s.publisher = newFakePublisher()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	cfg := DefaultConfig()
	cfg.Engine.Yield = nil
	s.manager = NewManager(s.levels, s.publisher, s.clock, s.random, cfg, testutil.NopLogger())

	s.Require().NoError(s.levels.Save(s.ctx, &model.Level{
		Name:   "pairs",
		Rows:   2,
		Cols:   2,
		Colors: 2,
		Layout: [][]model.Color{
			{model.ColorRed, model.ColorRed},
			{model.ColorGreen, model.ColorBlue},
		},
	}))
}

func seed(v uint64) *uint64 {
	return &v
}

func (s *ManagerSuite) createPairs(id string) model.BoardState {
	s.random.QueueString(id)
	state, err := s.manager.Create(s.ctx, CreateParams{Level: "pairs", Seed: seed(1)})
	s.Require().NoError(err)
	return state
}

// Create tests

func (s *ManagerSuite) TestCreateDefaultLevel() {
	s.random.QueueString("board0000001")

	state, err := s.manager.Create(s.ctx, CreateParams{Seed: seed(42)})
	s.Require().NoError(err)

	s.Equal(model.BoardID("board0000001"), state.ID)
	s.Equal("default", state.Level)
	s.Equal(model.DefaultRows, state.Rows)
	s.Equal(model.DefaultCols, state.Cols)
	s.True(state.Playable)
	s.False(state.Locked)
	s.Zero(state.EmptyCount())
	s.Equal(s.clock.Now(), state.CreatedAt)
	s.Equal(1, s.manager.Count())
	s.Equal(model.DefaultRows*model.DefaultCols, s.publisher.sink(state.ID).Count(model.EventBlockSpawned))
}

func (s *ManagerSuite) TestCreateWithOverrides() {
	s.random.QueueString("small")

	state, err := s.manager.Create(s.ctx, CreateParams{Rows: 4, Cols: 3, Colors: 2, Seed: seed(3)})
	s.Require().NoError(err)

	s.Equal(4, state.Rows)
	s.Equal(3, state.Cols)
	for _, row := range state.Cells {
		for _, cell := range row {
			s.Contains([]model.Color{model.ColorRed, model.ColorGreen}, cell.Color)
		}
	}
}

func (s *ManagerSuite) TestCreateSeededBoardsMatch() {
	s.random.QueueString("first", "second")

	a, err := s.manager.Create(s.ctx, CreateParams{Seed: seed(9)})
	s.Require().NoError(err)
	b, err := s.manager.Create(s.ctx, CreateParams{Seed: seed(9)})
	s.Require().NoError(err)

	for row := range a.Cells {
		for col := range a.Cells[row] {
			s.Equal(a.Cells[row][col].Color, b.Cells[row][col].Color)
		}
	}
}

func (s *ManagerSuite) TestCreateRejectsResizingFixedLayout() {
	_, err := s.manager.Create(s.ctx, CreateParams{Level: "pairs", Rows: 5})
	s.ErrorIs(err, model.ErrInvalidLevel)
	s.Zero(s.manager.Count())
}

func (s *ManagerSuite) TestCreateRejectsInvalidOverride() {
	_, err := s.manager.Create(s.ctx, CreateParams{Colors: 9})
	s.ErrorIs(err, model.ErrInvalidLevel)
}

func (s *ManagerSuite) TestCreateUnknownLevel() {
	_, err := s.manager.Create(s.ctx, CreateParams{Level: "missing"})
	s.ErrorIs(err, model.ErrLevelNotFound)
}

func (s *ManagerSuite) TestCreateImpossibleLevel() {
	s.Require().NoError(s.levels.Save(s.ctx, &model.Level{
		Name:   "rainbow",
		Rows:   1,
		Cols:   3,
		Colors: 3,
		Layout: [][]model.Color{{model.ColorRed, model.ColorGreen, model.ColorBlue}},
	}))
	s.random.QueueString("doomed")

	_, err := s.manager.Create(s.ctx, CreateParams{Level: "rainbow"})
	s.ErrorIs(err, model.ErrShuffleExhausted)
	s.Zero(s.manager.Count())
}

func (s *ManagerSuite) TestCreateRespectsMaxBoards() {
	s.manager.cfg.MaxBoards = 1
	s.createPairs("one")

	_, err := s.manager.Create(s.ctx, CreateParams{Level: "pairs"})
	s.ErrorIs(err, model.ErrTooManyBoards)
}

func (s *ManagerSuite) TestCreateRetriesTakenIDs() {
	s.createPairs("dup")
	s.random.QueueString("dup", "fresh")

	state, err := s.manager.Create(s.ctx, CreateParams{Level: "pairs"})
	s.Require().NoError(err)
	s.Equal(model.BoardID("fresh"), state.ID)
}

func (s *ManagerSuite) TestCreateDoesNotBlockOtherBoards() {
	existing := s.createPairs("existing")
	s.Require().NoError(s.levels.Save(s.ctx, &model.Level{
		Name:   "checker",
		Rows:   2,
		Cols:   2,
		Colors: 2,
		Layout: [][]model.Color{
			{model.ColorRed, model.ColorGreen},
			{model.ColorGreen, model.ColorRed},
		},
	}))

	// The checkerboard has no move, so Create shuffles and parks in Yield
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s.manager.cfg.Engine.Yield = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}
	s.random.QueueString("slow")

	created := make(chan error, 1)
	go func() {
		_, err := s.manager.Create(s.ctx, CreateParams{Level: "checker"})
		created <- err
	}()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		s.FailNow("create never started shuffling")
	}

	answered := make(chan model.BoardState, 1)
	go func() {
		state, err := s.manager.Get(s.ctx, existing.ID)
		s.NoError(err)
		s.Equal(1, s.manager.Count())
		answered <- state
	}()
	select {
	case state := <-answered:
		s.Equal(existing.ID, state.ID)
	case <-time.After(2 * time.Second):
		close(release)
		s.FailNow("get blocked behind a board being created")
	}

	close(release)
	s.Require().NoError(<-created)
	s.Equal(2, s.manager.Count())
	_, err := s.manager.Get(s.ctx, "slow")
	s.NoError(err)
}

func (s *ManagerSuite) TestCreateReservesCapacityWhileBuilding() {
	s.manager.cfg.MaxBoards = 1
	s.manager.mu.Lock()
	s.manager.reserved["pending"] = struct{}{}
	s.manager.mu.Unlock()

	_, err := s.manager.Create(s.ctx, CreateParams{Level: "pairs"})
	s.ErrorIs(err, model.ErrTooManyBoards)

	s.manager.mu.Lock()
	delete(s.manager.reserved, "pending")
	s.manager.mu.Unlock()
	s.createPairs("after")
}

func (s *ManagerSuite) TestCreateFailureReleasesReservation() {
	s.manager.cfg.MaxBoards = 1
	s.Require().NoError(s.levels.Save(s.ctx, &model.Level{
		Name:   "rainbow",
		Rows:   1,
		Cols:   3,
		Colors: 3,
		Layout: [][]model.Color{{model.ColorRed, model.ColorGreen, model.ColorBlue}},
	}))
	s.random.QueueString("doomed")

	_, err := s.manager.Create(s.ctx, CreateParams{Level: "rainbow"})
	s.ErrorIs(err, model.ErrShuffleExhausted)
	s.Empty(s.manager.reserved)

	s.createPairs("doomed")
}

// Tap tests

func (s *ManagerSuite) TestTapResolvesMatch() {
	state := s.createPairs("tapper")

	outcome, err := s.manager.Tap(s.ctx, state.ID, model.Position{Row: 0, Col: 1})
	s.Require().NoError(err)

	s.Equal(board.OutcomeMatched, outcome.Result.Outcome)
	s.Equal(2, outcome.Result.Removed)
	s.Equal([]int{0, 1}, outcome.Result.Columns)
	s.True(outcome.State.Playable)
	s.Equal(2, s.publisher.sink(state.ID).Count(model.EventBlockRemoved))
}

func (s *ManagerSuite) TestTapRejected() {
	state := s.createPairs("reject")

	outcome, err := s.manager.Tap(s.ctx, state.ID, model.Position{Row: 1, Col: 1})
	s.Require().NoError(err)
	s.Equal(board.OutcomeRejected, outcome.Result.Outcome)
	s.ErrorIs(outcome.Result.Err(), model.ErrRejectedMatch)
}

func (s *ManagerSuite) TestTapRefusedWhileGateClosed() {
	state := s.createPairs("gated")
	live, err := s.manager.lookup(state.ID)
	s.Require().NoError(err)
	live.gate.SetInteractionEnabled(false)

	_, err = s.manager.Tap(s.ctx, state.ID, model.Position{Row: 0, Col: 0})
	s.ErrorIs(err, model.ErrBoardLocked)
	s.Equal([]bool{false}, s.publisher.interactions)
}

func (s *ManagerSuite) TestTapOutOfBounds() {
	state := s.createPairs("bounds")
	_, err := s.manager.Tap(s.ctx, state.ID, model.Position{Row: 2, Col: 0})
	s.ErrorIs(err, model.ErrOutOfBounds)
}

func (s *ManagerSuite) TestTapUnknownBoard() {
	_, err := s.manager.Tap(s.ctx, "nope", model.Position{})
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *ManagerSuite) TestConcurrentTapsKeepBoardConsistent() {
	s.random.QueueString("busy")
	state, err := s.manager.Create(s.ctx, CreateParams{Rows: 6, Cols: 6, Colors: 3, Seed: seed(5)})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				pos := model.Position{Row: (w + i) % 6, Col: (w * i) % 6}
				if _, err := s.manager.Tap(s.ctx, state.ID, pos); err != nil && !errors.Is(err, model.ErrBoardLocked) {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	live, err := s.manager.lookup(state.ID)
	s.Require().NoError(err)
	live.mu.Lock()
	defer live.mu.Unlock()
	s.NoError(live.engine.CheckInvariants())
}

// Shuffle tests

func (s *ManagerSuite) TestShuffleTogglesInteraction() {
	state := s.createPairs("mixer")

	outcome, err := s.manager.Shuffle(s.ctx, state.ID)
	s.Require().NoError(err)

	s.True(outcome.Result.Playable)
	s.GreaterOrEqual(outcome.Result.Attempts, 1)
	s.True(outcome.State.Playable)
	s.False(outcome.State.Locked)
	s.Equal([]bool{false, true}, s.publisher.interactions)
	sink := s.publisher.sink(state.ID)
	s.Equal(1, sink.Count(model.EventBoardHidden))
	s.Equal(1, sink.Count(model.EventBoardRevealed))
}

func (s *ManagerSuite) TestShuffleUnknownBoard() {
	_, err := s.manager.Shuffle(s.ctx, "nope")
	s.ErrorIs(err, model.ErrBoardNotFound)
}

// Lifecycle tests

func (s *ManagerSuite) TestGet() {
	state := s.createPairs("getme")

	got, err := s.manager.Get(s.ctx, state.ID)
	s.Require().NoError(err)
	s.Equal(state, got)

	_, err = s.manager.Get(s.ctx, "nope")
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *ManagerSuite) TestListOrderedByCreation() {
	s.createPairs("later")
	s.clock.Advance(time.Minute)
	s.createPairs("aaa")

	states := s.manager.List(s.ctx)
	s.Require().Len(states, 2)
	s.Equal(model.BoardID("later"), states[0].ID)
	s.Equal(model.BoardID("aaa"), states[1].ID)
}

func (s *ManagerSuite) TestDelete() {
	state := s.createPairs("bye")

	s.Require().NoError(s.manager.Delete(s.ctx, state.ID))

	_, err := s.manager.Get(s.ctx, state.ID)
	s.ErrorIs(err, model.ErrBoardNotFound)
	s.ErrorIs(s.manager.Delete(s.ctx, state.ID), model.ErrBoardNotFound)
	s.Equal([]model.BoardID{"bye"}, s.publisher.closed)
}

func (s *ManagerSuite) TestCloseTearsDownEveryBoard() {
	s.createPairs("one")
	s.createPairs("two")

	s.manager.Close()

	s.Zero(s.manager.Count())
	s.ElementsMatch([]model.BoardID{"one", "two"}, s.publisher.closed)
}

func (s *ManagerSuite) TestWorksWithoutPublisher() {
	m := NewManager(s.levels, nil, s.clock, s.random, DefaultConfig(), testutil.NopLogger())
	s.random.QueueString("quiet")

	state, err := m.Create(s.ctx, CreateParams{Level: "pairs"})
	s.Require().NoError(err)
	_, err = m.Shuffle(s.ctx, state.ID)
	s.Require().NoError(err)
	s.Require().NoError(m.Delete(s.ctx, state.ID))
}
