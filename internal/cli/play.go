package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/blockmatch/internal/dependencies/random"
	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/services/blocks"
	"github.com/mcoot/blockmatch/internal/services/board"
	"github.com/mcoot/blockmatch/internal/services/levels"
)

// playOptions configures an offline game
type playOptions struct {
	levelFile string
	rows      int
	cols      int
	colors    int
	minMatch  int
	seed      uint64
	seeded    bool
}

func newPlayCmd() *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play [move...]",
		Short: "Play a board locally without a server",
		Long: `Run a board engine in-process and apply moves to it.

A move is "row,col" to tap a cell or "s" to shuffle. Moves are taken from
the arguments, or read one per line from stdin when none are given ("q"
quits, and a bad line is reported and skipped). The grid is printed after
every move.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seeded = cmd.Flags().Changed("seed")
			moves := args
			if len(moves) == 0 {
				moves = nil
			}
			return runPlay(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, moves)
		},
	}

	cmd.Flags().StringVar(&opts.levelFile, "level-file", "", "Level file to play (default level if empty)")
	cmd.Flags().IntVar(&opts.rows, "rows", 0, "Override the level's row count")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "Override the level's column count")
	cmd.Flags().IntVar(&opts.colors, "colors", 0, "Override the level's color count")
	cmd.Flags().IntVar(&opts.minMatch, "min-match", board.DefaultMinMatch, "Smallest group a tap clears")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed for reproducible colors and shuffles")

	return cmd
}

func playLevel(opts playOptions) (*model.Level, error) {
	level := model.DefaultLevel()
	if opts.levelFile != "" {
		loaded, err := levels.LoadFile(opts.levelFile)
		if err != nil {
			return nil, err
		}
		level = *loaded
	}
	if opts.rows > 0 || opts.cols > 0 || opts.colors > 0 {
		if level.HasLayout() && (opts.rows > 0 || opts.cols > 0) {
			return nil, fmt.Errorf("%w: cannot resize a level with a fixed layout", model.ErrInvalidLevel)
		}
		if opts.rows > 0 {
			level.Rows = opts.rows
		}
		if opts.cols > 0 {
			level.Cols = opts.cols
		}
		if opts.colors > 0 {
			level.Colors = opts.colors
		}
	}
	if err := level.Validate(); err != nil {
		return nil, err
	}
	return &level, nil
}

// runPlay drives a local engine. A nil moves slice reads moves from in.
func runPlay(ctx context.Context, in io.Reader, out, errOut io.Writer, opts playOptions, moves []string) error {
	level, err := playLevel(opts)
	if err != nil {
		return err
	}

	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: logLevel}))

	var colorRnd, shuffleRnd random.Random = random.New(), random.New()
	if opts.seeded {
		colorRnd = random.NewSeeded(opts.seed)
		shuffleRnd = random.NewSeeded(opts.seed + 1)
	}

	engineCfg := board.DefaultConfig()
	engineCfg.MinMatch = opts.minMatch
	sink := board.NewRecordingSink()
	source := blocks.NewSource(level.Colors, colorRnd, blocks.NewPool(level.Rows*level.Cols), logger)
	engine, err := board.New(*level, engineCfg, board.Dependencies{
		Source: source,
		Sink:   sink,
		Random: shuffleRnd,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if _, err := engine.EnsurePlayable(ctx); err != nil {
		return err
	}
	// The summary counts what the moves did, not the initial fill
	sink.Reset()

	output := NewOutput(cfg.Output, out)
	output.Print(boardFromState(engine.Snapshot()))

	interactive := moves == nil
	next := argMoves(moves)
	if interactive {
		next = lineMoves(in)
	}

	for {
		move, ok := next()
		if !ok || move == "q" || move == "quit" {
			break
		}
		if err := playMove(ctx, engine, output, move); err != nil {
			if !interactive {
				return err
			}
			// A bad line from the prompt should not end the game
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	}

	if cfg.Output != "json" {
		_, _ = fmt.Fprintf(out, "Removed %d blocks, spawned %d\n",
			sink.Count(model.EventBlockRemoved), sink.Count(model.EventBlockSpawned))
	}
	return nil
}

// playMove applies one tap or shuffle and prints the result
func playMove(ctx context.Context, engine *board.Engine, output *Output, move string) error {
	if move == "s" || move == "shuffle" {
		result, err := engine.Shuffle(ctx)
		if err != nil {
			return err
		}
		output.Print(ShuffleResult{
			Attempts: result.Attempts,
			Skipped:  result.Skipped,
			Playable: result.Playable,
			Board:    boardFromState(engine.Snapshot()),
		})
		return nil
	}

	pos, err := parseMove(move)
	if err != nil {
		return err
	}
	result, err := engine.Tap(ctx, pos)
	if err != nil && result.Outcome != board.OutcomeMatched {
		return err
	}
	tap := TapResult{
		Outcome: string(result.Outcome),
		Removed: result.Removed,
		Columns: result.Columns,
		Board:   boardFromState(engine.Snapshot()),
	}
	if result.Shuffle != nil {
		tap.Shuffled = true
		tap.ShuffleAttempts = result.Shuffle.Attempts
	}
	output.Print(tap)
	return err
}

func argMoves(moves []string) func() (string, bool) {
	i := 0
	return func() (string, bool) {
		if i >= len(moves) {
			return "", false
		}
		i++
		return strings.TrimSpace(moves[i-1]), true
	}
}

func lineMoves(in io.Reader) func() (string, bool) {
	scanner := bufio.NewScanner(in)
	return func() (string, bool) {
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				return line, true
			}
		}
		return "", false
	}
}

// parseMove reads "row,col" or "row col"
func parseMove(move string) (model.Position, error) {
	fields := strings.FieldsFunc(move, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 2 {
		return model.Position{}, fmt.Errorf("invalid move %q: want row,col", move)
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid row in move %q", move)
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid col in move %q", move)
	}
	return model.Position{Row: row, Col: col}, nil
}

func boardFromState(s model.BoardState) Board {
	cells := make([][]*Cell, len(s.Cells))
	for row, line := range s.Cells {
		cells[row] = make([]*Cell, len(line))
		for col, c := range line {
			if c != nil {
				cells[row][col] = &Cell{ID: uint64(c.BlockID), Color: c.Color.String(), Tier: int(c.Tier)}
			}
		}
	}
	return Board{
		ID:       "local",
		Level:    s.Level,
		Rows:     s.Rows,
		Cols:     s.Cols,
		Cells:    cells,
		Locked:   s.Locked,
		Playable: s.Playable,
	}
}
