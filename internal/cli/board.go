package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Board commands",
	}

	cmd.AddCommand(newBoardCreateCmd())
	cmd.AddCommand(newBoardGetCmd())
	cmd.AddCommand(newBoardListCmd())
	cmd.AddCommand(newBoardTapCmd())
	cmd.AddCommand(newBoardShuffleCmd())
	cmd.AddCommand(newBoardDeleteCmd())

	return cmd
}

func boardPath(id string, suffix string) string {
	return "/api/v1/boards/" + url.PathEscape(id) + suffix
}

func newBoardCreateCmd() *cobra.Command {
	var (
		level  string
		rows   int
		cols   int
		colors int
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new board",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{}
			if level != "" {
				body["level"] = level
			}
			if rows > 0 {
				body["rows"] = rows
			}
			if cols > 0 {
				body["cols"] = cols
			}
			if colors > 0 {
				body["colors"] = colors
			}
			if cmd.Flags().Changed("seed") {
				body["seed"] = seed
			}

			var result Board
			if err := client.Post(cmd.Context(), "/api/v1/boards", body, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Level name (default level if empty)")
	cmd.Flags().IntVar(&rows, "rows", 0, "Override the level's row count")
	cmd.Flags().IntVar(&cols, "cols", 0, "Override the level's column count")
	cmd.Flags().IntVar(&colors, "colors", 0, "Override the level's color count")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible colors and shuffles")

	return cmd
}

func newBoardGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Board
			if err := client.Get(cmd.Context(), boardPath(args[0], ""), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newBoardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BoardList
			if err := client.Get(cmd.Context(), "/api/v1/boards", &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newBoardTapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tap <id> <row> <col>",
		Short: "Tap a cell to clear its group",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid row: %s", args[1])
			}
			col, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid col: %s", args[2])
			}

			var result TapResult
			body := map[string]int{"row": row, "col": col}
			if err := client.Post(cmd.Context(), boardPath(args[0], "/tap"), body, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newBoardShuffleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle <id>",
		Short: "Shuffle a board's blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ShuffleResult
			if err := client.Post(cmd.Context(), boardPath(args[0], "/shuffle"), nil, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newBoardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Tear a board down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), boardPath(args[0], "")); err != nil {
				return err
			}

			outputFor(cmd).PrintMessage(fmt.Sprintf("Deleted board %s", args[0]))
			return nil
		},
	}
}
