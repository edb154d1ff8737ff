package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/blockmatch/internal/services/levels"
)

func newLevelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "level",
		Short: "Level library commands",
	}

	cmd.AddCommand(newLevelListCmd())
	cmd.AddCommand(newLevelGetCmd())
	cmd.AddCommand(newLevelPutCmd())
	cmd.AddCommand(newLevelDeleteCmd())

	return cmd
}

func levelPath(name string) string {
	return "/api/v1/levels/" + url.PathEscape(name)
}

func newLevelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LevelList
			if err := client.Get(cmd.Context(), "/api/v1/levels", &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newLevelGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Level
			if err := client.Get(cmd.Context(), levelPath(args[0]), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newLevelPutCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put [name] -f <file>",
		Short: "Upload a level file",
		Long: `Upload a JSON level file to the level library.

The file is validated locally before it is sent. The level is named after
the argument, the "name" field of the file, or the file's base name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read level file: %w", err)
			}

			name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			level, err := levels.Parse(data, name)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				level.Name = args[0]
			}

			var result Level
			if err := client.Put(cmd.Context(), levelPath(level.Name), level, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Level file (JSON)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newLevelDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a level from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), levelPath(args[0])); err != nil {
				return err
			}

			outputFor(cmd).PrintMessage(fmt.Sprintf("Deleted level %s", args[0]))
			return nil
		},
	}
}
