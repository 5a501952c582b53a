package command

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stolasapp/journal/internal/app/component"
	"github.com/stolasapp/journal/internal/content"
	"github.com/stolasapp/journal/internal/devdata"
)

func entryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Entry commands",
	}
	cmd.AddCommand(
		entryListCommand(),
		entryCreateCommand(),
		entryImportCommand(),
		entryDeleteCommand(),
		entrySeedCommand(),
	)
	return cmd
}

func entryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			_, _, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			entries, err := store.ListEntries(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				if _, err = fmt.Fprintf(out, "%d\t%s\t%s\n",
					entry.ID,
					entry.Created.Format(component.DateFormat),
					entry.Title,
				); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func entryCreateCommand() *cobra.Command {
	var title, file string
	cmd := &cobra.Command{
		Use:   "create --title TITLE [--file FILE]",
		Short: "Create entry",
		Long: "Creates an entry from Markdown read from FILE, or from stdin if no file is\n" +
			"given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			var (
				text []byte
				err  error
			)
			if file != "" {
				text, err = os.ReadFile(file)
			} else {
				text, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read entry text: %w", err)
			}

			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			entry, err := store.CreateEntry(cmd.Context(), title, string(text))
			if err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "created entry", slog.Int64("id", entry.ID))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
			return err
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "entry title")
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the Markdown text")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func entryImportCommand() *cobra.Command {
	var title, contentType string
	cmd := &cobra.Command{
		Use:   "import --title TITLE FILE",
		Short: "Import entry",
		Long: "Creates an entry from an existing document. HTML is sanitized and converted\n" +
			"to Markdown; plain text and Markdown are stored as-is. The content type is\n" +
			"derived from the file extension unless --type is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			if contentType == "" {
				contentType = detectContentType(args[0], data)
			}
			markdown, err := content.Import(contentType, data)
			if err != nil {
				return err
			}

			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			entry, err := store.CreateEntry(cmd.Context(), title, string(bytes.TrimSpace(markdown))+"\n")
			if err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "imported entry",
				slog.Int64("id", entry.ID),
				slog.String("content_type", contentType),
			)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
			return err
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "entry title")
	cmd.Flags().StringVar(&contentType, "type", "", "content type of the document, e.g. text/html")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func entryDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete entry",
		Long:  "Permanently deletes the entry. This operation is irreversible.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q: %w", args[0], err)
			}

			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			logger = logger.With(slog.Int64("id", id))
			entry, err := store.GetEntry(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !yes {
				resp, err := prompt(cmd, fmt.Sprintf("Delete %q? [y|N] ", entry.Title), false)
				if !bytes.Equal(resp, []byte{'y'}) || err != nil {
					logger.InfoContext(cmd.Context(), "aborted entry deletion")
					return err
				}
			}
			if err = store.DeleteEntry(cmd.Context(), id); err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "entry deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func entrySeedCommand() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "seed [COUNT]",
		Short: "Create fake entries",
		Long: "Creates COUNT (default 10) entries with generated content. The seed defaults\n" +
			"to " + devdata.EnvSeed + " or a random value.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			count := 10
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid count %q", args[0])
				}
				count = n
			}
			if !cmd.Flags().Changed("seed") {
				seed = devdata.Seed()
			}

			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			ids, err := devdata.New(seed).Populate(cmd.Context(), store, count)
			if err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "seeded entries",
				slog.Int("count", len(ids)),
				slog.Uint64("seed", seed),
			)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible content")
	return cmd
}

// detectContentType maps well-known extensions, falling back to sniffing the
// document.
func detectContentType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html"
	case ".xhtml":
		return "application/xhtml+xml"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return http.DetectContentType(data)
	}
}
