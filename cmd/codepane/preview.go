package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/codepane/internal/filewatch"
	"pkt.systems/codepane/internal/jsrun"
	"pkt.systems/codepane/preview"
	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

type previewOptions struct {
	language string
	mode     string
	output   string
	watch    bool
	run      bool
}

func newPreviewCmd() *cobra.Command {
	var opts previewOptions
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Compose the preview document for a snippet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			render := func(ctx context.Context) error {
				return renderPreviewFile(ctx, cmd.OutOrStdout(), path, opts)
			}
			if err := render(cmd.Context()); err != nil && !opts.watch {
				return err
			} else if err != nil {
				pslog.Ctx(cmd.Context()).Warn("preview render failed", "path", path, "err", err)
			}
			if !opts.watch {
				return nil
			}
			pslog.Ctx(cmd.Context()).Info("preview watch start", "path", path)
			err := filewatch.Watch(cmd.Context(), path, filewatch.DefaultSettle, func() {
				if err := render(cmd.Context()); err != nil {
					pslog.Ctx(cmd.Context()).Warn("preview render failed", "path", path, "err", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "language tag; defaults to the file extension")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "preview mode override (markdown, json, html)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the document to a file instead of stdout")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the file changes")
	cmd.Flags().BoolVar(&opts.run, "run", false, "run the document's scripts headlessly and report console output and element text")
	return cmd
}

func renderPreviewFile(ctx context.Context, stdout io.Writer, path string, opts previewOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lang, err := previewLanguage(path, opts.language)
	if err != nil {
		return err
	}
	var mode schema.PreviewMode
	if opts.mode != "" {
		mode, err = schema.ParsePreviewMode(opts.mode)
		if err != nil {
			return fmt.Errorf("mode %q: %w", opts.mode, err)
		}
	}
	bundle := preview.BundleForTab(schema.Tab{Name: schema.TabName(filepath.Base(path)), Language: lang, Content: string(data)})
	if mode != "" && !preview.ModeAvailable(bundle, mode) {
		return fmt.Errorf("mode %q: %w", mode, schema.ErrModeUnavailable)
	}
	result := preview.Compose(ctx, bundle, mode)
	log := pslog.Ctx(ctx).With("path", path, "mode", result.Mode)
	if result.Empty {
		log.Info("preview empty")
		return nil
	}

	if opts.run {
		return reportRun(ctx, stdout, result.Document)
	}
	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(result.Document), 0o644); err != nil {
			return err
		}
		log.Info("preview wrote", "output", opts.output, "bytes", len(result.Document))
		return nil
	}
	_, err = io.WriteString(stdout, result.Document)
	return err
}

func previewLanguage(path, override string) (schema.Language, error) {
	if strings.TrimSpace(override) != "" {
		return schema.ParseLanguage(override)
	}
	if lang, ok := schema.LanguageForExtension(filepath.Ext(path)); ok {
		return lang, nil
	}
	return "", fmt.Errorf("%s: %w; pass --language", filepath.Ext(path), schema.ErrUnknownLanguage)
}

func reportRun(ctx context.Context, w io.Writer, document string) error {
	result, err := jsrun.Run(ctx, document)
	if err != nil {
		return err
	}
	for _, entry := range result.Console {
		_, _ = fmt.Fprintf(w, "console.%s: %s\n", entry.Level, entry.Message)
	}
	for _, err := range result.Uncaught {
		_, _ = fmt.Fprintf(w, "uncaught: %v\n", err)
	}
	ids := make([]string, 0, len(result.Elements))
	for id := range result.Elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		_, _ = fmt.Fprintf(w, "#%s: %s\n", id, result.Elements[id])
	}
	return nil
}
