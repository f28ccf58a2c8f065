package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/codepane/core"
	"pkt.systems/codepane/internal/appconfig"
	"pkt.systems/codepane/internal/persist"
	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

func newTabsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "Inspect and exchange the persisted tab collection",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.AddCommand(newTabsListCmd(&cfgPath))
	cmd.AddCommand(newTabsExportCmd(&cfgPath))
	cmd.AddCommand(newTabsImportCmd(&cfgPath))
	cmd.AddCommand(newTabsClearCmd(&cfgPath))
	return cmd
}

// withStore opens the configured storage, runs fn against a store over it
// and closes the storage.
func withStore(ctx context.Context, cfgPath string, fn func(*core.Store) error) error {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return err
	}
	storage := toStorageConfig(cfg)
	logger := pslog.Ctx(ctx)
	kv, closer, err := persist.Open(storage.Backend, storage.StateDir, storage.Path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warn("tabs storage close failed", "err", err)
		}
	}()
	kv, err = persist.WithEncryption(kv, storage.KeyStorePath, logger)
	if err != nil {
		return err
	}
	store := core.NewStore(ctx, schema.StoreConfig{StorageKey: cfg.Storage.Key}, core.StoreDeps{KV: kv, Logger: logger})
	return fn(store)
}

func newTabsListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted tabs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), *cfgPath, func(store *core.Store) error {
				return writeTabList(cmd.OutOrStdout(), store.ListTabs(cmd.Context()))
			})
		},
	}
}

func writeTabList(w io.Writer, state schema.TabsState) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ACTIVE\tID\tNAME\tLANGUAGE\tBYTES")
	for _, tab := range state.Tabs {
		marker := ""
		if tab.ID == state.ActiveTab {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", marker, tab.ID, tab.Name, tab.Language.Label(), len(tab.Content))
	}
	return tw.Flush()
}

func newTabsExportCmd(cfgPath *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the tab collection as a JSON array",
		Long:  "Write the tab collection as a JSON array. With --output - the snapshot goes to stdout; without --output it is written to code-editor-tabs-YYYY-MM-DD.json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), *cfgPath, func(store *core.Store) error {
				artifact, err := store.ExportSnapshot(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				if output == "-" {
					_, err := cmd.OutOrStdout().Write(append(artifact.Data, '\n'))
					return err
				}
				path := output
				if path == "" {
					path = artifact.Filename
				}
				if err := os.WriteFile(path, artifact.Data, 0o600); err != nil {
					return err
				}
				pslog.Ctx(cmd.Context()).Info("tabs export ok", "path", path, "bytes", len(artifact.Data))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout")
	return cmd
}

func newTabsImportCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the tab collection with an exported JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), *cfgPath, func(store *core.Store) error {
				resp, err := store.ImportSnapshot(cmd.Context(), data)
				if err != nil {
					return err
				}
				pslog.Ctx(cmd.Context()).Info("tabs import ok", "tabs", resp.Imported, "active", resp.ActiveTab)
				return nil
			})
		},
	}
}

func newTabsClearCmd(cfgPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every tab and the persisted snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear tabs without --yes")
			}
			return withStore(cmd.Context(), *cfgPath, func(store *core.Store) error {
				store.ClearAll(cmd.Context())
				pslog.Ctx(cmd.Context()).Info("tabs clear ok")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removal")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
