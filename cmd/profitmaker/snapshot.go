package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"profitmaker/internal/model"
	"profitmaker/internal/store"
)

func newSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the persisted snapshot document",
	}
	cmd.AddCommand(newSnapshotExportCommand())
	cmd.AddCommand(newSnapshotImportCommand())
	return cmd
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.New(newLogger(), cfg.Store.Path, model.Settings{
		TaxRatePercent:        cfg.Defaults.TaxRatePercent,
		AssumePremium:         cfg.Defaults.AssumePremium,
		UpdateIntervalMinutes: cfg.Defaults.UpdateIntervalMinutes,
	}), nil
}

func newSnapshotExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the snapshot to a file (default: dated filename)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			raw, err := st.ExportSnapshot()
			if err != nil {
				return fmt.Errorf("exporting snapshot: %w", err)
			}
			target := st.ExportFilename()
			if len(args) == 1 {
				target = args[0]
			}
			if err := os.WriteFile(target, raw, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}
			fmt.Printf("Exported snapshot to %s\n", target)
			return nil
		},
	}
}

func newSnapshotImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a previously exported snapshot over the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			if !st.ImportSnapshot(raw) {
				return fmt.Errorf("%s does not parse as a snapshot", args[0])
			}
			fmt.Printf("Imported snapshot from %s\n", args[0])
			return nil
		},
	}
}
