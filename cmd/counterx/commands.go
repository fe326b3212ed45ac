package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comalice/counterx/internal/config"
	"github.com/comalice/counterx/internal/core"
	"github.com/comalice/counterx/internal/extensibility"
	"github.com/comalice/counterx/internal/primitives"
	"github.com/comalice/counterx/internal/production"
)

type cliState struct {
	configPath string
	storeDir   string
	slotName   string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	rootCmd := &cobra.Command{
		Use:           "counterx",
		Short:         "Encode, decode and apply counter instructions",
		Long:          `counterx decodes tagged binary instructions and applies them to counter slots kept in a local BadgerDB store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}
			if st.storeDir != "" {
				cfg.StoreDir = st.storeDir
			}
			st.cfg = cfg
			st.logger = cfg.NewLogger(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&st.storeDir, "store", "", "slot store directory (overrides COUNTERX_STORE_DIR)")

	encodeCmd := &cobra.Command{
		Use:   "encode <increment|decrement|update|reset> [value]",
		Short: "Prints the hex wire form of a command",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			c, err := primitives.ParseCommand(args[0], value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(c.Encode()))
			return nil
		},
	}

	decodeCmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decodes a hex instruction buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := decodeHexInstruction(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c)
			return nil
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply <hex>",
		Short: "Applies a hex instruction buffer to a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseHex(args[0])
			if err != nil {
				return err
			}
			policy, err := st.cfg.OverflowPolicy()
			if err != nil {
				return err
			}
			store, err := st.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine := core.NewEngine(core.WithOverflowPolicy(policy), core.WithLogger(st.logger))
			slot := store.Slot(st.slotName)
			var proc extensibility.Processor = engine
			if st.verbose {
				proc = extensibility.NewLoggingProcessor(engine, st.logger)
			}

			before, err := readCounter(store, st.slotName)
			if err != nil {
				return err
			}
			if err := proc.Process(cmd.Context(), slot, raw); err != nil {
				return err
			}
			after, err := readCounter(store, st.slotName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d\n", st.slotName, before, after)
			return nil
		},
	}
	applyCmd.Flags().BoolVarP(&st.verbose, "verbose", "v", false, "log each invocation")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Prints the counter held by a slot, or every slot with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			store, err := st.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			names := []string{st.slotName}
			if all {
				if names, err = store.Names(); err != nil {
					return err
				}
			}
			for _, name := range names {
				v, err := readCounter(store, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", name, v)
			}
			return nil
		},
	}
	showCmd.Flags().Bool("all", false, "list every allocated slot")

	for _, c := range []*cobra.Command{applyCmd, showCmd} {
		c.Flags().StringVar(&st.slotName, "slot", "default", "slot name")
	}

	rootCmd.AddCommand(encodeCmd, decodeCmd, applyCmd, showCmd)
	return rootCmd
}

func (st *cliState) openStore() (*production.BadgerStore, error) {
	return production.OpenBadgerStore(production.StoreConfig{
		Path:       st.cfg.StoreDir,
		SlotSize:   st.cfg.SlotSize,
		SyncWrites: true,
		Logger:     st.logger.With(slog.String("component", "badger")),
	})
}

func parseHex(s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("instruction is not hex: %w", err)
	}
	return raw, nil
}

func decodeHexInstruction(s string) (primitives.Command, error) {
	raw, err := parseHex(s)
	if err != nil {
		return primitives.Command{}, err
	}
	return primitives.DecodeCommand(raw)
}

func readCounter(store *production.BadgerStore, name string) (uint32, error) {
	raw, err := store.Read(name)
	if err != nil {
		return 0, err
	}
	rec, err := primitives.DecodeRecord(raw)
	if err != nil {
		return 0, err
	}
	return rec.Counter, nil
}
