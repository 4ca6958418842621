package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klayr-reg/config"
	"github.com/Klingon-tech/klayr-reg/internal/keystore"
	klog "github.com/Klingon-tech/klayr-reg/internal/log"
	"github.com/Klingon-tech/klayr-reg/internal/registration"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "klayr-reg",
		Short:         "CLI for Klayr cross-chain registration",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), cmd.OutOrStdout())
		},
	}
	config.AddFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, p *prompter, out io.Writer) error {
	settings, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := klog.Init(settings.Log.LevelOrVerbose(), settings.Log.JSON, settings.Log.File); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	if err := p.fill(settings); err != nil {
		return err
	}
	config.ApplyDefaults(settings)
	if err := config.Validate(settings); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	klog.CLI.Debug().Interface("options", settings.Redacted()).Msg("Options used for run")

	ks, err := keystore.Load(settings.Keys, []byte(settings.KeysPassword))
	if err != nil {
		return err
	}

	regCfg, err := settings.Registration()
	if err != nil {
		return err
	}

	results, err := registration.NewOrchestrator(regCfg, ks).Run(ctx)
	for _, r := range results {
		if r.Succeeded() {
			fmt.Fprintln(out, completionLine(r))
		}
	}
	return err
}

func completionLine(r registration.Result) string {
	switch r.Flow {
	case registration.FlowRegisterSidechain:
		return fmt.Sprintf("Sidechain registration completed! tx %s", r.TransactionID)
	case registration.FlowRegisterMainchain:
		return fmt.Sprintf("Mainchain registration completed! tx %s", r.TransactionID)
	default:
		return r.String()
	}
}
