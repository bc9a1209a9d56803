package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/format"
)

type globalOptions struct {
	jsonOutput bool
	output     string
	logLevel   string
	caller     string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "artx",
		Short:         "Artx is a content-addressed asset repository for digital art",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyGlobalOptions(cfg, opts)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "structured output format (json|yaml); implies structured output")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.caller, "as", "", "act as this agent id (default $"+callerEnvKey+")")

	cmd.AddCommand(
		newUploadCmd(cfg, opts),
		newShowCmd(cfg, opts),
		newEditCmd(cfg, opts),
		newMintCmd(cfg, opts),
		newAgentCmd(cfg, opts),
		newAgentsCmd(cfg, opts),
		newCollectionCmd(cfg, opts),
		newProfileCmd(cfg, opts),
		newVerifyCmd(cfg, opts),
		newReconcileCmd(cfg, opts),
		newConfigCmd(cfg, opts),
		newMigrateCmd(cfg, opts),
	)

	return cmd
}

func applyGlobalOptions(cfg *config.Config, opts *globalOptions) error {
	if opts.output != "" {
		formatter, err := format.ForName(opts.output)
		if err != nil {
			return err
		}
		outputFormatter = formatter
		opts.jsonOutput = true
	}

	warning, err := configureLoggerForCLI(opts.logLevel, cfg.LogLevel, opts.structured())
	if err != nil {
		return err
	}
	if warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}
	return nil
}

// structured reports whether output goes through the configured formatter.
func (o *globalOptions) structured() bool {
	return o.jsonOutput
}
