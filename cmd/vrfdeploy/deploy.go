package main

import (
	"github.com/spf13/cobra"

	"github.com/Bidon15/vrfdeploy/internal/config"
	"github.com/Bidon15/vrfdeploy/internal/orchestrator"
)

// runConfig resolves a run from configuration. Tests replace it.
var runConfig = orchestrator.FromConfig

func newDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the contract (default action)",
		Long: `Build the constructor arguments from VRF_ADDRESS, SUB_ID and KEY_HASH,
write them to arguments.js, deploy the contract and print a report.

The arguments file is written before the transaction is sent unless
WRITE_ARGS_AFTER_CONFIRM=true, and is left in place if deployment fails.`,
		Args: cobra.NoArgs,
		RunE: runDeploy,
	}
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	if err := checkOutputFormat(outputFormat); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cmd.ErrOrStderr(), cfg.String(config.KeyLogLevel), cfg.String(config.KeyLogFormat))

	ctx := cmd.Context()
	runCfg, closeClient, err := runConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient()

	res, err := orchestrator.Run(ctx, runCfg)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), outputFormat, res)
}
