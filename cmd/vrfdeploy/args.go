package main

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/Bidon15/vrfdeploy/internal/arguments"
	"github.com/Bidon15/vrfdeploy/internal/config"
	"github.com/Bidon15/vrfdeploy/internal/contract"
)

var encodeArgs bool

// argsReport is the output of "args show".
type argsReport struct {
	Path      string `json:"path" yaml:"path"`
	Arguments []any  `json:"arguments" yaml:"arguments"`
	Contract  string `json:"contract,omitempty" yaml:"contract,omitempty"`
	Encoded   string `json:"encoded,omitempty" yaml:"encoded,omitempty"`
}

func newArgsCmd() *cobra.Command {
	argsCmd := &cobra.Command{
		Use:   "args",
		Short: "Inspect the recorded constructor arguments",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the arguments module written by the last deployment",
		Long: `Print the constructor arguments recorded in arguments.js.

With --encode the contract artifact is loaded and the ABI-encoded
constructor arguments are printed as well, in the form block explorers
ask for when verifying a contract.`,
		Args: cobra.NoArgs,
		RunE: runArgsShow,
	}
	showCmd.Flags().BoolVar(&encodeArgs, "encode", false, "also print the ABI-encoded constructor arguments")

	argsCmd.AddCommand(showCmd)
	return argsCmd
}

func runArgsShow(cmd *cobra.Command, _ []string) error {
	if err := checkOutputFormat(outputFormat); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := cfg.String(config.KeyArgumentsPath)
	args, err := arguments.Load(path)
	if err != nil {
		return err
	}

	report := argsReport{Path: path, Arguments: args}
	if encodeArgs {
		tmpl, err := contract.LoadArtifact(cfg.String(config.KeyContractArtifact))
		if err != nil {
			return err
		}
		packed, err := tmpl.PackConstructor(args)
		if err != nil {
			return err
		}
		report.Contract = tmpl.Name()
		report.Encoded = hexutil.Encode(packed)
	}
	return writeReport(cmd.OutOrStdout(), outputFormat, report)
}
