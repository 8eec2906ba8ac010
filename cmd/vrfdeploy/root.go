package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Bidon15/vrfdeploy/internal/config"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Global flag variables
var (
	cfgFile          string
	envFiles         []string
	rpcURL           string
	chainID          string
	argumentsPath    string
	contractArtifact string
	pushgatewayURL   string
	logLevel         string
	logFormat        string
	outputFormat     string
	verbose          bool
)

// rootCmd is the base command. Without a subcommand it deploys.
var rootCmd *cobra.Command

var versionCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "vrfdeploy",
		Short: "Deploy a Chainlink VRF v2 consumer contract",
		Long: `vrfdeploy deploys a VRF v2 consumer contract with the constructor

  constructor(address vrfCoordinatorV2, uint64 subId, bytes32 keyHash, uint32 callbackGasLimit)

writes the constructor arguments to arguments.js for block explorer
verification, and prints the deployed address.

Constructor parameters come from the environment (or a .env file):
  VRF_ADDRESS   VRF coordinator address
  SUB_ID        VRF subscription ID
  KEY_HASH      gas lane key hash
The callback gas limit is fixed at 2000000.

Network and signer:
  RPC_URL                                 JSON-RPC endpoint (required)
  PRIVATE_KEY                             deployer key, or
  POPSIGNER_RPC_URL + POPSIGNER_API_KEY + DEPLOYER_ADDRESS for remote signing

Configuration (in order of priority):
  1. Command-line flags
  2. Environment variables and .env files
  3. Config file (--config)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runDeploy,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the version, commit hash, and build date of vrfdeploy",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "vrfdeploy %s\n", Version)
			if verbose {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", Commit)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", BuildDate)
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	pf.StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load (default .env)")
	pf.StringVar(&rpcURL, "rpc-url", "", "JSON-RPC endpoint (or RPC_URL env)")
	pf.StringVar(&chainID, "chain-id", "", "expected chain ID, 0 to accept any (or CHAIN_ID env)")
	pf.StringVar(&argumentsPath, "arguments-path", "", "arguments module path (or ARGUMENTS_PATH env)")
	pf.StringVar(&contractArtifact, "contract-artifact", "", "Hardhat or Foundry artifact JSON (or CONTRACT_ARTIFACT env)")
	pf.StringVar(&pushgatewayURL, "pushgateway-url", "", "Prometheus Pushgateway URL (or PUSHGATEWAY_URL env)")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (or LOG_LEVEL env)")
	pf.StringVar(&logFormat, "log-format", "", "text or json (or LOG_FORMAT env)")
	pf.StringVarP(&outputFormat, "output", "o", "json", "report format: json, yaml or text")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd, newDeployCmd(), newArgsCmd())
}

// ExecuteWithArgs runs the root command with the provided arguments (for testing)
func ExecuteWithArgs(args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// SetOutput sets the output writers for the root command (for testing)
func SetOutput(stdout, stderr io.Writer) {
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
}

// ResetFlags resets all global flags to their defaults (for testing)
func ResetFlags() {
	cfgFile = ""
	envFiles = nil
	rpcURL = ""
	chainID = ""
	argumentsPath = ""
	contractArtifact = ""
	pushgatewayURL = ""
	logLevel = ""
	logFormat = ""
	outputFormat = "json"
	verbose = false
	encodeArgs = false
}

// loadConfig resolves configuration with flag values as overrides.
func loadConfig() (*config.Config, error) {
	return config.Load(config.LoadOptions{
		ConfigFile: cfgFile,
		EnvFiles:   envFiles,
		Overrides: map[string]string{
			config.KeyRPCURL:           rpcURL,
			config.KeyChainID:          chainID,
			config.KeyArgumentsPath:    argumentsPath,
			config.KeyContractArtifact: contractArtifact,
			config.KeyPushgatewayURL:   pushgatewayURL,
			config.KeyLogLevel:         logLevel,
			config.KeyLogFormat:        logFormat,
		},
	})
}
