// Package vrfdeploy holds the types shared by the VRF consumer deployment
// tool: the ordered constructor parameters, the deployment result and the
// sentinel errors every component wraps.
package vrfdeploy

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultCallbackGasLimit is the fourth constructor argument. It is fixed in
// process and cannot be configured.
const DefaultCallbackGasLimit uint32 = 2_000_000

// Defaults for optional settings.
const (
	DefaultArgumentsPath    = "./arguments.js"
	DefaultContractArtifact = "artifacts/contracts/OnePieceMint.sol/OnePieceMint.json"
	DefaultDeployTimeout    = 10 * time.Minute
)

// Environment variable names.
const (
	EnvCoordinatorAddress = "VRF_ADDRESS"
	EnvSubscriptionID     = "SUB_ID"
	EnvKeyHash            = "KEY_HASH"

	EnvRPCURL                = "RPC_URL"
	EnvChainID               = "CHAIN_ID"
	EnvPrivateKey            = "PRIVATE_KEY"
	EnvPOPSignerRPCURL       = "POPSIGNER_RPC_URL"
	EnvPOPSignerAPIKey       = "POPSIGNER_API_KEY"
	EnvDeployerAddress       = "DEPLOYER_ADDRESS"
	EnvContractArtifact      = "CONTRACT_ARTIFACT"
	EnvArgumentsPath         = "ARGUMENTS_PATH"
	EnvDeployTimeout         = "DEPLOY_TIMEOUT"
	EnvWriteArgsAfterConfirm = "WRITE_ARGS_AFTER_CONFIRM"
	EnvPushgatewayURL        = "PUSHGATEWAY_URL"
	EnvLogLevel              = "LOG_LEVEL"
	EnvLogFormat             = "LOG_FORMAT"
)

// DeploymentParameters is the constructor argument tuple of the VRF consumer:
//
//	constructor(address vrfCoordinatorV2, uint64 subId, bytes32 keyHash, uint32 callbackGasLimit)
//
// Field order is the constructor order. Reordering binds values to the wrong
// role without any on-chain error.
type DeploymentParameters struct {
	CoordinatorAddress string `json:"coordinator_address" validate:"required,eth_addr"`
	SubscriptionID     string `json:"subscription_id" validate:"required,number"`
	KeyHash            string `json:"key_hash" validate:"required,bytes32"`
	CallbackGasLimit   uint32 `json:"callback_gas_limit"`
}

// Ordered returns the parameters as the positional list passed to the
// constructor and written to the arguments artifact.
func (p DeploymentParameters) Ordered() []any {
	return []any{
		p.CoordinatorAddress,
		p.SubscriptionID,
		p.KeyHash,
		uint64(p.CallbackGasLimit),
	}
}

// DeployedContract is the result of a confirmed deployment.
type DeployedContract struct {
	Address     common.Address `json:"address" yaml:"address"`
	TxHash      common.Hash    `json:"tx_hash" yaml:"tx_hash"`
	BlockNumber uint64         `json:"block_number" yaml:"block_number"`
	GasUsed     uint64         `json:"gas_used" yaml:"gas_used"`
	Deployer    common.Address `json:"deployer" yaml:"deployer"`
	ChainID     uint64         `json:"chain_id" yaml:"chain_id"`
}
