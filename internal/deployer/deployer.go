// Package deployer submits a contract creation transaction and waits for it
// to be mined.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Bidon15/vrfdeploy"
	"github.com/Bidon15/vrfdeploy/internal/contract"
	"github.com/Bidon15/vrfdeploy/internal/signer"
)

// Backend is the chain access a deployment needs. *ethclient.Client and the
// go-ethereum simulated backend client both satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", vrfdeploy.ErrNetwork, rpcURL, err)
	}
	return client, nil
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithExpectedChainID makes Deploy refuse to run against any other chain.
// Zero disables the check.
func WithExpectedChainID(id int64) Option {
	return func(d *Deployer) { d.expectedChainID = id }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Deployer) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithGasLimit fixes the transaction gas limit instead of asking the node
// for an estimate.
func WithGasLimit(gas uint64) Option {
	return func(d *Deployer) { d.gasLimit = gas }
}

// Deployer deploys a single contract per Deploy call. It does not retry.
type Deployer struct {
	backend         Backend
	signer          signer.Provider
	logger          *slog.Logger
	expectedChainID int64
	gasLimit        uint64
}

// New creates a deployer that sends from signer's account through backend.
func New(backend Backend, s signer.Provider, opts ...Option) *Deployer {
	d := &Deployer{
		backend: backend,
		signer:  s,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deploy creates tmpl with the positional constructor args and blocks until
// the creation transaction is mined or ctx is done. A mined but reverted
// transaction is reported as ErrDeploymentReverted.
func (d *Deployer) Deploy(ctx context.Context, tmpl *contract.Template, args []any) (*vrfdeploy.DeployedContract, error) {
	chainID, err := d.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get chain ID: %w", vrfdeploy.ErrNetwork, err)
	}
	if d.expectedChainID != 0 && chainID.Cmp(big.NewInt(d.expectedChainID)) != 0 {
		return nil, fmt.Errorf("%w: chain ID mismatch: expected %d, got %s",
			vrfdeploy.ErrNetwork, d.expectedChainID, chainID)
	}

	from := d.signer.Address()
	balance, err := d.backend.BalanceAt(ctx, from, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: get balance: %w", vrfdeploy.ErrNetwork, err)
	}

	d.logger.Info("deploying contract",
		slog.String("contract", tmpl.Name()),
		slog.String("deployer", from.Hex()),
		slog.String("chain_id", chainID.String()),
		slog.String("balance_wei", balance.String()),
	)

	if balance.Sign() == 0 {
		return nil, fmt.Errorf("%w: %s has no balance on chain %s", vrfdeploy.ErrInsufficientFunds, from.Hex(), chainID)
	}

	typed, err := tmpl.ConstructorArgs(args)
	if err != nil {
		return nil, err
	}

	opts, err := d.signer.TransactOpts(ctx, chainID)
	if err != nil {
		return nil, err
	}
	opts.GasLimit = d.gasLimit

	predicted, tx, _, err := bind.DeployContract(opts, tmpl.ABI(), tmpl.Bytecode(), d.backend, typed...)
	if err != nil {
		return nil, classifySendError(err)
	}

	d.logger.Info("transaction submitted, waiting for confirmation",
		slog.String("tx_hash", tx.Hash().Hex()),
		slog.Uint64("nonce", tx.Nonce()),
		slog.Uint64("gas_limit", tx.Gas()),
		slog.String("predicted_address", predicted.Hex()),
	)

	receipt, err := bind.WaitMined(ctx, d.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: wait for receipt of %s: %w", vrfdeploy.ErrNetwork, tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s in block %d", vrfdeploy.ErrDeploymentReverted, tx.Hash().Hex(), receipt.BlockNumber.Uint64())
	}

	if receipt.ContractAddress != predicted {
		return nil, fmt.Errorf("%w: receipt reports contract at %s, expected %s",
			vrfdeploy.ErrNetwork, receipt.ContractAddress.Hex(), predicted.Hex())
	}

	d.logger.Info("transaction confirmed",
		slog.Uint64("block_number", receipt.BlockNumber.Uint64()),
		slog.Uint64("gas_used", receipt.GasUsed),
	)

	return &vrfdeploy.DeployedContract{
		Address:     receipt.ContractAddress,
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Deployer:    from,
		ChainID:     chainID.Uint64(),
	}, nil
}

// classifySendError maps a failed estimate/sign/send to a sentinel. Node
// errors arrive as strings over JSON-RPC, so funding problems are matched by
// message.
func classifySendError(err error) error {
	switch {
	case errors.Is(err, vrfdeploy.ErrSigning):
		return err
	case strings.Contains(strings.ToLower(err.Error()), "insufficient funds"):
		return fmt.Errorf("%w: %w", vrfdeploy.ErrInsufficientFunds, err)
	default:
		return fmt.Errorf("%w: send deployment: %w", vrfdeploy.ErrNetwork, err)
	}
}
