package signer

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/Bidon15/vrfdeploy"
)

// POPSigner signs through a POPSigner RPC gateway using eth_signTransaction.
// The private key never leaves the gateway.
type POPSigner struct {
	endpoint   string
	apiKey     string
	from       common.Address
	httpClient *http.Client
}

// NewPOPSigner creates a remote signer for the account from.
func NewPOPSigner(endpoint, apiKey string, from common.Address) *POPSigner {
	return &POPSigner{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Address implements Provider.
func (p *POPSigner) Address() common.Address { return p.from }

// TransactOpts implements Provider.
func (p *POPSigner) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	if chainID == nil {
		return nil, fmt.Errorf("%w: chain id is required", vrfdeploy.ErrSigning)
	}
	return &bind.TransactOpts{
		From:    p.from,
		Context: ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != p.from {
				return nil, fmt.Errorf("%w: not authorized to sign for %s", vrfdeploy.ErrSigning, addr.Hex())
			}
			return p.SignTransaction(ctx, chainID, tx)
		},
	}, nil
}

// SignTransaction sends tx to the gateway and returns the signed
// transaction. The gateway's signature is checked against the configured
// account.
func (p *POPSigner) SignTransaction(ctx context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	client, err := rpc.DialOptions(ctx, p.endpoint,
		rpc.WithHTTPClient(p.httpClient),
		rpc.WithHeader("X-API-Key", p.apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: dial gateway: %w", vrfdeploy.ErrSigning, err)
	}
	defer client.Close()

	var raw hexutil.Bytes
	if err := client.CallContext(ctx, &raw, "eth_signTransaction", newSignTxArgs(p.from, chainID, tx)); err != nil {
		return nil, fmt.Errorf("%w: eth_signTransaction: %w", vrfdeploy.ErrSigning, err)
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: decode signed transaction: %w", vrfdeploy.ErrSigning, err)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		return nil, fmt.Errorf("%w: recover sender: %w", vrfdeploy.ErrSigning, err)
	}
	if sender != p.from {
		return nil, fmt.Errorf("%w: gateway signed as %s, want %s", vrfdeploy.ErrSigning, sender.Hex(), p.from.Hex())
	}
	return signed, nil
}

// signTxArgs is the eth_signTransaction parameter object.
type signTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data,omitempty"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func newSignTxArgs(from common.Address, chainID *big.Int, tx *types.Transaction) signTxArgs {
	args := signTxArgs{
		From:    from,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Data:    tx.Data(),
		ChainID: (*hexutil.Big)(chainID),
	}
	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}
	return args
}
