// Package signer provides the account that signs the deployment transaction,
// either a local ECDSA key or a remote POPSigner endpoint.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Bidon15/vrfdeploy"
	"github.com/Bidon15/vrfdeploy/internal/config"
)

// Provider supplies the deployer account and transactors bound to it.
type Provider interface {
	// Address returns the account transactions are sent from.
	Address() common.Address
	// TransactOpts returns options that sign for chainID under ctx.
	TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// FromSettings picks the remote signer when a POPSigner endpoint is
// configured and the local key otherwise.
func FromSettings(s config.SignerSettings) (Provider, error) {
	if s.Remote() {
		if !common.IsHexAddress(s.DeployerAddress) {
			return nil, fmt.Errorf("%w: %s=%q is not an address",
				vrfdeploy.ErrInvalidParameter, vrfdeploy.EnvDeployerAddress, s.DeployerAddress)
		}
		return NewPOPSigner(s.POPSignerRPCURL, s.POPSignerAPIKey, common.HexToAddress(s.DeployerAddress)), nil
	}
	if s.PrivateKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", vrfdeploy.ErrMissingConfig, vrfdeploy.EnvPrivateKey)
	}
	return NewLocal(s.PrivateKey)
}

// Local signs with an in-process private key.
type Local struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewLocal parses a hex private key, with or without 0x prefix.
func NewLocal(hexKey string) (*Local, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		// The key itself must never end up in logs.
		return nil, fmt.Errorf("%w: %s is not a valid private key", vrfdeploy.ErrInvalidParameter, vrfdeploy.EnvPrivateKey)
	}
	return &Local{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address implements Provider.
func (l *Local) Address() common.Address { return l.addr }

// TransactOpts implements Provider.
func (l *Local) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(l.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vrfdeploy.ErrSigning, err)
	}
	opts.Context = ctx
	return opts, nil
}
