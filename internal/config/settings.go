package config

import (
	"fmt"
	"time"

	"github.com/Bidon15/vrfdeploy"
)

// SignerSettings selects how the deployment transaction is signed. When
// POPSignerRPCURL is set signing is remote, otherwise PrivateKey is used.
type SignerSettings struct {
	PrivateKey      string
	POPSignerRPCURL string
	POPSignerAPIKey string
	DeployerAddress string
}

// Remote reports whether a POPSigner endpoint is configured.
func (s SignerSettings) Remote() bool {
	return s.POPSignerRPCURL != ""
}

// Settings are the runtime settings other than the constructor parameters.
type Settings struct {
	RPCURL                string
	ChainID               int64 // 0 means "accept whatever the node reports"
	Signer                SignerSettings
	ContractArtifact      string
	ArgumentsPath         string
	DeployTimeout         time.Duration
	WriteArgsAfterConfirm bool
	PushgatewayURL        string
	LogLevel              string
	LogFormat             string
}

// Settings resolves and checks runtime settings.
func (c *Config) Settings() (*Settings, error) {
	rpcURL, err := c.Require(KeyRPCURL)
	if err != nil {
		return nil, err
	}

	chainID, err := c.Int64(KeyChainID)
	if err != nil {
		return nil, err
	}
	if chainID < 0 {
		return nil, fmt.Errorf("%w: %s must be positive", vrfdeploy.ErrInvalidParameter, vrfdeploy.EnvChainID)
	}

	timeout, err := c.Duration(KeyDeployTimeout)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = vrfdeploy.DefaultDeployTimeout
	}

	after, err := c.Bool(KeyWriteArgsAfterConfirm)
	if err != nil {
		return nil, err
	}

	s := &Settings{
		RPCURL:  rpcURL,
		ChainID: chainID,
		Signer: SignerSettings{
			PrivateKey:      c.String(KeyPrivateKey),
			POPSignerRPCURL: c.String(KeyPOPSignerRPCURL),
			POPSignerAPIKey: c.String(KeyPOPSignerAPIKey),
			DeployerAddress: c.String(KeyDeployerAddress),
		},
		ContractArtifact:      c.String(KeyContractArtifact),
		ArgumentsPath:         c.String(KeyArgumentsPath),
		DeployTimeout:         timeout,
		WriteArgsAfterConfirm: after,
		PushgatewayURL:        c.String(KeyPushgatewayURL),
		LogLevel:              c.String(KeyLogLevel),
		LogFormat:             c.String(KeyLogFormat),
	}

	if s.ContractArtifact == "" {
		s.ContractArtifact = vrfdeploy.DefaultContractArtifact
	}
	if s.ArgumentsPath == "" {
		s.ArgumentsPath = vrfdeploy.DefaultArgumentsPath
	}

	if s.Signer.Remote() {
		if s.Signer.POPSignerAPIKey == "" {
			return nil, fmt.Errorf("%w: %s is not set", vrfdeploy.ErrMissingConfig, vrfdeploy.EnvPOPSignerAPIKey)
		}
		if s.Signer.DeployerAddress == "" {
			return nil, fmt.Errorf("%w: %s is not set", vrfdeploy.ErrMissingConfig, vrfdeploy.EnvDeployerAddress)
		}
	} else if s.Signer.PrivateKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", vrfdeploy.ErrMissingConfig, vrfdeploy.EnvPrivateKey)
	}

	return s, nil
}
