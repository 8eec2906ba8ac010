package orchestrator

import (
	"context"
	"log/slog"

	"github.com/Bidon15/vrfdeploy/internal/config"
	"github.com/Bidon15/vrfdeploy/internal/deployer"
	"github.com/Bidon15/vrfdeploy/internal/metrics"
	"github.com/Bidon15/vrfdeploy/internal/signer"
)

// FromConfig resolves settings from cfg and connects the signer and RPC
// client. The returned close func releases the RPC connection.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Config, func(), error) {
	settings, err := cfg.Settings()
	if err != nil {
		return Config{}, nil, err
	}

	provider, err := signer.FromSettings(settings.Signer)
	if err != nil {
		return Config{}, nil, err
	}

	client, err := deployer.Dial(ctx, settings.RPCURL)
	if err != nil {
		return Config{}, nil, err
	}

	d := deployer.New(client, provider,
		deployer.WithLogger(logger),
		deployer.WithExpectedChainID(settings.ChainID),
	)

	return Config{
		Logger:                logger,
		Parameters:            cfg,
		ArgumentsPath:         settings.ArgumentsPath,
		WriteArgsAfterConfirm: settings.WriteArgsAfterConfirm,
		ContractArtifact:      settings.ContractArtifact,
		Signer:                provider.Address(),
		Deployer:              d,
		Timeout:               settings.DeployTimeout,
		Metrics:               metrics.New(),
		PushgatewayURL:        settings.PushgatewayURL,
	}, client.Close, nil
}
