// Package orchestrator runs one deployment: build the constructor arguments,
// persist them, deploy the contract and report the result.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/Bidon15/vrfdeploy"
	"github.com/Bidon15/vrfdeploy/internal/arguments"
	"github.com/Bidon15/vrfdeploy/internal/contract"
	"github.com/Bidon15/vrfdeploy/internal/metrics"
)

// ContractDeployer deploys a contract template. *deployer.Deployer
// implements it.
type ContractDeployer interface {
	Deploy(ctx context.Context, tmpl *contract.Template, args []any) (*vrfdeploy.DeployedContract, error)
}

// Config contains everything a run needs.
type Config struct {
	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// Parameters supplies VRF_ADDRESS, SUB_ID and KEY_HASH.
	Parameters arguments.Source

	// ArgumentsPath is where arguments.js is written.
	ArgumentsPath string

	// WriteArgsAfterConfirm defers the arguments write until the deployment
	// is confirmed. By default it is written before deploying.
	WriteArgsAfterConfirm bool

	// ContractArtifact is the build artifact path. Ignored when Template is
	// set.
	ContractArtifact string
	Template         *contract.Template

	// Signer is the deployer account, reported before deploying.
	Signer common.Address

	Deployer ContractDeployer

	// Timeout bounds the whole run. Zero means no limit beyond ctx.
	Timeout time.Duration

	// Metrics, when set, records the run outcome. It is pushed to
	// PushgatewayURL if that is set too.
	Metrics        *metrics.Recorder
	PushgatewayURL string
}

// Result is the report of a successful run.
type Result struct {
	RunID          string                      `json:"run_id" yaml:"run_id"`
	Signer         common.Address              `json:"signer" yaml:"signer"`
	ArgumentsPath  string                      `json:"arguments_path" yaml:"arguments_path"`
	Arguments      []any                       `json:"arguments" yaml:"arguments"`
	Contract       *vrfdeploy.DeployedContract `json:"contract" yaml:"contract"`
	ElapsedSeconds float64                     `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// Run performs one deployment. It returns the first error encountered; the
// arguments file is not removed when a later step fails.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ArgumentsPath == "" {
		cfg.ArgumentsPath = vrfdeploy.DefaultArgumentsPath
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	logger = logger.With(slog.String("run_id", runID))
	start := time.Now()

	res := &Result{
		RunID:         runID,
		Signer:        cfg.Signer,
		ArgumentsPath: cfg.ArgumentsPath,
	}
	deployed, err := run(ctx, cfg, logger, res)
	elapsed := time.Since(start)
	res.ElapsedSeconds = elapsed.Seconds()

	if cfg.Metrics != nil {
		cfg.Metrics.Observe(elapsed, deployed, err)
		if cfg.PushgatewayURL != "" {
			// A fresh context so a timed-out run still reports its failure.
			pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if perr := cfg.Metrics.Push(pushCtx, cfg.PushgatewayURL); perr != nil {
				logger.Warn("failed to push metrics", slog.String("error", perr.Error()))
			}
			cancel()
		}
	}

	if err != nil {
		logger.Error("deployment failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed),
		)
		return nil, err
	}
	return res, nil
}

func run(ctx context.Context, cfg Config, logger *slog.Logger, res *Result) (*vrfdeploy.DeployedContract, error) {
	params, err := arguments.Build(cfg.Parameters)
	if err != nil {
		return nil, err
	}
	args := params.Ordered()
	res.Arguments = args

	if !cfg.WriteArgsAfterConfirm {
		if err := writeArguments(logger, cfg.ArgumentsPath, args); err != nil {
			return nil, err
		}
	}

	tmpl := cfg.Template
	if tmpl == nil {
		tmpl, err = contract.LoadArtifact(cfg.ContractArtifact)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("deploying contracts with the account",
		slog.String("signer", cfg.Signer.Hex()),
		slog.String("contract", tmpl.Name()),
	)

	deployed, err := cfg.Deployer.Deploy(ctx, tmpl, args)
	if err != nil {
		return nil, err
	}
	res.Contract = deployed

	if cfg.WriteArgsAfterConfirm {
		if err := writeArguments(logger, cfg.ArgumentsPath, args); err != nil {
			return deployed, err
		}
	}

	logger.Info("contract deployed",
		slog.String("address", deployed.Address.Hex()),
		slog.String("tx_hash", deployed.TxHash.Hex()),
	)
	return deployed, nil
}

func writeArguments(logger *slog.Logger, path string, args []any) error {
	if err := arguments.Write(path, args); err != nil {
		return err
	}
	logger.Info("constructor arguments written", slog.String("path", path))
	return nil
}
