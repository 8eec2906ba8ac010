package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bidon15/vrfdeploy"
	"github.com/Bidon15/vrfdeploy/internal/arguments"
	"github.com/Bidon15/vrfdeploy/internal/config"
	"github.com/Bidon15/vrfdeploy/internal/contract"
	"github.com/Bidon15/vrfdeploy/internal/metrics"
)

const (
	testCoordinator = "0x8103B0A8A00be2DDC778e6e7eaa21791Cd364625"
	testKeyHash     = "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"

	consumerABI = `[{"type":"constructor","inputs":[
		{"name":"vrfCoordinatorV2","type":"address"},
		{"name":"subId","type":"uint64"},
		{"name":"keyHash","type":"bytes32"},
		{"name":"callbackGasLimit","type":"uint32"}]}]`
)

var (
	testSigner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testDeployed = &vrfdeploy.DeployedContract{
		Address:     common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		TxHash:      common.HexToHash("0x01"),
		BlockNumber: 7,
		GasUsed:     90_000,
		Deployer:    testSigner,
		ChainID:     1337,
	}
)

// fakeDeployer records the call and returns a canned outcome.
type fakeDeployer struct {
	calls   atomic.Int32
	gotArgs []any
	result  *vrfdeploy.DeployedContract
	err     error
	// argsOnDisk captures whether arguments.js existed when Deploy ran.
	argsPath   string
	argsOnDisk bool
	block      bool
}

func (f *fakeDeployer) Deploy(ctx context.Context, _ *contract.Template, args []any) (*vrfdeploy.DeployedContract, error) {
	f.calls.Add(1)
	f.gotArgs = args
	if f.argsPath != "" {
		_, err := os.Stat(f.argsPath)
		f.argsOnDisk = err == nil
	}
	if f.block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: wait for receipt: %w", vrfdeploy.ErrNetwork, ctx.Err())
	}
	return f.result, f.err
}

func params() map[string]string {
	return map[string]string{
		config.KeyCoordinatorAddress: testCoordinator,
		config.KeySubscriptionID:     "42",
		config.KeyKeyHash:            testKeyHash,
	}
}

func newTemplate(t *testing.T) *contract.Template {
	t.Helper()
	tmpl, err := contract.New("OnePieceMint", consumerABI, hexutil.MustDecode("0x6000"))
	require.NoError(t, err)
	return tmpl
}

func baseConfig(t *testing.T, d *fakeDeployer) (Config, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	path := filepath.Join(t.TempDir(), "arguments.js")
	d.argsPath = path
	return Config{
		Logger:        slog.New(slog.NewJSONHandler(&logs, nil)),
		Parameters:    config.FromMap(params()),
		ArgumentsPath: path,
		Template:      newTemplate(t),
		Signer:        testSigner,
		Deployer:      d,
	}, &logs
}

func logMessages(t *testing.T, logs *bytes.Buffer) []string {
	t.Helper()
	var msgs []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		msgs = append(msgs, rec["msg"].(string))
	}
	return msgs
}

func TestRun_Success(t *testing.T) {
	d := &fakeDeployer{result: testDeployed}
	cfg, logs := baseConfig(t, d)

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	want := []any{testCoordinator, "42", testKeyHash, uint64(2_000_000)}
	assert.Equal(t, want, d.gotArgs)
	assert.Equal(t, want, res.Arguments)
	assert.True(t, d.argsOnDisk, "arguments are written before deploying")

	loaded, err := arguments.Load(cfg.ArgumentsPath)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	assert.Equal(t, testDeployed, res.Contract)
	assert.Equal(t, testSigner, res.Signer)
	assert.Equal(t, cfg.ArgumentsPath, res.ArgumentsPath)
	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)

	msgs := logMessages(t, logs)
	assert.Equal(t, []string{
		"constructor arguments written",
		"deploying contracts with the account",
		"contract deployed",
	}, msgs)
	assert.Contains(t, logs.String(), testSigner.Hex())
	assert.Contains(t, logs.String(), testDeployed.Address.Hex())
}

func TestRun_ConfigErrorsWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]string)
		wantErr error
	}{
		{"missing address", func(m map[string]string) { delete(m, config.KeyCoordinatorAddress) }, vrfdeploy.ErrMissingConfig},
		{"missing subscription", func(m map[string]string) { delete(m, config.KeySubscriptionID) }, vrfdeploy.ErrMissingConfig},
		{"missing key hash", func(m map[string]string) { m[config.KeyKeyHash] = "  " }, vrfdeploy.ErrMissingConfig},
		{"bad key hash", func(m map[string]string) { m[config.KeyKeyHash] = "0x1234" }, vrfdeploy.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDeployer{result: testDeployed}
			cfg, _ := baseConfig(t, d)
			values := params()
			tt.mutate(values)
			cfg.Parameters = config.FromMap(values)

			_, err := Run(context.Background(), cfg)
			require.ErrorIs(t, err, tt.wantErr)
			assert.NoFileExists(t, cfg.ArgumentsPath)
			assert.Zero(t, d.calls.Load())
		})
	}
}

func TestRun_DeployFailureKeepsArguments(t *testing.T) {
	d := &fakeDeployer{err: fmt.Errorf("%w: tx 0x01", vrfdeploy.ErrDeploymentReverted)}
	cfg, logs := baseConfig(t, d)

	_, err := Run(context.Background(), cfg)
	require.ErrorIs(t, err, vrfdeploy.ErrDeploymentReverted)
	assert.FileExists(t, cfg.ArgumentsPath)
	assert.Contains(t, logMessages(t, logs), "deployment failed")
	assert.NotContains(t, logMessages(t, logs), "contract deployed")
}

func TestRun_PersistErrorStopsBeforeDeploy(t *testing.T) {
	d := &fakeDeployer{result: testDeployed}
	cfg, _ := baseConfig(t, d)
	cfg.ArgumentsPath = filepath.Join(t.TempDir(), "missing-dir", "arguments.js")

	_, err := Run(context.Background(), cfg)
	require.ErrorIs(t, err, vrfdeploy.ErrPersist)
	assert.Zero(t, d.calls.Load())
}

func TestRun_ArtifactErrorAfterArgumentsWritten(t *testing.T) {
	d := &fakeDeployer{result: testDeployed}
	cfg, _ := baseConfig(t, d)
	cfg.Template = nil
	cfg.ContractArtifact = filepath.Join(t.TempDir(), "missing.json")

	_, err := Run(context.Background(), cfg)
	require.ErrorIs(t, err, vrfdeploy.ErrArtifact)
	assert.FileExists(t, cfg.ArgumentsPath)
	assert.Zero(t, d.calls.Load())
}

func TestRun_WriteArgsAfterConfirm(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		d := &fakeDeployer{result: testDeployed}
		cfg, _ := baseConfig(t, d)
		cfg.WriteArgsAfterConfirm = true

		_, err := Run(context.Background(), cfg)
		require.NoError(t, err)
		assert.False(t, d.argsOnDisk)
		assert.FileExists(t, cfg.ArgumentsPath)
	})

	t.Run("failure", func(t *testing.T) {
		d := &fakeDeployer{err: vrfdeploy.ErrNetwork}
		cfg, _ := baseConfig(t, d)
		cfg.WriteArgsAfterConfirm = true

		_, err := Run(context.Background(), cfg)
		require.ErrorIs(t, err, vrfdeploy.ErrNetwork)
		assert.NoFileExists(t, cfg.ArgumentsPath)
	})
}

func TestRun_Timeout(t *testing.T) {
	d := &fakeDeployer{block: true}
	cfg, _ := baseConfig(t, d)
	cfg.Timeout = 50 * time.Millisecond

	_, err := Run(context.Background(), cfg)
	require.ErrorIs(t, err, vrfdeploy.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.FileExists(t, cfg.ArgumentsPath)
}

func TestRun_Metrics(t *testing.T) {
	var pushes atomic.Int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	d := &fakeDeployer{result: testDeployed}
	cfg, _ := baseConfig(t, d)
	cfg.Metrics = metrics.New()
	cfg.PushgatewayURL = gateway.URL

	_, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(cfg.Metrics.Success))
	assert.Equal(t, float64(testDeployed.GasUsed), testutil.ToFloat64(cfg.Metrics.GasUsed))
	assert.Equal(t, int32(1), pushes.Load())
}

func TestRun_MetricsPushFailureIsNotFatal(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer gateway.Close()

	d := &fakeDeployer{result: testDeployed}
	cfg, logs := baseConfig(t, d)
	cfg.Metrics = metrics.New()
	cfg.PushgatewayURL = gateway.URL

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, res.Contract)
	assert.Contains(t, logMessages(t, logs), "failed to push metrics")
}

func TestRun_MetricsRecordFailure(t *testing.T) {
	d := &fakeDeployer{err: vrfdeploy.ErrInsufficientFunds}
	cfg, _ := baseConfig(t, d)
	cfg.Metrics = metrics.New()

	_, err := Run(context.Background(), cfg)
	require.ErrorIs(t, err, vrfdeploy.ErrInsufficientFunds)
	assert.Equal(t, 0.0, testutil.ToFloat64(cfg.Metrics.Success))
}

func TestFromConfig_SettingsErrors(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		wantErr error
	}{
		{"no rpc url", map[string]string{config.KeyPrivateKey: "0x01"}, vrfdeploy.ErrMissingConfig},
		{"no signer", map[string]string{config.KeyRPCURL: "http://127.0.0.1:8545"}, vrfdeploy.ErrMissingConfig},
		{"bad key", map[string]string{config.KeyRPCURL: "http://127.0.0.1:8545", config.KeyPrivateKey: "0xnope"}, vrfdeploy.ErrInvalidParameter},
		{"bad rpc scheme", map[string]string{
			config.KeyRPCURL:     "ftp://127.0.0.1",
			config.KeyPrivateKey: "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
		}, vrfdeploy.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FromConfig(context.Background(), config.FromMap(tt.values), slog.Default())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFromConfig_Wires(t *testing.T) {
	values := params()
	values[config.KeyRPCURL] = "http://127.0.0.1:8545"
	values[config.KeyPrivateKey] = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	values[config.KeyArgumentsPath] = "out/arguments.js"
	values[config.KeyDeployTimeout] = "2m"
	values[config.KeyWriteArgsAfterConfirm] = "true"

	cfg, closeFn, err := FromConfig(context.Background(), config.FromMap(values), slog.Default())
	require.NoError(t, err)
	defer closeFn()

	assert.Equal(t, common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"), cfg.Signer)
	assert.Equal(t, "out/arguments.js", cfg.ArgumentsPath)
	assert.Equal(t, vrfdeploy.DefaultContractArtifact, cfg.ContractArtifact)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.True(t, cfg.WriteArgsAfterConfirm)
	assert.NotNil(t, cfg.Deployer)
	assert.NotNil(t, cfg.Metrics)
}
