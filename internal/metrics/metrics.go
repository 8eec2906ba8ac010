// Package metrics records the outcome of one deployment run and pushes it to
// a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Bidon15/vrfdeploy"
)

// JobName is the Pushgateway job label.
const JobName = "vrfdeploy"

// Recorder holds the gauges of a single run in its own registry, so
// repeated runs in one process do not collide.
type Recorder struct {
	registry *prometheus.Registry

	Success     prometheus.Gauge
	Duration    prometheus.Gauge
	GasUsed     prometheus.Gauge
	LastSuccess prometheus.Gauge
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		Success: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vrfdeploy_deploy_success",
			Help: "1 if the last deployment run succeeded, 0 otherwise",
		}),
		Duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vrfdeploy_deploy_duration_seconds",
			Help: "Wall time of the last deployment run",
		}),
		GasUsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vrfdeploy_deploy_gas_used",
			Help: "Gas used by the last successful deployment transaction",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vrfdeploy_last_success_timestamp_seconds",
			Help: "Unix time of the last successful deployment",
		}),
	}
}

// Registry returns the registry holding the run's metrics.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Observe records the outcome of a run.
func (r *Recorder) Observe(elapsed time.Duration, deployed *vrfdeploy.DeployedContract, err error) {
	r.Duration.Set(elapsed.Seconds())
	if err != nil || deployed == nil {
		r.Success.Set(0)
		return
	}
	r.Success.Set(1)
	r.GasUsed.Set(float64(deployed.GasUsed))
	r.LastSuccess.SetToCurrentTime()
}

// Push replaces the job's metrics on the Pushgateway at url.
func (r *Recorder) Push(ctx context.Context, url string) error {
	if err := push.New(url, JobName).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
