package kex

import (
	"fmt"
	"time"

	"github.com/rcrowley/go-metrics"
)

// Registry is the go-metrics registry type every instrumented call
// registers into, aliased here so callers constructing a Config don't
// need to import rcrowley/go-metrics themselves for the common case.
type Registry = metrics.Registry

// NewMetricsRegistry returns a private, unshared go-metrics registry,
// for a Worker that was not given one through Config.MetricsRegistry.
func NewMetricsRegistry() Registry {
	return metrics.NewRegistry()
}

// workerMetrics bundles the per-worker instruments registered against a
// Registry, following the teacher's own getOrRegisterHistogram /
// getOrRegisterMeter convention for naming and lazy registration.
type workerMetrics struct {
	registry Registry
	name     string

	brokerCount metrics.Gauge
}

func newWorkerMetrics(registry Registry, workerName string) *workerMetrics {
	if registry == nil {
		registry = NewMetricsRegistry()
	}
	wm := &workerMetrics{registry: registry, name: workerName}
	wm.brokerCount = metrics.GetOrRegisterGauge(wm.metricName("broker-count"), registry)
	return wm
}

func (wm *workerMetrics) metricName(suffix string) string {
	return fmt.Sprintf("kex.%s.%s", wm.name, suffix)
}

// requestHistogram returns (registering on first use) the latency
// histogram for a given api key, named after the teacher's
// "consumer-batch-size"-style dotted metric names.
func (wm *workerMetrics) requestHistogram(apiKey int16) metrics.Histogram {
	name := wm.metricName(fmt.Sprintf("request-latency-ms.%d", apiKey))
	return metrics.GetOrRegisterHistogram(name, wm.registry, metrics.NewExpDecaySample(1028, 0.015))
}

// requestMeter returns (registering on first use) the per-second rate
// meter for a given api key.
func (wm *workerMetrics) requestMeter(apiKey int16) metrics.Meter {
	name := wm.metricName(fmt.Sprintf("requests.%d", apiKey))
	return metrics.GetOrRegisterMeter(name, wm.registry)
}

// recordRequest instruments one dispatched request: latency histogram
// in milliseconds plus the rate meter, then refreshes the broker-count
// gauge.
func (wm *workerMetrics) recordRequest(apiKey int16, started time.Time, brokerCount int) {
	wm.requestHistogram(apiKey).Update(time.Since(started).Milliseconds())
	wm.requestMeter(apiKey).Mark(1)
	wm.brokerCount.Update(int64(brokerCount))
}

// correlationIDGauge returns (registering on first use) a gauge that
// tracks the worker's current correlation id, useful for spotting a
// stalled worker from outside the mailbox.
func (wm *workerMetrics) correlationIDGauge() metrics.Gauge {
	return metrics.GetOrRegisterGauge(wm.metricName("correlation-id"), wm.registry)
}
