// Package metrics exposes Prometheus instrumentation for the gRPC API and
// the ops HTTP endpoints that serve it.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "tradesense"

// Metrics holds the collectors recorded by the service
type Metrics struct {
	rpcRequests   *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
	jobRuns       *prometheus.CounterVec
	statusChanges *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Unary RPCs handled, by method and status code.",
		}, []string{"method", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "Unary RPC latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs, by job and result.",
		}, []string{"job", "result"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_status_changes_total",
			Help:      "Challenge status transitions applied by scheduled evaluation.",
		}, []string{"status", "rule"}),
	}

	reg.MustRegister(m.rpcRequests, m.rpcDuration, m.jobRuns, m.statusChanges)
	return m
}

// UnaryInterceptor records the count and latency of every unary RPC.
// It must run outside the auth interceptor so rejected calls are counted.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		m.rpcDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		m.rpcRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// ObserveJob counts one run of a scheduled job
func (m *Metrics) ObserveJob(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

// ObserveStatusChange counts a challenge moving to status because of rule
func (m *Metrics) ObserveStatusChange(status, rule string) {
	m.statusChanges.WithLabelValues(status, rule).Inc()
}
