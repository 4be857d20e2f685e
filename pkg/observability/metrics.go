package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics emits operational metrics to CloudWatch. It satisfies the command
// bus MetricsRecorder and the query bus Metrics interfaces. Emission never
// fails the instrumented operation; PutMetricData errors are logged and
// dropped.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance. A nil client disables emission.
func NewMetrics(namespace string, client *cloudwatch.Client, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCommand records duration and outcome of a command execution
func (m *Metrics) RecordCommand(ctx context.Context, name string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	dims := []types.Dimension{
		{Name: aws.String("Command"), Value: aws.String(name)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("CommandDuration"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(time.Now()),
		},
		{
			MetricName: aws.String("CommandCount"),
			Dimensions: dims,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(time.Now()),
		},
	})
}

// ObserveDuration records a latency sample for a named metric
func (m *Metrics) ObserveDuration(ctx context.Context, metric, label string, d time.Duration) {
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String(metric),
			Dimensions: []types.Dimension{
				{Name: aws.String("Operation"), Value: aws.String(label)},
			},
			Value:     aws.Float64(float64(d.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

// Increment bumps a counter metric by one
func (m *Metrics) Increment(ctx context.Context, metric, label string) {
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String(metric),
			Dimensions: []types.Dimension{
				{Name: aws.String("Operation"), Value: aws.String(label)},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

func (m *Metrics) put(ctx context.Context, data []types.MetricDatum) {
	if m.client == nil {
		return
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil && m.logger != nil {
		m.logger.Warn("failed to emit metrics", zap.Error(err))
	}
}

// NopMetrics discards all samples; used when metrics are disabled
type NopMetrics struct{}

func (NopMetrics) RecordCommand(ctx context.Context, name string, duration time.Duration, success bool) {
}
func (NopMetrics) ObserveDuration(ctx context.Context, metric, label string, d time.Duration) {}
func (NopMetrics) Increment(ctx context.Context, metric, label string)                        {}
