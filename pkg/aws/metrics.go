package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"
	MetricUploadBytes  = "PlanUploadBytes"

	MetricUploadsProcessed = "PlanUploadsProcessed"
	MetricUploadsRejected  = "PlanUploadsRejected"
	MetricRecordsProcessed = "PlanRecordsProcessed"
	MetricRecordsInvalid   = "PlanRecordsInvalid"
	MetricPlansPersisted   = "PlansPersisted"
	MetricUploadLatency    = "PlanUploadLatency"
	MetricCacheHits        = "PlanCacheHits"
	MetricCacheMisses      = "PlanCacheMisses"
)

// maxDatumsPerCall is the PutMetricData limit.
const maxDatumsPerCall = 1000

// Datum is one data point.
type Datum struct {
	Name       string
	Value      float64
	Unit       types.StandardUnit
	Dimensions map[string]string
}

// Count is a datum of 1.
func Count(name string, dims map[string]string) Datum {
	return Datum{Name: name, Value: 1, Unit: types.StandardUnitCount, Dimensions: dims}
}

// Total is a count-valued datum.
func Total(name string, n int, dims map[string]string) Datum {
	return Datum{Name: name, Value: float64(n), Unit: types.StandardUnitCount, Dimensions: dims}
}

// Latency is a duration in milliseconds.
func Latency(name string, d time.Duration, dims map[string]string) Datum {
	return Datum{Name: name, Value: float64(d.Milliseconds()), Unit: types.StandardUnitMilliseconds, Dimensions: dims}
}

// Bytes is a size datum.
func Bytes(name string, n int64, dims map[string]string) Datum {
	return Datum{Name: name, Value: float64(n), Unit: types.StandardUnitBytes, Dimensions: dims}
}

// MetricsRecorder sends data points. Implementations must be safe for
// concurrent use.
type MetricsRecorder interface {
	Put(ctx context.Context, data ...Datum) error
}

// MetricsClient publishes to CloudWatch under one namespace. A disabled
// client accepts every call and sends nothing.
type MetricsClient struct {
	client    *cloudwatch.Client
	namespace string
	enabled   bool
}

func NewMetricsClient(cfg sdkaws.Config, namespace string, enabled bool) *MetricsClient {
	if namespace == "" {
		namespace = "Briki"
	}
	return &MetricsClient{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
		enabled:   enabled,
	}
}

// Put sends the data points, batching them into as few calls as possible.
func (m *MetricsClient) Put(ctx context.Context, data ...Datum) error {
	if !m.IsEnabled() || len(data) == 0 {
		return nil
	}

	now := time.Now()
	datums := make([]types.MetricDatum, 0, len(data))
	for _, d := range data {
		datums = append(datums, types.MetricDatum{
			MetricName: sdkaws.String(d.Name),
			Value:      sdkaws.Float64(d.Value),
			Unit:       d.Unit,
			Timestamp:  sdkaws.Time(now),
			Dimensions: dimensions(d.Dimensions),
		})
	}

	for start := 0; start < len(datums); start += maxDatumsPerCall {
		end := min(start+maxDatumsPerCall, len(datums))
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  sdkaws.String(m.namespace),
			MetricData: datums[start:end],
		})
		if err != nil {
			return fmt.Errorf("put metric data: %w", err)
		}
	}
	return nil
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}

// dimensions are sorted by name so identical sets map to the same series.
func dimensions(in map[string]string) []types.Dimension {
	names := make([]string, 0, len(in))
	for k := range in {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]types.Dimension, 0, len(in))
	for _, k := range names {
		out = append(out, types.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(in[k])})
	}
	return out
}
