package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const (
	logBufferSize    = 4096
	logBatchSize     = 500
	logFlushInterval = 2 * time.Second
	logRetentionDays = 30
)

// CloudWatchLogsWriter ships log lines to a CloudWatch Logs stream in
// batches. It is an io.Writer so it can be tee'd into the zap core; lines
// written while the buffer is full are dropped.
type CloudWatchLogsWriter struct {
	client *cloudwatchlogs.Client
	group  string
	stream string

	mu      sync.RWMutex
	closed  bool
	events  chan types.InputLogEvent
	done    chan struct{}
	dropped atomic.Int64
}

// NewCloudWatchLogsWriter creates the log group when missing and a fresh
// stream named after the service, then starts shipping in the background.
func NewCloudWatchLogsWriter(ctx context.Context, cfg sdkaws.Config, group, serviceName string) (*CloudWatchLogsWriter, error) {
	if group == "" {
		group = "/briki/services"
	}
	w := &CloudWatchLogsWriter{
		client: cloudwatchlogs.NewFromConfig(cfg),
		group:  group,
		stream: fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()),
		events: make(chan types.InputLogEvent, logBufferSize),
		done:   make(chan struct{}),
	}

	if err := w.ensureGroup(ctx); err != nil {
		return nil, fmt.Errorf("ensure log group %s: %w", group, err)
	}
	if _, err := w.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(w.group),
		LogStreamName: sdkaws.String(w.stream),
	}); err != nil {
		return nil, fmt.Errorf("create log stream %s: %w", w.stream, err)
	}

	go w.run()
	return w, nil
}

func (w *CloudWatchLogsWriter) ensureGroup(ctx context.Context) error {
	_, err := w.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: sdkaws.String(w.group),
	})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return err
	}
	_, err = w.client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    sdkaws.String(w.group),
		RetentionInDays: sdkaws.Int32(logRetentionDays),
	})
	return err
}

// Write queues one log line. It never blocks and never fails.
func (w *CloudWatchLogsWriter) Write(p []byte) (int, error) {
	event := types.InputLogEvent{
		Message:   sdkaws.String(string(p)),
		Timestamp: sdkaws.Int64(time.Now().UnixMilli()),
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return len(p), nil
	}
	select {
	case w.events <- event:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Close flushes queued lines and stops the shipper.
func (w *CloudWatchLogsWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.events)
	w.mu.Unlock()

	<-w.done
	if n := w.dropped.Load(); n > 0 {
		fmt.Fprintf(os.Stderr, "CloudWatch Logs: dropped %d lines\n", n)
	}
	return nil
}

func (w *CloudWatchLogsWriter) run() {
	defer close(w.done)

	ticker := time.NewTicker(logFlushInterval)
	defer ticker.Stop()

	batch := make([]types.InputLogEvent, 0, logBatchSize)
	for {
		select {
		case ev, ok := <-w.events:
			if !ok {
				w.flush(batch)
				return
			}
			batch = append(batch, ev)
			if len(batch) >= logBatchSize {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			w.flush(batch)
			batch = batch[:0]
		}
	}
}

// flush sends one batch; failures go to stderr.
func (w *CloudWatchLogsWriter) flush(batch []types.InputLogEvent) {
	if len(batch) == 0 {
		return
	}
	sort.SliceStable(batch, func(i, j int) bool {
		return *batch[i].Timestamp < *batch[j].Timestamp
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := w.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(w.group),
		LogStreamName: sdkaws.String(w.stream),
		LogEvents:     batch,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "CloudWatch Logs: put %d events: %v\n", len(batch), err)
	}
}
