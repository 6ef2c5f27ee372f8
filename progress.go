package veloinfo

import (
	"context"
	"sync"
)

const (
	defaultProgressEvery  = 10
	defaultProgressBuffer = 256
)

// ProgressSample is an expanded traversal as [[lon1, lat1], [lon2, lat2]]
type ProgressSample [2][2]float64

func newProgressSample(ep EdgePoint) ProgressSample {
	from, to := ep.From(), ep.To()
	return ProgressSample{{from.Lon, from.Lat}, {to.Lon, to.Lat}}
}

// ProgressSink receives samples of search progress. An error returned by Send aborts the search
type ProgressSink interface {
	Send(ctx context.Context, sample ProgressSample) error
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(ctx context.Context, sample ProgressSample) error

func (f ProgressFunc) Send(ctx context.Context, sample ProgressSample) error {
	return f(ctx, sample)
}

// ChannelSink is buffered ProgressSink which never blocks the search: samples are dropped
// while buffer is full. Once consumer calls Disconnect every Send fails with ErrSearchAborted
type ChannelSink struct {
	samples chan ProgressSample
	done    chan struct{}
	once    sync.Once
}

// NewChannelSink returns sink with given buffer size
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = defaultProgressBuffer
	}
	return &ChannelSink{
		samples: make(chan ProgressSample, buffer),
		done:    make(chan struct{}),
	}
}

// Samples is the consumer side of the sink
func (sink *ChannelSink) Samples() <-chan ProgressSample {
	return sink.samples
}

// Disconnect tells producer that nobody listens anymore. Safe to call many times
func (sink *ChannelSink) Disconnect() {
	sink.once.Do(func() {
		close(sink.done)
	})
}

// Done is closed after Disconnect
func (sink *ChannelSink) Done() <-chan struct{} {
	return sink.done
}

func (sink *ChannelSink) Send(ctx context.Context, sample ProgressSample) error {
	select {
	case <-sink.done:
		return ErrSearchAborted
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case sink.samples <- sample:
	default:
	}
	return nil
}
