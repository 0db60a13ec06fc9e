package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raidroster/api/internal/domain"
	"github.com/raidroster/api/internal/guard"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages, then blocks until ctx is cancelled.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		m := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	close(f.drained)
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

type flakySink struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []domain.FeedbackEnvelope
}

func (s *flakySink) Notify(_ context.Context, env domain.FeedbackEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("webhook returned 502")
	}
	s.got = append(s.got, env)
	return nil
}

func envelopeMessage(t *testing.T, offset int64) kafka.Message {
	t.Helper()
	value, err := json.Marshal(sampleEnvelope())
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte("203.0.113.9"), Value: value}
}

func runRelay(t *testing.T, reader *fakeReader, sink Sink, attempts int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRelay(reader, sink, attempts, 0, testLogger()).Run(ctx) }()
	<-reader.drained
	cancel()
	require.NoError(t, <-done)
}

func TestRelay_DeliversAndCommits(t *testing.T) {
	reader := newFakeReader(envelopeMessage(t, 1), envelopeMessage(t, 2))
	sink := &flakySink{}

	runRelay(t, reader, sink, 3)

	require.Len(t, sink.got, 2)
	assert.Equal(t, "love the roster view", sink.got[0].Message)
	assert.Equal(t, "203.0.113.9", sink.got[0].SourceIP)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

func TestRelay_RetriesThenSucceeds(t *testing.T) {
	reader := newFakeReader(envelopeMessage(t, 7))
	sink := &flakySink{failures: 2}

	runRelay(t, reader, sink, 3)

	assert.Equal(t, 3, sink.calls)
	assert.Len(t, sink.got, 1)
	assert.Equal(t, []int64{7}, reader.committed)
}

func TestRelay_GivesUpAfterMaxAttempts(t *testing.T) {
	reader := newFakeReader(envelopeMessage(t, 3), envelopeMessage(t, 4))
	sink := &flakySink{failures: 2}

	runRelay(t, reader, sink, 2)

	// First message burns both attempts, second goes through.
	assert.Equal(t, 3, sink.calls)
	assert.Len(t, sink.got, 1)
	assert.Equal(t, []int64{3, 4}, reader.committed)
}

// openThenOK refuses with an open circuit a few times, then delivers.
type openThenOK struct {
	refusals int
	calls    int
}

func (s *openThenOK) Notify(context.Context, domain.FeedbackEnvelope) error {
	s.calls++
	if s.refusals > 0 {
		s.refusals--
		return &guard.OpenError{Key: "feedback_webhook", Reason: "circuit open", RetryIn: time.Millisecond}
	}
	return nil
}

func TestRelay_OpenCircuitDoesNotSpendAttempts(t *testing.T) {
	reader := newFakeReader(envelopeMessage(t, 11))
	sink := &openThenOK{refusals: 3}

	runRelay(t, reader, sink, 1)

	assert.Equal(t, 4, sink.calls)
	assert.Equal(t, []int64{11}, reader.committed)
}

func TestRelay_WebhookOutageTriesEveryMessage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	webhook := NewWebhookNotifier(srv.URL, guard.NewCircuitBreaker(5, 20*time.Millisecond), testLogger())
	reader := newFakeReader(envelopeMessage(t, 1), envelopeMessage(t, 2), envelopeMessage(t, 3))

	runRelay(t, reader, webhook, 5)

	assert.Equal(t, int32(15), hits.Load())
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}

func TestRelay_SkipsUndecodable(t *testing.T) {
	reader := newFakeReader(kafka.Message{Offset: 5, Value: []byte("not json")}, envelopeMessage(t, 6))
	sink := &flakySink{}

	runRelay(t, reader, sink, 3)

	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, []int64{5, 6}, reader.committed)
}

func TestRelay_ReaderErrorStopsRun(t *testing.T) {
	boom := errors.New("broker unreachable")
	r := NewRelay(failingReader{err: boom}, &flakySink{}, 1, 0, testLogger())
	assert.ErrorIs(t, r.Run(context.Background()), boom)
}

type failingReader struct{ err error }

func (f failingReader) FetchMessage(context.Context) (kafka.Message, error) {
	return kafka.Message{}, f.err
}

func (f failingReader) CommitMessages(context.Context, ...kafka.Message) error { return nil }
