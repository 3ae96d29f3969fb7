package taskrunner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyreel/log"
)

func init() {
	log.InitLogger()
}

func TestRunnerProcessesSubmittedJob(t *testing.T) {
	done := make(chan AnalysisPayload, 1)
	runner := New(func(payload AnalysisPayload) {
		done <- payload
	}, DefaultConfig())
	defer runner.Close()

	err := runner.Submit(AnalysisPayload{Generation: 3, AudioPath: "/tmp/a.mp3", MimeType: "audio/mpeg"})
	require.NoError(t, err)

	select {
	case payload := <-done:
		assert.Equal(t, uint64(3), payload.Generation)
		assert.Equal(t, "audio/mpeg", payload.MimeType)
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestRunnerRejectsEmptyAudioPath(t *testing.T) {
	runner := New(func(AnalysisPayload) {}, DefaultConfig())
	defer runner.Close()

	err := runner.Submit(AnalysisPayload{Generation: 1})
	assert.Error(t, err)
}

func TestRunnerQueueFull(t *testing.T) {
	block := make(chan struct{})
	runner := New(func(AnalysisPayload) {
		<-block
	}, Config{QueueSize: 1, Concurrency: 1})
	defer func() {
		close(block)
		runner.Close()
	}()

	// First job occupies the worker, second fills the queue.
	require.NoError(t, runner.Submit(AnalysisPayload{Generation: 1, AudioPath: "a"}))
	require.Eventually(t, func() bool {
		return runner.Submit(AnalysisPayload{Generation: 2, AudioPath: "b"}) == nil
	}, time.Second, 10*time.Millisecond)

	err := runner.Submit(AnalysisPayload{Generation: 3, AudioPath: "c"})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestRunnerStoppedAfterClose(t *testing.T) {
	runner := New(func(AnalysisPayload) {}, DefaultConfig())
	runner.Close()

	err := runner.Submit(AnalysisPayload{Generation: 1, AudioPath: "a"})
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestRunnerRecoversPanicAndNotifies(t *testing.T) {
	var mu sync.Mutex
	var notified []uint64
	runner := New(func(AnalysisPayload) {
		panic("analyzer blew up")
	}, DefaultConfig())
	runner.OnPanic(func(payload AnalysisPayload, recovered any) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, payload.Generation)
	})
	defer runner.Close()

	require.NoError(t, runner.Submit(AnalysisPayload{Generation: 7, AudioPath: "a"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 1 && notified[0] == uint64(7)
	}, 2*time.Second, 10*time.Millisecond)

	// The worker survives the panic and keeps accepting jobs.
	require.NoError(t, runner.Submit(AnalysisPayload{Generation: 8, AudioPath: "b"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
