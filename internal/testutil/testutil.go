// Package testutil provides shared helpers for exercising the asynchronous
// sample and status streams in tests.
package testutil

import (
	"testing"
	"time"

	"github.com/banshee-data/sonar.sweep/internal/sonar"
)

// CollectSamples reads n samples from ch, failing the test if they do not
// arrive within timeout.
func CollectSamples(t *testing.T, ch <-chan sonar.Sample, n int, timeout time.Duration) []sonar.Sample {
	t.Helper()

	deadline := time.After(timeout)
	out := make([]sonar.Sample, 0, n)
	for len(out) < n {
		select {
		case s := <-ch:
			out = append(out, s)
		case <-deadline:
			t.Fatalf("collected %d of %d samples before timeout %v", len(out), n, timeout)
		}
	}
	return out
}

// WaitForStatus reads status events from ch until one satisfies match,
// failing the test on timeout.
func WaitForStatus(t *testing.T, ch <-chan sonar.StatusEvent, match func(sonar.StatusEvent) bool, timeout time.Duration) sonar.StatusEvent {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case ev := <-ch:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatalf("no matching status event within %v", timeout)
		}
	}
}

// Eventually polls cond every interval until it reports true, failing the
// test if timeout elapses first.
func Eventually(t *testing.T, timeout, interval time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatal(msg)
}
