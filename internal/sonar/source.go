package sonar

// StatusKind classifies a status event from a sensor source.
type StatusKind string

const (
	// StatusConnection reports a change in the source's connection state.
	StatusConnection StatusKind = "connection"
	// StatusError reports a non-fatal acquisition or transport error. The
	// source stays stoppable and restartable after emitting one.
	StatusError StatusKind = "error"
	// StatusWarning reports a data quality concern, such as a spike.
	StatusWarning StatusKind = "warning"
)

// StatusEvent is a connection-state change, a non-fatal error, or a data
// quality warning. Events arrive in emission order on the status channel.
type StatusEvent struct {
	Kind      StatusKind
	Connected bool
	Err       error
	Message   string
}

// Source is the contract implemented by every telemetry producer. The
// simulated sensor and the serial-attached hardware adapter both satisfy it,
// so consumers never depend on a concrete variant.
//
// A Source owns its acquisition resource (serial port, synthetic timer) and
// runs its production loop on its own goroutine. The Samples and Status
// channels are never closed; production simply ceases after Stop. Sends to
// both channels are non-blocking so a slow consumer can never stall the
// acquisition loop.
type Source interface {
	// Start acquires the underlying resource and begins asynchronous sample
	// production. Calling Start on a running source is a no-op returning nil;
	// the resource is never acquired twice.
	Start() error

	// Stop terminates production and releases the resource. It is idempotent,
	// returns within a bounded time, and guarantees that no further sample is
	// sent after it returns. Stop before Start is a no-op.
	Stop()

	// LatestReading returns the most recent sample without side effects. The
	// second return is false until the first sample has been produced.
	LatestReading() (Sample, bool)

	// Samples returns the stream of produced samples in arrival order.
	Samples() <-chan Sample

	// Status returns the stream of connection/error/warning events.
	Status() <-chan StatusEvent

	// SendCommand forwards a raw command to the underlying device. Sources
	// without a command channel treat this as a no-op.
	SendCommand(cmd string) error
}
