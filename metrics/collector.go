// Package metrics provides per-session metrics for changelog retrieval.
//
// The Collector accumulates counters across the requests of one session
// (a request and any resumptions that follow it). It is a leaf package
// with no internal dependencies; response kinds are recorded by OID string.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Request lifecycle
	RequestsSubmitted int64
	RequestsCompleted int64
	RequestsFailed    int64
	RequestsAbandoned int64

	// Intermediate responses
	EntriesDelivered int64
	GapNotices       int64
	OtherResponses   int64
	OtherByOID       map[string]int64

	// Failures by cause
	DecodeErrors    int64
	StatusErrors    int64
	TransportErrors int64

	// Dimensions (informational, set at construction)
	Operation string
	Transport string
	SessionID string
}

// Collector accumulates counters for one session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	requestsSubmitted int64
	requestsCompleted int64
	requestsFailed    int64
	requestsAbandoned int64

	entriesDelivered int64
	gapNotices       int64
	otherResponses   int64
	otherByOID       map[string]int64

	decodeErrors    int64
	statusErrors    int64
	transportErrors int64

	operation string
	transport string
	sessionID string
}

// NewCollector creates a Collector with dimension labels.
// operation is the request OID; transport names the transport in use.
func NewCollector(operation, transport, sessionID string) *Collector {
	return &Collector{
		otherByOID: make(map[string]int64),
		operation:  operation,
		transport:  transport,
		sessionID:  sessionID,
	}
}

// inc increments a counter under the lock. Callers check for a nil
// receiver first, since taking a field address through nil panics.
func (c *Collector) inc(counter *int64) {
	c.mu.Lock()
	*counter++
	c.mu.Unlock()
}

// --- Request lifecycle ---

// IncRequestSubmitted records a request handed to the transport.
func (c *Collector) IncRequestSubmitted() {
	if c == nil {
		return
	}
	c.inc(&c.requestsSubmitted)
}

// IncRequestCompleted records a request that ended with a success result.
func (c *Collector) IncRequestCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.requestsCompleted)
}

// IncRequestFailed records a request that ended in the failed state for
// any reason other than abandonment.
func (c *Collector) IncRequestFailed() {
	if c == nil {
		return
	}
	c.inc(&c.requestsFailed)
}

// IncRequestAbandoned records a request abandoned by the caller.
func (c *Collector) IncRequestAbandoned() {
	if c == nil {
		return
	}
	c.inc(&c.requestsAbandoned)
}

// --- Intermediate responses ---

// IncEntryDelivered records a change entry passed to the listener.
func (c *Collector) IncEntryDelivered() {
	if c == nil {
		return
	}
	c.inc(&c.entriesDelivered)
}

// IncGapNotice records a missing changes notice.
func (c *Collector) IncGapNotice() {
	if c == nil {
		return
	}
	c.inc(&c.gapNotices)
}

// IncOtherResponse records an intermediate response of an unhandled kind.
func (c *Collector) IncOtherResponse(oid string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.otherResponses++
	c.otherByOID[oid]++
	c.mu.Unlock()
}

// --- Failures ---

// IncDecodeError records a recognized response whose payload did not decode.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.inc(&c.decodeErrors)
}

// IncStatusError records a non-success result.
func (c *Collector) IncStatusError() {
	if c == nil {
		return
	}
	c.inc(&c.statusErrors)
}

// IncTransportError records a transport failure.
func (c *Collector) IncTransportError() {
	if c == nil {
		return
	}
	c.inc(&c.transportErrors)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	other := make(map[string]int64, len(c.otherByOID))
	for k, v := range c.otherByOID {
		other[k] = v
	}

	return Snapshot{
		RequestsSubmitted: c.requestsSubmitted,
		RequestsCompleted: c.requestsCompleted,
		RequestsFailed:    c.requestsFailed,
		RequestsAbandoned: c.requestsAbandoned,

		EntriesDelivered: c.entriesDelivered,
		GapNotices:       c.gapNotices,
		OtherResponses:   c.otherResponses,
		OtherByOID:       other,

		DecodeErrors:    c.decodeErrors,
		StatusErrors:    c.statusErrors,
		TransportErrors: c.transportErrors,

		Operation: c.operation,
		Transport: c.transport,
		SessionID: c.sessionID,
	}
}
