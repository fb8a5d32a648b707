package types

import (
	"errors"
	"fmt"
)

// RequestMeta identifies one changelog batch request and links it to the
// request it resumes, for log correlation.
type RequestMeta struct {
	// RequestID is the unique identifier of this request.
	RequestID string
	// Operation is the request OID.
	Operation string
	// ResumedFrom links a resumed request to its predecessor. Nil for the
	// first request of a session.
	ResumedFrom *string
	// Attempt is the request's position in its session. Starts at 1.
	Attempt int
}

// Validate checks the lineage rules:
//   - attempt >= 1
//   - attempt == 1 => resumed_from must be nil (first request)
//   - attempt > 1 => resumed_from must be present (resumption)
func (m *RequestMeta) Validate() error {
	if m.RequestID == "" {
		return errors.New("request_id must be non-empty")
	}

	if m.Attempt < 1 {
		return fmt.Errorf("attempt must be >= 1, got %d", m.Attempt)
	}

	if m.Attempt == 1 && m.ResumedFrom != nil {
		return errors.New("first request (attempt=1) must not have resumed_from")
	}

	if m.Attempt > 1 && m.ResumedFrom == nil {
		return fmt.Errorf("resumed request (attempt=%d) must have resumed_from", m.Attempt)
	}

	return nil
}

// Next returns the metadata for a request resuming m under a new ID.
func (m *RequestMeta) Next(requestID string) *RequestMeta {
	prev := m.RequestID
	return &RequestMeta{
		RequestID:   requestID,
		Operation:   m.Operation,
		ResumedFrom: &prev,
		Attempt:     m.Attempt + 1,
	}
}
