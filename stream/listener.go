package stream

import (
	"github.com/pithecene-io/extop/extop"
	"github.com/pithecene-io/extop/types"
)

// Listener receives the intermediate responses of one changelog batch
// request. Calls are synchronous, on the goroutine feeding the
// dispatcher, in the order the responses were received.
type Listener interface {
	// OnEntry is called for each changelog entry.
	OnEntry(entry types.ChangeEntry)
	// OnGap is called when the server reports changes that can no longer
	// be delivered. message is nil when the server gave none.
	OnGap(message *string)
	// OnOther is called for intermediate responses of any other kind.
	OnOther(resp *extop.IntermediateResponse)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields ignore
// their callback.
type ListenerFuncs struct {
	Entry func(entry types.ChangeEntry)
	Gap   func(message *string)
	Other func(resp *extop.IntermediateResponse)
}

// OnEntry implements Listener.
func (f ListenerFuncs) OnEntry(entry types.ChangeEntry) {
	if f.Entry != nil {
		f.Entry(entry)
	}
}

// OnGap implements Listener.
func (f ListenerFuncs) OnGap(message *string) {
	if f.Gap != nil {
		f.Gap(message)
	}
}

// OnOther implements Listener.
func (f ListenerFuncs) OnOther(resp *extop.IntermediateResponse) {
	if f.Other != nil {
		f.Other(resp)
	}
}

// NopListener ignores every callback. The dispatcher still records
// entries, so callers may read them after completion instead.
type NopListener struct{}

func (NopListener) OnEntry(types.ChangeEntry) {}

func (NopListener) OnGap(*string) {}

func (NopListener) OnOther(*extop.IntermediateResponse) {}

// ResponseKind is the routing class of an intermediate response.
type ResponseKind int

const (
	// ResponseOther is any response this client does not interpret.
	ResponseOther ResponseKind = iota
	// ResponseChangelogEntry carries one change entry.
	ResponseChangelogEntry
	// ResponseMissingChanges reports a gap in the changelog.
	ResponseMissingChanges
)

// String returns the kind name.
func (k ResponseKind) String() string {
	switch k {
	case ResponseChangelogEntry:
		return "changelog_entry"
	case ResponseMissingChanges:
		return "missing_changes"
	default:
		return "other"
	}
}

// ClassifyResponse resolves an intermediate response OID to its kind.
func ClassifyResponse(oid string) ResponseKind {
	switch oid {
	case types.OIDChangelogEntry:
		return ResponseChangelogEntry
	case types.OIDMissingChangelogEntries:
		return ResponseMissingChanges
	default:
		return ResponseOther
	}
}
