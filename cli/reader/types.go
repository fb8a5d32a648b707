// Package reader provides the read side of changelogctl: it replays a
// captured response stream and shapes the result into view models shared
// by the table, json, yaml and TUI renderers.
//
// Every command renders the same payloads regardless of output mode.
package reader

import "github.com/pithecene-io/extop/types"

// EntryRow is one delivered change entry.
type EntryRow struct {
	Seq          int    `json:"seq" yaml:"seq"`
	ChangeNumber int64  `json:"change_number" yaml:"change_number"`
	ChangeType   string `json:"change_type" yaml:"change_type"`
	TargetDN     string `json:"target_dn" yaml:"target_dn"`
	ServerID     string `json:"server_id,omitempty" yaml:"server_id,omitempty"`
	DetailBytes  int    `json:"detail_bytes" yaml:"detail_bytes"`
	ResumeToken  string `json:"resume_token" yaml:"resume_token"`
}

// NewEntryRow builds the row for the seq-th entry of a stream.
func NewEntryRow(seq int, entry types.ChangeEntry, enc Encoding) EntryRow {
	row := EntryRow{
		Seq:          seq,
		ChangeNumber: entry.ChangeNumber,
		ChangeType:   entry.ChangeType.String(),
		TargetDN:     entry.TargetDN,
		DetailBytes:  len(entry.Detail),
		ResumeToken:  enc.Format(entry.ResumeToken),
	}
	if entry.ServerID != nil {
		row.ServerID = *entry.ServerID
	}
	return row
}

// GapRow is one missing-changes notice, positioned after the entry with
// sequence AfterSeq (0 when it preceded every entry).
type GapRow struct {
	AfterSeq int    `json:"after_seq" yaml:"after_seq"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
}

// OtherRow is one intermediate response of an unrecognized kind.
type OtherRow struct {
	AfterSeq   int    `json:"after_seq" yaml:"after_seq"`
	OID        string `json:"oid" yaml:"oid"`
	ValueBytes int    `json:"value_bytes" yaml:"value_bytes"`
}

// ReplaySummary describes the outcome of a replayed request.
type ReplaySummary struct {
	RequestID  string `json:"request_id" yaml:"request_id"`
	Operation  string `json:"operation" yaml:"operation"`
	CapturedAt string `json:"captured_at" yaml:"captured_at"`
	State      string `json:"state" yaml:"state"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`

	ResultCode string `json:"result_code,omitempty" yaml:"result_code,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`

	Entries        int `json:"entries" yaml:"entries"`
	MissingNotices int `json:"missing_notices" yaml:"missing_notices"`
	OtherResponses int `json:"other_responses" yaml:"other_responses"`

	LastResumeToken      string `json:"last_resume_token,omitempty" yaml:"last_resume_token,omitempty"`
	MoreChangesAvailable bool   `json:"more_changes_available" yaml:"more_changes_available"`
	ChangesAlreadyPurged bool   `json:"changes_already_purged" yaml:"changes_already_purged"`
	EstimatedRemaining   *int32 `json:"estimated_remaining,omitempty" yaml:"estimated_remaining,omitempty"`
	AdditionalInfo       string `json:"additional_info,omitempty" yaml:"additional_info,omitempty"`
}

// ReplayView is everything the replay command renders.
type ReplayView struct {
	Summary ReplaySummary `json:"summary" yaml:"summary"`
	Entries []EntryRow    `json:"entries" yaml:"entries"`
	Gaps    []GapRow      `json:"gaps,omitempty" yaml:"gaps,omitempty"`
	Others  []OtherRow    `json:"others,omitempty" yaml:"others,omitempty"`
}

// RequestView describes an encoded request.
type RequestView struct {
	OID      string `json:"oid" yaml:"oid"`
	Encoding string `json:"encoding" yaml:"encoding"`
	Bytes    int    `json:"bytes" yaml:"bytes"`
	Value    string `json:"value" yaml:"value"`
}

// VersionView is the version command payload.
type VersionView struct {
	Version        string `json:"version" yaml:"version"`
	CaptureVersion string `json:"capture_version" yaml:"capture_version"`
	Commit         string `json:"commit" yaml:"commit"`
}
