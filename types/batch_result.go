package types

import (
	"github.com/pithecene-io/extop/ber"
)

var (
	tagBatchResumeToken       = ber.ContextTag(0)
	tagChangesAlreadyPurged   = ber.ContextTag(1)
	tagAdditionalInfo         = ber.ContextTag(2)
	tagEstimatedChangesRemain = ber.ContextTag(3)
)

// ChangelogBatchResult is the value of a successful changelog batch
// extended result.
type ChangelogBatchResult struct {
	ResumeToken               []byte
	MoreChangesAvailable      bool
	ChangesAlreadyPurged      bool
	AdditionalInfo            *string
	EstimatedChangesRemaining *int32
}

func (r ChangelogBatchResult) Validate() error {
	if r.EstimatedChangesRemaining != nil && *r.EstimatedChangesRemaining < 0 {
		return ber.InvalidValue("estimated_changes_remaining", "negative count %d", *r.EstimatedChangesRemaining)
	}
	return nil
}

func (r ChangelogBatchResult) Encode() ber.Element {
	var children []ber.Element
	if r.ResumeToken != nil {
		children = append(children, ber.OctetString(tagBatchResumeToken, r.ResumeToken))
	}
	children = append(children, ber.Bool(ber.TagBoolean, r.MoreChangesAvailable))
	if r.ChangesAlreadyPurged {
		children = append(children, ber.Bool(tagChangesAlreadyPurged, true))
	}
	if r.AdditionalInfo != nil {
		children = append(children, ber.String(tagAdditionalInfo, *r.AdditionalInfo))
	}
	if r.EstimatedChangesRemaining != nil {
		children = append(children, ber.Int(tagEstimatedChangesRemain, int64(*r.EstimatedChangesRemaining)))
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodeChangelogBatchResult decodes a result value.
func DecodeChangelogBatchResult(e ber.Element) (ChangelogBatchResult, error) {
	if err := expectTag(e, ber.TagSequence, "changelog_batch_result"); err != nil {
		return ChangelogBatchResult{}, err
	}
	cr := e.Children()
	var r ChangelogBatchResult

	if tok, ok, err := cr.Optional(tagBatchResumeToken); err != nil {
		return ChangelogBatchResult{}, ber.Annotate(err, "resume_token")
	} else if ok {
		r.ResumeToken = tok.OctetString()
	}
	more, err := cr.Expect(ber.TagBoolean, "more_changes_available")
	if err != nil {
		return ChangelogBatchResult{}, err
	}
	if r.MoreChangesAvailable, err = decodeBool(more, "more_changes_available"); err != nil {
		return ChangelogBatchResult{}, err
	}
	if r.ChangesAlreadyPurged, err = optionalBool(cr, tagChangesAlreadyPurged, "changes_already_purged"); err != nil {
		return ChangelogBatchResult{}, err
	}
	if r.AdditionalInfo, err = optionalString(cr, tagAdditionalInfo, "additional_info"); err != nil {
		return ChangelogBatchResult{}, err
	}
	if r.EstimatedChangesRemaining, err = optionalInt32(cr, tagEstimatedChangesRemain, "estimated_changes_remaining"); err != nil {
		return ChangelogBatchResult{}, err
	}
	if err := cr.Done("changelog_batch_result"); err != nil {
		return ChangelogBatchResult{}, err
	}
	if err := r.Validate(); err != nil {
		return ChangelogBatchResult{}, err
	}
	return r, nil
}
