package types

import (
	"github.com/pithecene-io/extop/ber"
)

var (
	tagMaxWaitMillis            = ber.ContextTag(0)
	tagWaitForMaxChanges        = ber.ContextTag(1)
	tagIncludeBase              = ber.ContextConstructedTag(2)
	tagExcludeBase              = ber.ContextConstructedTag(3)
	tagChangeTypes              = ber.ContextConstructedTag(4)
	tagContinueOnMissingChanges = ber.ContextTag(5)
)

// ChangelogBatchRequest asks the server for up to MaxChanges changelog
// entries starting at StartingPoint. Values are immutable; use
// WithStartingPoint to build the request for the next batch.
type ChangelogBatchRequest struct {
	startingPoint            StartingPoint
	maxChanges               int32
	maxWaitMillis            int64
	waitForMaxChanges        bool
	includeBases             []string
	excludeBases             []string
	changeTypes              []ChangeType
	continueOnMissingChanges bool
	selection                SelectionCriteria
}

// RequestOption configures optional fields of a ChangelogBatchRequest.
type RequestOption func(*ChangelogBatchRequest)

// WithMaxWait sets how long the server may wait for changes to appear
// before returning. Zero means return immediately.
func WithMaxWait(millis int64) RequestOption {
	return func(r *ChangelogBatchRequest) { r.maxWaitMillis = millis }
}

// WithWaitForMaxChanges makes the server wait until MaxChanges entries are
// available or the wait elapses.
func WithWaitForMaxChanges(wait bool) RequestOption {
	return func(r *ChangelogBatchRequest) { r.waitForMaxChanges = wait }
}

// WithIncludeBases restricts results to changes beneath the given DNs.
func WithIncludeBases(dns ...string) RequestOption {
	return func(r *ChangelogBatchRequest) { r.includeBases = cloneStrings(dns) }
}

// WithExcludeBases drops changes beneath the given DNs.
func WithExcludeBases(dns ...string) RequestOption {
	return func(r *ChangelogBatchRequest) { r.excludeBases = cloneStrings(dns) }
}

// WithChangeTypes restricts results to the given change types.
func WithChangeTypes(types ...ChangeType) RequestOption {
	return func(r *ChangelogBatchRequest) {
		if len(types) == 0 {
			r.changeTypes = nil
			return
		}
		r.changeTypes = append([]ChangeType(nil), types...)
	}
}

// WithContinueOnMissingChanges asks the server to keep going when some
// changes are no longer available, reporting them with a missing changes
// notice instead of failing.
func WithContinueOnMissingChanges(cont bool) RequestOption {
	return func(r *ChangelogBatchRequest) { r.continueOnMissingChanges = cont }
}

// WithSelectionCriteria restricts results to changes matching sc.
func WithSelectionCriteria(sc SelectionCriteria) RequestOption {
	return func(r *ChangelogBatchRequest) { r.selection = sc }
}

// NewChangelogBatchRequest builds and validates a request.
func NewChangelogBatchRequest(start StartingPoint, maxChanges int32, opts ...RequestOption) (*ChangelogBatchRequest, error) {
	r := &ChangelogBatchRequest{startingPoint: start, maxChanges: maxChanges}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ChangelogBatchRequest) validate() error {
	if r.startingPoint == nil {
		return ber.MissingField("starting_point")
	}
	if r.maxChanges <= 0 {
		return ber.InvalidValue("max_changes", "must be positive, got %d", r.maxChanges)
	}
	if r.maxWaitMillis < 0 {
		return ber.InvalidValue("max_wait_millis", "negative wait %d", r.maxWaitMillis)
	}
	for _, dn := range r.includeBases {
		if dn == "" {
			return ber.InvalidValue("include_base", "empty base DN")
		}
	}
	for _, dn := range r.excludeBases {
		if dn == "" {
			return ber.InvalidValue("exclude_base", "empty base DN")
		}
	}
	for _, c := range r.changeTypes {
		if !c.Valid() {
			return ber.InvalidValue("change_types", "unknown change type %d", int(c))
		}
	}
	return nil
}

// WithStartingPoint returns a copy of r that starts at sp.
func (r *ChangelogBatchRequest) WithStartingPoint(sp StartingPoint) (*ChangelogBatchRequest, error) {
	next := *r
	next.startingPoint = sp
	if err := next.validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *ChangelogBatchRequest) StartingPoint() StartingPoint {
	return r.startingPoint
}

func (r *ChangelogBatchRequest) MaxChanges() int32 {
	return r.maxChanges
}

func (r *ChangelogBatchRequest) MaxWaitMillis() int64 {
	return r.maxWaitMillis
}

func (r *ChangelogBatchRequest) WaitForMaxChanges() bool {
	return r.waitForMaxChanges
}

func (r *ChangelogBatchRequest) IncludeBases() []string {
	return cloneStrings(r.includeBases)
}

func (r *ChangelogBatchRequest) ExcludeBases() []string {
	return cloneStrings(r.excludeBases)
}

func (r *ChangelogBatchRequest) ContinueOnMissingChanges() bool {
	return r.continueOnMissingChanges
}

func (r *ChangelogBatchRequest) SelectionCriteria() SelectionCriteria {
	return r.selection
}

func (r *ChangelogBatchRequest) ChangeTypes() []ChangeType {
	if len(r.changeTypes) == 0 {
		return nil
	}
	return append([]ChangeType(nil), r.changeTypes...)
}

// Encode returns the request value.
func (r *ChangelogBatchRequest) Encode() ber.Element {
	children := []ber.Element{
		r.startingPoint.Encode(),
		ber.Int(ber.TagInteger, int64(r.maxChanges)),
	}
	if r.maxWaitMillis > 0 {
		children = append(children, ber.Int(tagMaxWaitMillis, r.maxWaitMillis))
	}
	if r.waitForMaxChanges {
		children = append(children, ber.Bool(tagWaitForMaxChanges, true))
	}
	if len(r.includeBases) > 0 {
		children = append(children, encodeStrings(tagIncludeBase, r.includeBases))
	}
	if len(r.excludeBases) > 0 {
		children = append(children, encodeStrings(tagExcludeBase, r.excludeBases))
	}
	if len(r.changeTypes) > 0 {
		types := make([]ber.Element, 0, len(r.changeTypes))
		for _, c := range r.changeTypes {
			types = append(types, ber.Enumerated(ber.TagEnumerated, int64(c)))
		}
		children = append(children, ber.Sequence(tagChangeTypes, types...))
	}
	if r.continueOnMissingChanges {
		children = append(children, ber.Bool(tagContinueOnMissingChanges, true))
	}
	if r.selection != nil {
		children = append(children, r.selection.Encode())
	}
	return ber.Sequence(ber.TagSequence, children...)
}

// DecodeChangelogBatchRequest decodes and validates a request value.
func DecodeChangelogBatchRequest(e ber.Element) (*ChangelogBatchRequest, error) {
	if err := expectTag(e, ber.TagSequence, "changelog_batch_request"); err != nil {
		return nil, err
	}
	cr := e.Children()

	spElem, err := cr.Next()
	if err != nil {
		if cr.Remaining() == 0 {
			return nil, ber.MissingField("starting_point")
		}
		return nil, ber.Annotate(err, "starting_point")
	}
	sp, err := DecodeStartingPoint(spElem)
	if err != nil {
		return nil, err
	}
	maxElem, err := cr.Expect(ber.TagInteger, "max_changes")
	if err != nil {
		return nil, err
	}
	r := &ChangelogBatchRequest{startingPoint: sp}
	if r.maxChanges, err = decodeInt32(maxElem, "max_changes"); err != nil {
		return nil, err
	}

	if e, ok, err := cr.Optional(tagMaxWaitMillis); err != nil {
		return nil, ber.Annotate(err, "max_wait_millis")
	} else if ok {
		if r.maxWaitMillis, err = decodeInt64(e, "max_wait_millis"); err != nil {
			return nil, err
		}
	}
	if r.waitForMaxChanges, err = optionalBool(cr, tagWaitForMaxChanges, "wait_for_max_changes"); err != nil {
		return nil, err
	}
	if r.includeBases, err = optionalStrings(cr, tagIncludeBase, "include_base"); err != nil {
		return nil, err
	}
	if r.excludeBases, err = optionalStrings(cr, tagExcludeBase, "exclude_base"); err != nil {
		return nil, err
	}
	if e, ok, err := cr.Optional(tagChangeTypes); err != nil {
		return nil, ber.Annotate(err, "change_types")
	} else if ok {
		tr := e.Children()
		for tr.More() {
			te, err := tr.Expect(ber.TagEnumerated, "change_types")
			if err != nil {
				return nil, err
			}
			c, err := decodeChangeType(te, "change_types")
			if err != nil {
				return nil, err
			}
			r.changeTypes = append(r.changeTypes, c)
		}
	}
	if r.continueOnMissingChanges, err = optionalBool(cr, tagContinueOnMissingChanges, "continue_on_missing_changes"); err != nil {
		return nil, err
	}
	if e, ok, err := cr.Optional(tagSelectionCriteria); err != nil {
		return nil, ber.Annotate(err, "selection_criteria")
	} else if ok {
		if r.selection, err = DecodeSelectionCriteria(e); err != nil {
			return nil, err
		}
	}
	if err := cr.Done("changelog_batch_request"); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func optionalStrings(r *ber.Reader, tag uint8, field string) ([]string, error) {
	e, ok, err := r.Optional(tag)
	if err != nil {
		return nil, ber.Annotate(err, field)
	}
	if !ok {
		return nil, nil
	}
	return decodeStrings(e, field)
}
