package types

import (
	"github.com/pithecene-io/extop/ber"
)

var (
	tagToolDefaultWindow     = ber.ContextTag(0)
	tagDurationWindow        = ber.ContextTag(1)
	tagTimeWindow            = ber.ContextConstructedTag(2)
	tagHeadAndTailSizeWindow = ber.ContextConstructedTag(3)

	tagHeadSizeKB = ber.ContextTag(0)
	tagTailSizeKB = ber.ContextTag(1)
)

// LogCaptureWindow selects how much of each log file a support data
// collection captures. Implemented by ToolDefaultWindow, DurationWindow,
// TimeWindow and HeadAndTailSizeWindow.
type LogCaptureWindow interface {
	Encode() ber.Element
	isLogCaptureWindow()
}

// ToolDefaultWindow lets the server pick the capture window.
type ToolDefaultWindow struct{}

func (ToolDefaultWindow) Encode() ber.Element {
	return ber.Null(tagToolDefaultWindow)
}

func (ToolDefaultWindow) isLogCaptureWindow() {}

// DurationWindow captures log messages from the most recent Millis.
type DurationWindow struct {
	Millis int64
}

func NewDurationWindow(millis int64) (DurationWindow, error) {
	if millis < 0 {
		return DurationWindow{}, ber.InvalidValue("duration_millis", "negative duration %d", millis)
	}
	return DurationWindow{Millis: millis}, nil
}

func (w DurationWindow) Encode() ber.Element {
	return ber.Int(tagDurationWindow, w.Millis)
}

func (DurationWindow) isLogCaptureWindow() {}

// TimeWindow captures log messages between two instants, in milliseconds
// since the Unix epoch.
type TimeWindow struct {
	StartMillis int64
	EndMillis   int64
}

func NewTimeWindow(startMillis, endMillis int64) (TimeWindow, error) {
	if startMillis < 0 {
		return TimeWindow{}, ber.InvalidValue("start_millis", "negative start %d", startMillis)
	}
	if endMillis < startMillis {
		return TimeWindow{}, ber.InvalidValue("end_millis", "end %d precedes start %d", endMillis, startMillis)
	}
	return TimeWindow{StartMillis: startMillis, EndMillis: endMillis}, nil
}

func (w TimeWindow) Encode() ber.Element {
	return ber.Sequence(tagTimeWindow,
		ber.Int(ber.TagInteger, w.StartMillis),
		ber.Int(ber.TagInteger, w.EndMillis),
	)
}

func (TimeWindow) isLogCaptureWindow() {}

// HeadAndTailSizeWindow captures the first HeadKB and last TailKB
// kilobytes of each file. A nil size is absent, which is distinct from 0.
type HeadAndTailSizeWindow struct {
	HeadKB *int32
	TailKB *int32
}

func NewHeadAndTailSizeWindow(headKB, tailKB *int32) (HeadAndTailSizeWindow, error) {
	if headKB != nil && *headKB < 0 {
		return HeadAndTailSizeWindow{}, ber.InvalidValue("head_size_kb", "negative size %d", *headKB)
	}
	if tailKB != nil && *tailKB < 0 {
		return HeadAndTailSizeWindow{}, ber.InvalidValue("tail_size_kb", "negative size %d", *tailKB)
	}
	return HeadAndTailSizeWindow{HeadKB: copyInt32(headKB), TailKB: copyInt32(tailKB)}, nil
}

func (w HeadAndTailSizeWindow) Encode() ber.Element {
	var children []ber.Element
	if w.HeadKB != nil {
		children = append(children, ber.Int(tagHeadSizeKB, int64(*w.HeadKB)))
	}
	if w.TailKB != nil {
		children = append(children, ber.Int(tagTailSizeKB, int64(*w.TailKB)))
	}
	return ber.Sequence(tagHeadAndTailSizeWindow, children...)
}

func (HeadAndTailSizeWindow) isLogCaptureWindow() {}

// DecodeLogCaptureWindow selects the variant by tag.
func DecodeLogCaptureWindow(e ber.Element) (LogCaptureWindow, error) {
	switch e.Tag() {
	case tagToolDefaultWindow:
		if err := decodeNull(e, "tool_default_window"); err != nil {
			return nil, err
		}
		return ToolDefaultWindow{}, nil
	case tagDurationWindow:
		millis, err := decodeInt64(e, "duration_millis")
		if err != nil {
			return nil, err
		}
		return asWindow(NewDurationWindow(millis))
	case tagTimeWindow:
		return decodeTimeWindow(e)
	case tagHeadAndTailSizeWindow:
		return decodeHeadAndTailSizeWindow(e)
	default:
		return nil, ber.UnrecognizedTag("log_capture_window", e.Tag())
	}
}

func decodeTimeWindow(e ber.Element) (LogCaptureWindow, error) {
	r := e.Children()
	startElem, err := r.Expect(ber.TagInteger, "start_millis")
	if err != nil {
		return nil, err
	}
	endElem, err := r.Expect(ber.TagInteger, "end_millis")
	if err != nil {
		return nil, err
	}
	if err := r.Done("time_window"); err != nil {
		return nil, err
	}
	start, err := decodeInt64(startElem, "start_millis")
	if err != nil {
		return nil, err
	}
	end, err := decodeInt64(endElem, "end_millis")
	if err != nil {
		return nil, err
	}
	return asWindow(NewTimeWindow(start, end))
}

func decodeHeadAndTailSizeWindow(e ber.Element) (LogCaptureWindow, error) {
	r := e.Children()
	head, err := optionalInt32(r, tagHeadSizeKB, "head_size_kb")
	if err != nil {
		return nil, err
	}
	tail, err := optionalInt32(r, tagTailSizeKB, "tail_size_kb")
	if err != nil {
		return nil, err
	}
	if err := r.Done("head_and_tail_size_window"); err != nil {
		return nil, err
	}
	return asWindow(NewHeadAndTailSizeWindow(head, tail))
}

func optionalInt32(r *ber.Reader, tag uint8, field string) (*int32, error) {
	e, ok, err := r.Optional(tag)
	if err != nil {
		return nil, ber.Annotate(err, field)
	}
	if !ok {
		return nil, nil
	}
	v, err := decodeInt32(e, field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func asWindow[T LogCaptureWindow](v T, err error) (LogCaptureWindow, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func copyInt32(p *int32) *int32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
