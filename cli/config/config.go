package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pithecene-io/extop/types"
)

// Config represents a changelog.yaml configuration file.
// All values are optional and act as defaults for changelogctl flags.
// CLI flags always override config values.
type Config struct {
	Request RequestConfig `yaml:"request"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// RequestConfig holds changelog batch request defaults.
type RequestConfig struct {
	Start                    StartConfig      `yaml:"start"`
	MaxChanges               int32            `yaml:"max_changes"`
	MaxWait                  Duration         `yaml:"max_wait"`
	WaitForMaxChanges        bool             `yaml:"wait_for_max_changes"`
	IncludeBases             []string         `yaml:"include_bases"`
	ExcludeBases             []string         `yaml:"exclude_bases"`
	ChangeTypes              []string         `yaml:"change_types"`
	ContinueOnMissingChanges bool             `yaml:"continue_on_missing_changes"`
	Selection                *SelectionConfig `yaml:"selection,omitempty"`
}

// StartConfig selects the starting point.
// From is one of beginning, end, change_number or token.
type StartConfig struct {
	From         string `yaml:"from"`
	ChangeNumber int64  `yaml:"change_number"`
	// Token is the base64-encoded resume token.
	Token string `yaml:"token"`
}

// SelectionConfig selects entries by attribute or notification destination.
// Mode is one of any, all, ignore or notification.
type SelectionConfig struct {
	Mode              string   `yaml:"mode"`
	Attributes        []string `yaml:"attributes"`
	IgnoreOperational bool     `yaml:"ignore_operational"`
	Destination       string   `yaml:"destination"`
}

// OutputConfig holds output defaults.
type OutputConfig struct {
	Format   string `yaml:"format"`
	Encoding string `yaml:"encoding"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q", s)
	}
	d.Duration = parsed
	return nil
}

// StartingPoint converts the start section. An empty From means the
// beginning of the changelog.
func (s StartConfig) StartingPoint() (types.StartingPoint, error) {
	switch strings.ToLower(s.From) {
	case "", "beginning":
		return types.BeginningOfChangelog{}, nil
	case "end":
		return types.EndOfChangelog{}, nil
	case "change_number":
		sp, err := types.NewResumeWithChangeNumber(s.ChangeNumber)
		if err != nil {
			return nil, err
		}
		return sp, nil
	case "token":
		token, err := base64.StdEncoding.DecodeString(s.Token)
		if err != nil {
			return nil, fmt.Errorf("invalid start.token: %w", err)
		}
		sp, err := types.NewResumeWithToken(token)
		if err != nil {
			return nil, err
		}
		return sp, nil
	default:
		return nil, fmt.Errorf("unknown start.from %q (valid: beginning, end, change_number, token)", s.From)
	}
}

// Criteria converts the selection section.
func (s *SelectionConfig) Criteria() (types.SelectionCriteria, error) {
	var (
		sc  types.SelectionCriteria
		err error
	)
	switch strings.ToLower(s.Mode) {
	case "any":
		sc, err = types.NewAnyAttributes(s.Attributes...)
	case "all":
		sc, err = types.NewAllAttributes(s.Attributes...)
	case "ignore":
		sc, err = types.NewIgnoreAttributes(s.IgnoreOperational, s.Attributes...)
	case "notification":
		sc, err = types.NewNotificationDestination(s.Destination)
	default:
		return nil, fmt.Errorf("unknown selection.mode %q (valid: any, all, ignore, notification)", s.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	return sc, nil
}

// Options converts everything except the starting point and max changes
// into request options.
func (r *RequestConfig) Options() ([]types.RequestOption, error) {
	var opts []types.RequestOption
	if r.MaxWait.Duration > 0 {
		opts = append(opts, types.WithMaxWait(r.MaxWait.Milliseconds()))
	}
	if r.WaitForMaxChanges {
		opts = append(opts, types.WithWaitForMaxChanges(true))
	}
	if len(r.IncludeBases) > 0 {
		opts = append(opts, types.WithIncludeBases(r.IncludeBases...))
	}
	if len(r.ExcludeBases) > 0 {
		opts = append(opts, types.WithExcludeBases(r.ExcludeBases...))
	}
	if len(r.ChangeTypes) > 0 {
		changeTypes := make([]types.ChangeType, 0, len(r.ChangeTypes))
		for _, name := range r.ChangeTypes {
			ct, err := types.ParseChangeType(name)
			if err != nil {
				return nil, fmt.Errorf("invalid change_types entry: %w", err)
			}
			changeTypes = append(changeTypes, ct)
		}
		opts = append(opts, types.WithChangeTypes(changeTypes...))
	}
	if r.ContinueOnMissingChanges {
		opts = append(opts, types.WithContinueOnMissingChanges(true))
	}
	if r.Selection != nil {
		sc, err := r.Selection.Criteria()
		if err != nil {
			return nil, err
		}
		opts = append(opts, types.WithSelectionCriteria(sc))
	}
	return opts, nil
}

// Build converts the request section into a validated request.
func (r *RequestConfig) Build() (*types.ChangelogBatchRequest, error) {
	sp, err := r.Start.StartingPoint()
	if err != nil {
		return nil, err
	}
	opts, err := r.Options()
	if err != nil {
		return nil, err
	}
	return types.NewChangelogBatchRequest(sp, r.MaxChanges, opts...)
}
