package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownCapability   = errors.New("unknown capability")
	ErrDuplicateCapability = errors.New("capability already registered")
	ErrNoVersion           = errors.New("version not reported")
	ErrNotAvailable        = errors.New("capability not available")
)

// Status is the outcome of probing a capability.
type Status int

const (
	Unavailable Status = iota
	Available
	VersionTooLow
)

func (s Status) String() string {
	switch s {
	case Available:
		return "available"
	case VersionTooLow:
		return "version_too_low"
	default:
		return "unavailable"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Info is what a check learns about a capability it located.
type Info struct {
	// Version is the detected version, or empty when the capability does
	// not report one.
	Version string
	// Location is where the capability was found: a binary path or a
	// server address.
	Location string
}

// Check locates a capability. A non-nil error means it is unavailable.
type Check func(ctx context.Context) (Info, error)

// Result is the memoized outcome of a probe.
type Result struct {
	Name       string
	MinVersion string
	Status     Status
	Info       Info
	Err        error
}

// OK reports whether the capability is available and meets its version floor.
func (r Result) OK() bool {
	return r.Status == Available
}

func (r Result) String() string {
	want := r.Name
	if r.MinVersion != "" {
		want += ">=" + r.MinVersion
	}
	switch r.Status {
	case Available:
		if r.Info.Version != "" {
			return fmt.Sprintf("%s: available (%s)", want, r.Info.Version)
		}
		return want + ": available"
	case VersionTooLow:
		return fmt.Sprintf("%s: version too low (%s)", want, r.Info.Version)
	}
	if r.Err != nil {
		return fmt.Sprintf("%s: unavailable: %v", want, r.Err)
	}
	return want + ": unavailable"
}

type resultJSON struct {
	Name       string `json:"name" yaml:"name"`
	MinVersion string `json:"min_version,omitempty" yaml:"min_version,omitempty"`
	Status     Status `json:"status" yaml:"status"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Location   string `json:"location,omitempty" yaml:"location,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r Result) report() resultJSON {
	out := resultJSON{
		Name:       r.Name,
		MinVersion: r.MinVersion,
		Status:     r.Status,
		Version:    r.Info.Version,
		Location:   r.Info.Location,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.report())
}

// MarshalYAML implements yaml.Marshaler.
func (r Result) MarshalYAML() (any, error) {
	return r.report(), nil
}
