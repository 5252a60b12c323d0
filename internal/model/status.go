// Package model defines the data structures used throughout the application.
//
// The pipeline status is a closed set. Every status-keyed lookup table in
// this package is a fixed-size array indexed by the status's pipeline
// position, so adding a status without extending the tables fails to
// compile instead of silently rendering an empty label.
package model

import (
	"encoding/json"
	"fmt"
)

// Status is where an application currently stands in the hiring pipeline.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// StatusCount is the number of pipeline statuses.
const StatusCount = 5

// Statuses lists every status in pipeline order. The order is meaningful:
// it drives kanban column order and the "status" sort key.
var Statuses = [StatusCount]Status{
	StatusApplied,
	StatusInterview,
	StatusOffer,
	StatusRejected,
	StatusWithdrawn,
}

// Index returns the pipeline position of s, or -1 when s is not a member
// of the enum.
func (s Status) Index() int {
	for i, candidate := range Statuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the five pipeline statuses.
func (s Status) Valid() bool {
	return s.Index() >= 0
}

// Info returns the display metadata for s. Unknown statuses get the zero
// StatusInfo.
func (s Status) Info() StatusInfo {
	i := s.Index()
	if i < 0 {
		return StatusInfo{}
	}
	return statusInfo[i]
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts raw input into a Status, rejecting anything outside
// the enum.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// StatusInfo is the presentation metadata attached to a status.
type StatusInfo struct {
	Label  string `json:"label"`
	Accent string `json:"accent"` // ANSI/hex-neutral color name used by renderers
}

// statusInfo is indexed by pipeline position. Its length is tied to
// StatusCount, so a missing entry is a compile error.
var statusInfo = [StatusCount]StatusInfo{
	{Label: "Applied", Accent: "blue"},
	{Label: "Interview", Accent: "amber"},
	{Label: "Offer", Accent: "emerald"},
	{Label: "Rejected", Accent: "red"},
	{Label: "Withdrawn", Accent: "gray"},
}

// StatusCounts holds one counter per status, indexed by pipeline position.
type StatusCounts [StatusCount]int

// Get returns the count for s, or 0 for an unknown status.
func (c StatusCounts) Get(s Status) int {
	i := s.Index()
	if i < 0 {
		return 0
	}
	return c[i]
}

// Sum returns the total across every status.
func (c StatusCounts) Sum() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Max returns the largest single count (0 for an empty set of counts).
func (c StatusCounts) Max() int {
	max := 0
	for _, n := range c {
		if n > max {
			max = n
		}
	}
	return max
}

// MarshalJSON renders the counts as an object keyed by status name, the
// shape the dashboard expects.
func (c StatusCounts) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, s := range Statuses {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, fmt.Sprintf("%q:%d", s, c[i])...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON accepts the object form written by MarshalJSON. Unknown
// status keys are rejected.
func (c *StatusCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out StatusCounts
	for key, n := range raw {
		i := Status(key).Index()
		if i < 0 {
			return fmt.Errorf("unknown status %q in counts", key)
		}
		out[i] = n
	}
	*c = out
	return nil
}
