package analysis

import (
	"time"
)

// ID tipe untuk Analysis
type AnalysisID string

// Capability enum: the named operations exposed by the remote endpoint
type Capability string

const (
	CapabilityFull        Capability = "analyze_image"
	CapabilityOrientation Capability = "get_image_orientation"
	CapabilityColors      Capability = "count_colors"
	CapabilityTextInfo    Capability = "extract_text_info"
)

// Capabilities lists every operation the endpoint is expected to expose.
func Capabilities() []Capability {
	return []Capability{
		CapabilityFull,
		CapabilityOrientation,
		CapabilityColors,
		CapabilityTextInfo,
	}
}

// ConnState enum for the remote endpoint handshake
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnected
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Aggregate Root: Analysis, one persisted analysis run
type Analysis struct {
	ID         AnalysisID `json:"id"`
	Capability Capability `json:"capability"`
	ImageKey   string     `json:"image_key,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Result     string     `json:"result"` // JSON string or plain text from the endpoint
	Failed     bool       `json:"failed"`
	Source     string     `json:"source,omitempty"` // which provider produced it
	DurationMS int64      `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}
