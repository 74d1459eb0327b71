// Package edl defines the edit decision list produced by AI analysis and
// consumed by the video assembler.
package edl

// MinSegmentSeconds is the shortest keep-segment worth rendering. Anything
// shorter is treated as a model glitch and dropped.
const MinSegmentSeconds = 0.5

// Segment is one AI-proposed keep-range within an uploaded source video.
// Times are in seconds from the start of the source.
type Segment struct {
	SourceIndex int     `json:"source_index"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Reason      string  `json:"reason"`
}

// List is an ordered edit decision list. Order defines final output order.
// A source may appear multiple times; overlaps are permitted.
type List []Segment

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Clamped returns a copy with EndTime clamped to the source's actual duration.
// Clamping happens before validation so a segment that merely overshoots the
// end of its source is trimmed rather than rejected.
func (s Segment) Clamped(sourceDuration float64) Segment {
	if s.EndTime > sourceDuration {
		s.EndTime = sourceDuration
	}
	return s
}

// Usable reports whether the (already clamped) segment should be rendered:
// its source index must be valid, its range non-empty, and its duration at
// least MinSegmentSeconds.
func (s Segment) Usable(sourceCount int) bool {
	if s.SourceIndex < 0 || s.SourceIndex >= sourceCount {
		return false
	}
	if s.EndTime <= s.StartTime {
		return false
	}
	return s.Duration() >= MinSegmentSeconds
}

// TotalDuration sums the durations of all segments in the list.
func (l List) TotalDuration() float64 {
	var total float64
	for _, s := range l {
		total += s.Duration()
	}
	return total
}
