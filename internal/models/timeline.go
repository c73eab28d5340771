package models

import "time"

// Slice is an interval of pipeline health between two consecutive builds.
// Start and End are epoch seconds.
type Slice struct {
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Duration int64  `json:"duration"`
	Result   Result `json:"result"`
}

// TimelinePoint is one bucket of a compact health strip.
type TimelinePoint struct {
	ClassName    string           `json:"class"`
	Label        string           `json:"label"`
	Start        time.Time        `json:"start"`
	End          time.Time        `json:"end"`
	GreenSeconds int64            `json:"green_seconds"`
	RedSeconds   int64            `json:"red_seconds"`
	Details      []TimelineDetail `json:"details,omitempty"`
}

// TimelineDetail marks the moment a pipeline turned red inside a bucket.
type TimelineDetail struct {
	Timestamp time.Time `json:"timestamp"`
	Result    Result    `json:"result"`
}
