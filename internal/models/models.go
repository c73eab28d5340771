package models

import (
	"encoding/json"
	"sort"
)

// Pipeline defines a monitored CI job.
type Pipeline struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	System string `yaml:"system" json:"system"`
	URL    string `yaml:"url" json:"url"`
}

// DisplayName returns the configured name, falling back to the ID.
func (p Pipeline) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Result is the outcome reported for a build. The zero value means no result yet.
type Result string

const (
	ResultNone    Result = ""
	ResultSuccess Result = "SUCCESS"
	ResultFailure Result = "FAILURE"
	ResultAborted Result = "ABORTED"
)

// IsHealth reports whether the result changes the red/green state of a pipeline.
func (r Result) IsHealth() bool {
	return r == ResultSuccess || r == ResultFailure
}

// MarshalJSON encodes a missing result as null, the way upstream reports it.
func (r Result) MarshalJSON() ([]byte, error) {
	if r == ResultNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON accepts null as ResultNone.
func (r *Result) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ResultNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Result(s)
	return nil
}

// BuildRef is an entry of the upstream build listing.
type BuildRef struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Build is a single run of a pipeline, or a nested sub-build of one.
type Build struct {
	Number      int     `json:"number"`
	URL         string  `json:"url,omitempty"`
	Timestamp   int64   `json:"timestamp"`
	Duration    int64   `json:"duration"`
	Result      Result  `json:"result"`
	Building    bool    `json:"building"`
	Description *string `json:"description"`
	JobName     string  `json:"jobName,omitempty"`
	SubBuilds   []Build `json:"subBuilds,omitempty"`
	Nested      *Build  `json:"build,omitempty"`
}

// BuildCollection holds the builds of one pipeline ordered by number. Get, Last,
// Latest and LatestCompleted rely on that order; use Sorted on collections of
// unknown order.
type BuildCollection []Build

// Sorted returns a copy ordered by ascending build number.
func (c BuildCollection) Sorted() BuildCollection {
	out := make(BuildCollection, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}

// Get looks up a build by number with a binary search over the sorted collection.
func (c BuildCollection) Get(number int) (Build, bool) {
	idx := sort.Search(len(c), func(i int) bool {
		return c[i].Number >= number
	})
	if idx < len(c) && c[idx].Number == number {
		return c[idx], true
	}
	return Build{}, false
}

// Last returns the newest n builds, oldest first.
func (c BuildCollection) Last(n int) BuildCollection {
	if n <= 0 || len(c) <= n {
		return c
	}
	return c[len(c)-n:]
}

// Latest returns the build with the highest number.
func (c BuildCollection) Latest() (Build, bool) {
	if len(c) == 0 {
		return Build{}, false
	}
	return c[len(c)-1], true
}

// LatestCompleted returns the newest build that is no longer running.
func (c BuildCollection) LatestCompleted() (Build, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if !c[i].Building {
			return c[i], true
		}
	}
	return Build{}, false
}

// Numbers lists the build numbers in collection order.
func (c BuildCollection) Numbers() []int {
	out := make([]int, len(c))
	for i, b := range c {
		out[i] = b.Number
	}
	return out
}
