package metrics

import (
	"sort"
	"strings"

	"buildwatch/internal/models"
)

// BuildLight is the status light shown for a pipeline.
type BuildLight struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	System    string        `json:"system"`
	Current   models.Result `json:"current"`
	Previous  models.Result `json:"previous"`
	Building  bool          `json:"building"`
	BuildTime string        `json:"build_time"`
	Number    int           `json:"number,omitempty"`
}

// Light derives the status light of a pipeline from its newest builds. Previous is
// the result of the newest build that has finished.
func Light(p models.Pipeline, builds models.BuildCollection) BuildLight {
	light := BuildLight{
		ID:     p.ID,
		Name:   p.DisplayName(),
		System: p.System,
	}
	if latest, ok := builds.Latest(); ok {
		light.Number = latest.Number
		light.Current = latest.Result
		light.Building = latest.Building
		light.BuildTime = FormatMillis(latest.Duration)
	}
	if completed, ok := builds.LatestCompleted(); ok {
		light.Previous = completed.Result
	}
	return light
}

// SortLights orders lights by system, then by name.
func SortLights(lights []BuildLight) {
	sort.Slice(lights, func(i, j int) bool {
		if lights[i].System != lights[j].System {
			return lights[i].System < lights[j].System
		}
		return strings.ToLower(lights[i].Name) < strings.ToLower(lights[j].Name)
	})
}
