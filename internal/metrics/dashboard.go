package metrics

import (
	"errors"
	"time"

	"buildwatch/internal/history"
	"buildwatch/internal/models"
)

// DashboardBuilds is how many of the newest builds a dashboard lists.
const DashboardBuilds = 20

// Dashboard is everything shown on a pipeline page.
type Dashboard struct {
	Pipeline     models.Pipeline        `json:"pipeline"`
	Light        BuildLight             `json:"light"`
	Earliest     string                 `json:"earliest,omitempty"`
	TotalBuilds  int                    `json:"total_builds"`
	TimeData     *TimeData              `json:"time_data,omitempty"`
	Week         []DayBucket            `json:"week"`
	Timeline     []models.TimelinePoint `json:"timeline,omitempty"`
	TopFailures  []FailureCount         `json:"top_failures"`
	Percentages  BuildPercentages       `json:"percentages"`
	LatestBuilds models.BuildCollection `json:"latest_builds"`
	BuildTimes   []BuildTime            `json:"build_times"`
	Degraded     bool                   `json:"degraded,omitempty"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// BuildDashboard aggregates a pipeline's builds as of now. An empty collection yields
// a dashboard without time data.
func BuildDashboard(p models.Pipeline, builds models.BuildCollection, now time.Time, loc *time.Location) (Dashboard, error) {
	if loc == nil {
		loc = time.Local
	}
	latest := builds.Last(DashboardBuilds)
	d := Dashboard{
		Pipeline:     p,
		Light:        Light(p, builds),
		TotalBuilds:  len(builds),
		TopFailures:  TopFailingJobs(builds, p.DisplayName()),
		Percentages:  ComputeBuildPercentages(builds),
		LatestBuilds: latest,
		BuildTimes:   BuildTimes(latest),
		GeneratedAt:  now.UTC(),
	}
	if first, ok := firstBuild(builds); ok {
		d.Earliest = time.UnixMilli(first.Timestamp).In(loc).Format(EarliestLayout)
	}

	slices, err := history.DeriveSlices(builds, now)
	switch {
	case errors.Is(err, history.ErrNoBuilds):
		d.Week = WeekBreakdown(nil, now, loc)
		return d, nil
	case err != nil:
		return Dashboard{}, err
	}

	timeData := Summarize(slices, loc)
	d.TimeData = &timeData
	d.Week = WeekBreakdown(slices, now, loc)
	d.Timeline = history.BuildTimeline(slices, weekStart(now, loc), now, history.DefaultTimelinePoints)
	return d, nil
}

func firstBuild(builds models.BuildCollection) (models.Build, bool) {
	if len(builds) == 0 {
		return models.Build{}, false
	}
	return builds[0], true
}

// weekStart is local midnight of the oldest day WeekBreakdown covers.
func weekStart(now time.Time, loc *time.Location) time.Time {
	today := now.In(loc)
	return time.Date(today.Year(), today.Month(), today.Day()-(WeekDays-1), 0, 0, 0, 0, loc)
}
