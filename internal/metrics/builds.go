package metrics

import (
	"strconv"
	"strings"

	"buildwatch/internal/models"
)

const maxBuildMinutes = 60

// BuildPercentages holds integer shares of builds by outcome.
type BuildPercentages struct {
	Passing int `json:"passing"`
	Failing int `json:"failing"`
	Other   int `json:"other"`
}

// ComputeBuildPercentages counts builds by result using integer division, so the
// three shares may add up to less than 100. Aborted and running builds count as other.
func ComputeBuildPercentages(builds models.BuildCollection) BuildPercentages {
	var passing, failing, other int
	for _, b := range builds {
		switch b.Result {
		case models.ResultSuccess:
			passing++
		case models.ResultFailure:
			failing++
		default:
			other++
		}
	}
	total := passing + failing + other
	if total == 0 {
		return BuildPercentages{}
	}
	return BuildPercentages{
		Passing: passing * 100 / total,
		Failing: failing * 100 / total,
		Other:   other * 100 / total,
	}
}

// BuildTime is the duration of one build in whole minutes.
type BuildTime struct {
	Number  int   `json:"number"`
	Minutes int64 `json:"minutes"`
}

// BuildTimes lists build durations in minutes, capped at one hour.
func BuildTimes(builds models.BuildCollection) []BuildTime {
	out := make([]BuildTime, 0, len(builds))
	for _, b := range builds {
		minutes := b.Duration / 1000 / 60
		if minutes > maxBuildMinutes {
			minutes = maxBuildMinutes
		}
		out = append(out, BuildTime{Number: b.Number, Minutes: minutes})
	}
	return out
}

// FormatMillis renders a duration as "1d:2h:3m:4s", leaving out zero components.
func FormatMillis(ms int64) string {
	remainder := ms / 1000
	seconds := remainder % 60
	remainder /= 60
	minutes := remainder % 60
	remainder /= 60
	hours := remainder % 24
	days := remainder / 24

	var sb strings.Builder
	if days != 0 {
		sb.WriteString(strconv.FormatInt(days, 10) + "d:")
	}
	if hours != 0 {
		sb.WriteString(strconv.FormatInt(hours, 10) + "h:")
	}
	if minutes != 0 {
		sb.WriteString(strconv.FormatInt(minutes, 10) + "m:")
	}
	if seconds != 0 {
		sb.WriteString(strconv.FormatInt(seconds, 10) + "s")
	}
	return sb.String()
}
