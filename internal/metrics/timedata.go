package metrics

import (
	"fmt"
	"time"

	"buildwatch/internal/models"
)

// EarliestLayout formats the start of the recorded history.
const EarliestLayout = "Monday, 02 Jan 2006, at 15:04:05"

// HMS is a total number of seconds split into hours, minutes and seconds.
type HMS struct {
	Hours        int64  `json:"h"`
	Minutes      int64  `json:"m"`
	Seconds      int64  `json:"s"`
	Formatted    string `json:"formatted"`
	TotalSeconds int64  `json:"ts"`
	Percent      string `json:"perc"`
}

// TimeData summarises how long a pipeline has been green and red.
type TimeData struct {
	Slices   []models.Slice `json:"build_slices"`
	Earliest string         `json:"earliest,omitempty"`
	Green    HMS            `json:"green"`
	Red      HMS            `json:"red"`
}

// CalculateHMS splits totalSeconds by repeated floor division by 60.
func CalculateHMS(totalSeconds int64) HMS {
	seconds := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := totalSeconds / 3600
	return HMS{
		Hours:        hours,
		Minutes:      minutes,
		Seconds:      seconds,
		Formatted:    fmt.Sprintf("%dh %dm", hours, minutes),
		TotalSeconds: totalSeconds,
	}
}

// Summarize totals green and red time over the whole history. Percentages are left
// empty when there is no green or red time at all.
func Summarize(slices []models.Slice, loc *time.Location) TimeData {
	if loc == nil {
		loc = time.Local
	}
	data := TimeData{Slices: slices}
	if len(slices) > 0 {
		data.Earliest = time.Unix(slices[0].Start, 0).In(loc).Format(EarliestLayout)
	}

	var green, red int64
	for _, s := range slices {
		switch s.Result {
		case models.ResultSuccess:
			green += s.Duration
		case models.ResultFailure:
			red += s.Duration
		}
	}

	data.Green = CalculateHMS(green)
	data.Red = CalculateHMS(red)
	if total := green + red; total > 0 {
		data.Green.Percent = formatPercent(float64(green) / float64(total) * 100)
		data.Red.Percent = formatPercent(float64(red) / float64(total) * 100)
	}
	return data
}

func formatPercent(v float64) string {
	return fmt.Sprintf("(%.1f%%)", v)
}
