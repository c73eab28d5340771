package metrics

import (
	"time"

	"buildwatch/internal/models"
)

// WeekDays is the number of calendar days covered by WeekBreakdown.
const WeekDays = 7

// DayBucket holds green and red time for one calendar day.
type DayBucket struct {
	Date         string  `json:"date"`
	GreenSeconds int64   `json:"green_seconds"`
	RedSeconds   int64   `json:"red_seconds"`
	GreenPct     float64 `json:"green_pct"`
	RedPct       float64 `json:"red_pct"`
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

// WeekBreakdown buckets slices into the seven local calendar days ending today,
// oldest first. A slice is counted on the day it starts; when it runs past midnight
// the part after 23:59:59 is moved to the next day, provided that day is in range.
func WeekBreakdown(slices []models.Slice, now time.Time, loc *time.Location) []DayBucket {
	if loc == nil {
		loc = time.Local
	}
	today := now.In(loc)
	days := make([]time.Time, WeekDays)
	index := make(map[civilDate]int, WeekDays)
	for i := 0; i < WeekDays; i++ {
		day := time.Date(today.Year(), today.Month(), today.Day()-(WeekDays-1-i), 0, 0, 0, 0, loc)
		days[i] = day
		index[dateOf(day)] = i
	}

	green := make([]int64, WeekDays)
	red := make([]int64, WeekDays)
	add := func(i int, result models.Result, seconds int64) {
		switch result {
		case models.ResultSuccess:
			green[i] += seconds
		case models.ResultFailure:
			red[i] += seconds
		}
	}

	for _, s := range slices {
		start := time.Unix(s.Start, 0).In(loc)
		end := time.Unix(s.End, 0).In(loc)

		duration := s.Duration
		var extra int64
		if dateOf(start) != dateOf(end) {
			almostMidnight := time.Date(start.Year(), start.Month(), start.Day(), 23, 59, 59, 0, loc).Unix()
			extra = s.End - almostMidnight
			duration = almostMidnight - s.Start
		}

		i, ok := index[dateOf(start)]
		if !ok {
			continue
		}
		add(i, s.Result, duration)
		if extra > 0 && i < WeekDays-1 {
			add(i+1, s.Result, extra)
		}
	}

	buckets := make([]DayBucket, WeekDays)
	for i := range buckets {
		buckets[i] = DayBucket{
			Date:         days[i].Format("2006-01-02"),
			GreenSeconds: green[i],
			RedSeconds:   red[i],
		}
		if total := green[i] + red[i]; total > 0 {
			buckets[i].GreenPct = float64(green[i]) / float64(total) * 100
			buckets[i].RedPct = float64(red[i]) / float64(total) * 100
		}
	}
	return buckets
}
