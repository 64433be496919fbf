// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/tomtom215/cantine/internal/frame"
	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/metrics"
)

// Group statistic columns added by GroupStatistics.
const (
	ColForecastRatioMean = "forecast_ratio_mean"
	ColForecastRatioStd  = "forecast_ratio_std"
	ColActualRatioMean   = "actual_ratio_mean"
	ColActualRatioStd    = "actual_ratio_std"
)

// GroupStatistic holds the attendance ratios of one canteen in one ISO week,
// averaged over school years.
type GroupStatistic struct {
	ForecastRatioMean float64
	ForecastRatioStd  float64
	ActualRatioMean   float64
	ActualRatioStd    float64
}

// GroupKeys names the columns the statistics are grouped and joined on.
type GroupKeys struct {
	Canteen    string
	Week       string
	SchoolYear string
}

// GroupStatistics learns per (canteen, ISO week) mean and standard deviation
// of forecast/enrollment and actual/enrollment from training rows, and joins
// them onto any frame. Unseen (canteen, week) pairs get NaN.
//
// The forecast ratio pair is kept in the fitted state but only added to the
// output when KeepForecastRatio is set.
type GroupStatistics struct {
	Keys              GroupKeys
	Forecast          string
	Enrollment        string
	Target            string
	DateColumn        string
	Cutoff            time.Time
	KeepForecastRatio bool

	Stats  map[string]GroupStatistic
	Fitted bool
}

// NewGroupStatistics validates the configuration.
func NewGroupStatistics(keys GroupKeys, forecast, enrollment, target, dateColumn string) (*GroupStatistics, error) {
	for name, v := range map[string]string{
		"canteen key": keys.Canteen, "week key": keys.Week, "school year key": keys.SchoolYear,
		"forecast": forecast, "enrollment": enrollment, "target": target,
	} {
		if v == "" {
			return nil, configErr("statistical_features", "%s column name is empty", name)
		}
	}
	return &GroupStatistics{
		Keys:       keys,
		Forecast:   forecast,
		Enrollment: enrollment,
		Target:     target,
		DateColumn: dateColumn,
	}, nil
}

func groupKey(canteen string, week float64) string {
	return canteen + "\x1f" + strconv.Itoa(int(week))
}

type ratioSamples struct {
	forecast []float64
	actual   []float64
}

// Fit computes the statistics from training rows only.
func (g *GroupStatistics) Fit(_ context.Context, df *frame.Frame) error {
	if g.DateColumn != "" {
		dates, err := df.Times(g.DateColumn)
		if err != nil {
			return err
		}
		if err := checkCutoff("statistical_features", dates, g.Cutoff); err != nil {
			return err
		}
	}

	canteens, err := df.Strings(g.Keys.Canteen)
	if err != nil {
		return err
	}
	weeks, err := df.Floats(g.Keys.Week)
	if err != nil {
		return err
	}
	years, err := df.Strings(g.Keys.SchoolYear)
	if err != nil {
		return err
	}
	forecast, err := df.Floats(g.Forecast)
	if err != nil {
		return err
	}
	enrollment, err := df.Floats(g.Enrollment)
	if err != nil {
		return err
	}
	actual, err := df.Floats(g.Target)
	if err != nil {
		return ErrNoTarget
	}

	// School years are kept in first-seen order so the averages do not
	// depend on map iteration order.
	type weekGroup struct {
		years   []string
		samples map[string]*ratioSamples
	}
	groups := make(map[string]*weekGroup)
	for i := range canteens {
		if math.IsNaN(weeks[i]) {
			continue
		}
		key := groupKey(canteens[i], weeks[i])
		grp, ok := groups[key]
		if !ok {
			grp = &weekGroup{samples: make(map[string]*ratioSamples)}
			groups[key] = grp
		}
		s, ok := grp.samples[years[i]]
		if !ok {
			s = &ratioSamples{}
			grp.samples[years[i]] = s
			grp.years = append(grp.years, years[i])
		}
		s.forecast = append(s.forecast, divide(forecast[i], enrollment[i]))
		s.actual = append(s.actual, divide(actual[i], enrollment[i]))
	}

	g.Stats = make(map[string]GroupStatistic, len(groups))
	for key, grp := range groups {
		var fm, fs, am, as []float64
		for _, year := range grp.years {
			s := grp.samples[year]
			fm = append(fm, nanMean(s.forecast))
			fs = append(fs, nanStd(s.forecast))
			am = append(am, nanMean(s.actual))
			as = append(as, nanStd(s.actual))
		}
		g.Stats[key] = GroupStatistic{
			ForecastRatioMean: nanMean(fm),
			ForecastRatioStd:  nanMean(fs),
			ActualRatioMean:   nanMean(am),
			ActualRatioStd:    nanMean(as),
		}
	}
	g.Fitted = true
	return nil
}

// Transform left-joins the fitted statistics on (canteen, week).
func (g *GroupStatistics) Transform(_ context.Context, df *frame.Frame) (*frame.Frame, error) {
	if !g.Fitted {
		return nil, ErrNotFitted
	}
	canteens, err := df.Strings(g.Keys.Canteen)
	if err != nil {
		return nil, err
	}
	weeks, err := df.Floats(g.Keys.Week)
	if err != nil {
		return nil, err
	}

	n := df.Len()
	fm, fs := make([]float64, n), make([]float64, n)
	am, as := make([]float64, n), make([]float64, n)
	unseen := 0
	for i := 0; i < n; i++ {
		var st GroupStatistic
		ok := !math.IsNaN(weeks[i])
		if ok {
			st, ok = g.Stats[groupKey(canteens[i], weeks[i])]
		}
		if !ok {
			unseen++
			fm[i], fs[i], am[i], as[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			continue
		}
		fm[i], fs[i], am[i], as[i] = st.ForecastRatioMean, st.ForecastRatioStd, st.ActualRatioMean, st.ActualRatioStd
	}
	if unseen > 0 {
		metrics.UnseenGroups.Add(float64(unseen))
		logging.Debug().
			Str("stage", "statistical_features").
			Int("rows", unseen).
			Msg("unseen canteen/week groups, statistics left missing")
	}

	out := df.Clone()
	if g.KeepForecastRatio {
		if err := out.SetFloat(ColForecastRatioMean, fm); err != nil {
			return nil, err
		}
		if err := out.SetFloat(ColForecastRatioStd, fs); err != nil {
			return nil, err
		}
	}
	if err := out.SetFloat(ColActualRatioMean, am); err != nil {
		return nil, err
	}
	if err := out.SetFloat(ColActualRatioStd, as); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup returns the statistic fitted for a canteen and ISO week.
func (g *GroupStatistics) Lookup(canteen string, week int) (GroupStatistic, bool) {
	st, ok := g.Stats[groupKey(canteen, float64(week))]
	return st, ok
}

func divide(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) {
		return math.NaN()
	}
	return num / den
}
