package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oncoweave/pipeline/pkg/table"
)

// SurvivalPoint is one step of a Kaplan-Meier curve.
type SurvivalPoint struct {
	Time     float64 `json:"time"`
	Survival float64 `json:"survival"`
	AtRisk   int     `json:"at_risk"`
	Events   int     `json:"events"`
}

// KaplanMeier estimates the survival function from follow-up times and event
// flags (true = death observed, false = censored). The curve only steps at
// event times; censored patients just leave the risk set.
func KaplanMeier(times []float64, events []bool) ([]SurvivalPoint, error) {
	if len(times) != len(events) {
		return nil, fmt.Errorf("times and events differ in length: %d != %d", len(times), len(events))
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("no survival observations")
	}

	type observation struct {
		time  float64
		event bool
	}
	obs := make([]observation, len(times))
	for i := range times {
		obs[i] = observation{time: times[i], event: events[i]}
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].time < obs[j].time })

	var curve []SurvivalPoint
	survival := 1.0
	atRisk := len(obs)

	i := 0
	for i < len(obs) {
		t := obs[i].time
		eventCount, removed := 0, 0
		for i < len(obs) && obs[i].time == t {
			if obs[i].event {
				eventCount++
			}
			removed++
			i++
		}
		if eventCount > 0 {
			survival *= 1 - float64(eventCount)/float64(atRisk)
			curve = append(curve, SurvivalPoint{
				Time:     t,
				Survival: survival,
				AtRisk:   atRisk,
				Events:   eventCount,
			})
		}
		atRisk -= removed
	}
	return curve, nil
}

// deceasedValues are the vital-status spellings that count as an observed
// event across the three cohorts.
var deceasedValues = map[string]struct{}{
	"deceased":             {},
	"dead":                 {},
	"died of disease":      {},
	"died of other causes": {},
	"1":                    {},
	"yes":                  {},
}

// SurvivalFromTable pulls follow-up days and event flags out of a harmonized
// table. Rows missing either column are dropped.
func SurvivalFromTable(t *table.Table, timeCol, statusCol string) ([]float64, []bool, error) {
	if !t.HasColumn(timeCol) || !t.HasColumn(statusCol) {
		return nil, nil, fmt.Errorf("table missing %q or %q", timeCol, statusCol)
	}

	var times []float64
	var events []bool
	for i := 0; i < t.NumRows(); i++ {
		timeCell, _ := t.Cell(i, timeCol)
		statusCell, _ := t.Cell(i, statusCol)
		if table.Missing(timeCell) || table.Missing(statusCell) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(timeCell), 64)
		if err != nil || v < 0 {
			continue
		}
		_, died := deceasedValues[strings.ToLower(strings.TrimSpace(statusCell))]
		times = append(times, v)
		events = append(events, died)
	}
	if len(times) == 0 {
		return nil, nil, fmt.Errorf("no usable survival rows in %q/%q", timeCol, statusCol)
	}
	return times, events, nil
}

// MedianSurvival returns the first time the curve drops to 0.5 or below, or
// -1 when it never does.
func MedianSurvival(curve []SurvivalPoint) float64 {
	for _, point := range curve {
		if point.Survival <= 0.5 {
			return point.Time
		}
	}
	return -1
}
