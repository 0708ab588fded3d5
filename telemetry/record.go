package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Record is one generation's statistics.
type Record struct {
	Generation uint64  `csv:"generation"`
	Population int     `csv:"population"`
	Births     int     `csv:"births"`
	Deaths     int     `csv:"deaths"`
	Density    float64 `csv:"density"`
}

// Diff counts cells born and cells died between prev and next. Slices of
// different lengths compare over the shorter one.
func Diff(prev, next []uint32) (births, deaths int) {
	n := min(len(prev), len(next))
	for i := range n {
		was, is := prev[i] != 0, next[i] != 0
		switch {
		case is && !was:
			births++
		case was && !is:
			deaths++
		}
	}
	return births, deaths
}

// Tracker turns a sequence of states into Records.
type Tracker struct {
	prev []uint32
}

// Observe records generation gen with state cells. The first observation,
// and any after a grid size change, reports no births or deaths.
func (t *Tracker) Observe(gen uint64, cells []uint32) Record {
	rec := Record{Generation: gen}
	for _, c := range cells {
		if c != 0 {
			rec.Population++
		}
	}
	if len(cells) > 0 {
		rec.Density = float64(rec.Population) / float64(len(cells))
	}
	if len(t.prev) == len(cells) {
		rec.Births, rec.Deaths = Diff(t.prev, cells)
	}
	t.prev = append(t.prev[:0], cells...)
	return rec
}

// Reset forgets the previous state.
func (t *Tracker) Reset() {
	t.prev = t.prev[:0]
}

// Summary describes the population over a run.
type Summary struct {
	Generations int
	Mean        float64
	StdDev      float64
	Median      float64
	Min         float64
	Max         float64
	Births      int
	Deaths      int
}

// Summarize reduces records to population statistics. It returns the zero
// Summary for no records.
func Summarize(records []Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	pop := make([]float64, len(records))
	s := Summary{Generations: len(records)}
	for i, r := range records {
		pop[i] = float64(r.Population)
		s.Births += r.Births
		s.Deaths += r.Deaths
	}
	s.Mean, s.StdDev = stat.MeanStdDev(pop, nil)
	if len(pop) == 1 {
		s.StdDev = 0
	}
	s.Min, s.Max = floats.Min(pop), floats.Max(pop)

	sort.Float64s(pop)
	s.Median = stat.Quantile(0.5, stat.Empirical, pop, nil)
	return s
}
