package chronics

import (
	"fmt"
	"time"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// TableHandler serves rows from memory. It is the handler used in tests and
// for programmatically generated scenarios; NextChronics rewinds to the start
// so the same scenario replays on every reset.
type TableHandler struct {
	Rows     []Row
	Interval time.Duration
	Start    time.Time
	// Horizon is how many upcoming rows Forecasts exposes.
	Horizon int

	cursor int
}

func NewTable(rows []Row, interval time.Duration) *TableHandler {
	return &TableHandler{
		Rows:     rows,
		Interval: interval,
		Start:    time.Date(2019, time.January, 6, 0, 0, 0, 0, time.UTC),
		Horizon:  1,
	}
}

func (t *TableHandler) Initialize(loadNames, genNames, lineNames, subNames []string) error {
	return nil
}

func (t *TableHandler) NextChronics() error {
	t.cursor = 0
	return nil
}

func (t *TableHandler) LoadNext() (Row, error) {
	if t.cursor >= len(t.Rows) {
		return Row{}, ErrEndOfEpisode
	}
	r := cloneRow(t.Rows[t.cursor])
	t.cursor++
	return r, nil
}

func (t *TableHandler) Forecasts() []Forecast {
	var out []Forecast
	for i := 0; i < t.Horizon && t.cursor+i < len(t.Rows); i++ {
		out = append(out, Forecast{
			At:  t.Start.Add(time.Duration(t.cursor+i) * t.Interval),
			Row: cloneRow(t.Rows[t.cursor+i]),
		})
	}
	return out
}

func (t *TableHandler) MaxEpisodeDuration() int { return len(t.Rows) }

func (t *TableHandler) TimeInterval() time.Duration {
	if t.Interval == 0 {
		return 5 * time.Minute
	}
	return t.Interval
}

func (t *TableHandler) CheckValidity(s *grid.GridSchema) error {
	if len(t.Rows) == 0 {
		return fmt.Errorf("chronics: table has no rows")
	}
	for i := range t.Rows {
		if err := t.Rows[i].validate(s); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
