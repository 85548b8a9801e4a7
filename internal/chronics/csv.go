package chronics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// CSVHandler reads scenarios from directories of semicolon-separated CSV
// files, optionally gzip-compressed (`load_p.csv` or `load_p.csv.gz`).
// Expected files per scenario directory: load_p, load_q, prod_p, prod_v and
// optionally maintenance and hazards (0/1 per line). Column headers carry
// element names and are matched against the orderings given to Initialize,
// so column order in the files does not matter.
type CSVHandler struct {
	// Scenario directories, visited round-robin by NextChronics.
	Dirs     []string
	Interval time.Duration
	Start    time.Time
	Horizon  int

	loadNames []string
	genNames  []string
	lineNames []string

	scenario int
	started  bool
	rows     []Row
	cursor   int
}

func NewCSV(dirs []string, interval time.Duration) *CSVHandler {
	return &CSVHandler{
		Dirs:     dirs,
		Interval: interval,
		Start:    time.Date(2019, time.January, 6, 0, 0, 0, 0, time.UTC),
		Horizon:  1,
	}
}

func (c *CSVHandler) Initialize(loadNames, genNames, lineNames, subNames []string) error {
	if len(c.Dirs) == 0 {
		return fmt.Errorf("chronics: no scenario directories")
	}
	c.loadNames = append([]string(nil), loadNames...)
	c.genNames = append([]string(nil), genNames...)
	c.lineNames = append([]string(nil), lineNames...)
	return nil
}

func (c *CSVHandler) NextChronics() error {
	// First call serves Dirs[0] even on a literal-constructed handler.
	if c.started {
		c.scenario = (c.scenario + 1) % len(c.Dirs)
	}
	c.started = true
	dir := c.Dirs[c.scenario]

	loadP, err := readSeries(filepath.Join(dir, "load_p.csv"), c.loadNames)
	if err != nil {
		return err
	}
	loadQ, err := readSeries(filepath.Join(dir, "load_q.csv"), c.loadNames)
	if err != nil {
		return err
	}
	genP, err := readSeries(filepath.Join(dir, "prod_p.csv"), c.genNames)
	if err != nil {
		return err
	}
	genV, err := readSeries(filepath.Join(dir, "prod_v.csv"), c.genNames)
	if err != nil {
		return err
	}
	maint, err := readOptionalSeries(filepath.Join(dir, "maintenance.csv"), c.lineNames)
	if err != nil {
		return err
	}
	hazards, err := readOptionalSeries(filepath.Join(dir, "hazards.csv"), c.lineNames)
	if err != nil {
		return err
	}

	n := len(loadP)
	if len(loadQ) != n || len(genP) != n || len(genV) != n {
		return fmt.Errorf("chronics: %s: series lengths differ (load_p=%d load_q=%d prod_p=%d prod_v=%d)",
			dir, len(loadP), len(loadQ), len(genP), len(genV))
	}
	c.rows = make([]Row, n)
	for i := 0; i < n; i++ {
		c.rows[i] = Row{LoadP: loadP[i], LoadQ: loadQ[i], GenP: genP[i], GenV: genV[i]}
		if maint != nil && i < len(maint) {
			c.rows[i].Maintenance = toBools(maint[i])
		}
		if hazards != nil && i < len(hazards) {
			c.rows[i].Hazards = toBools(hazards[i])
		}
	}
	c.cursor = 0
	return nil
}

func (c *CSVHandler) LoadNext() (Row, error) {
	if c.cursor >= len(c.rows) {
		return Row{}, ErrEndOfEpisode
	}
	r := cloneRow(c.rows[c.cursor])
	c.cursor++
	return r, nil
}

func (c *CSVHandler) Forecasts() []Forecast {
	var out []Forecast
	for i := 0; i < c.Horizon && c.cursor+i < len(c.rows); i++ {
		out = append(out, Forecast{
			At:  c.Start.Add(time.Duration(c.cursor+i) * c.Interval),
			Row: cloneRow(c.rows[c.cursor+i]),
		})
	}
	return out
}

func (c *CSVHandler) MaxEpisodeDuration() int { return len(c.rows) }

func (c *CSVHandler) TimeInterval() time.Duration {
	if c.Interval == 0 {
		return 5 * time.Minute
	}
	return c.Interval
}

func (c *CSVHandler) CheckValidity(s *grid.GridSchema) error {
	if len(c.rows) == 0 {
		return fmt.Errorf("chronics: scenario not loaded or empty")
	}
	for i := range c.rows {
		if err := c.rows[i].validate(s); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// open tries path then path+".gz", transparently decompressing.
func open(path string) (io.ReadCloser, error) {
	if f, err := os.Open(path); err == nil {
		return f, nil
	}
	f, err := os.Open(path + ".gz")
	if err != nil {
		return nil, fmt.Errorf("chronics: missing %s(.gz)", path)
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("chronics: %s.gz: %w", path, err)
	}
	return struct {
		io.Reader
		io.Closer
	}{zr, f}, nil
}

func readSeries(path string, names []string) ([][]float64, error) {
	rows, err := readOptionalSeries(path, names)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, fmt.Errorf("chronics: missing %s(.gz)", path)
	}
	return rows, nil
}

func readOptionalSeries(path string, names []string) ([][]float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, err := os.Stat(path + ".gz"); os.IsNotExist(err) {
			return nil, nil
		}
	}
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.Comma = ';'
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("chronics: %s: %w", path, err)
	}
	// Column index per requested name.
	cols := make([]int, len(names))
	for i, name := range names {
		cols[i] = -1
		for j, h := range header {
			if h == name {
				cols[i] = j
				break
			}
		}
		if cols[i] == -1 {
			return nil, fmt.Errorf("chronics: %s: missing column %q", path, name)
		}
	}

	var out [][]float64
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chronics: %s: %w", path, err)
		}
		row := make([]float64, len(names))
		for i, col := range cols {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("chronics: %s row %d column %q: %w", path, len(out)+1, names[i], err)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func toBools(v []float64) []bool {
	out := make([]bool, len(v))
	for i := range v {
		out[i] = v[i] != 0
	}
	return out
}
