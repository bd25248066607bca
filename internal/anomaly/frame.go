// Package anomaly drives per-column outlier detectors over a daily time
// series, trained on a CSV file or on generated data.
package anomaly

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/stat"
)

const dateLayout = "2006-01-02"

var (
	ErrEmptyFrame = errors.New("no data rows")
	ErrDimension  = errors.New("column count does not match")
	ErrNonFinite  = errors.New("non-finite value")
)

// Frame is a set of numeric columns indexed by consecutive days.
// Values is column-major: Values[col][row].
type Frame struct {
	Columns []string
	Dates   []time.Time
	Values  [][]float64
}

func NewFrame(columns []string) *Frame {
	return &Frame{
		Columns: append([]string(nil), columns...),
		Values:  make([][]float64, len(columns)),
	}
}

func (f *Frame) Rows() int { return len(f.Dates) }

func (f *Frame) Width() int { return len(f.Columns) }

// Row returns the values recorded on row i in column order.
func (f *Frame) Row(i int) []float64 {
	row := make([]float64, len(f.Values))
	for c := range f.Values {
		row[c] = f.Values[c][i]
	}
	return row
}

// Append adds one dated row.
func (f *Frame) Append(date time.Time, values []float64) error {
	if len(values) != f.Width() {
		return fmt.Errorf("%w: got %d values for %d columns", ErrDimension, len(values), f.Width())
	}
	f.Dates = append(f.Dates, date)
	for c, v := range values {
		f.Values[c] = append(f.Values[c], v)
	}
	return nil
}

// CheckFinite reports the first NaN or infinite value.
func (f *Frame) CheckFinite() error {
	for c, col := range f.Values {
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w %v in column %q on %s", ErrNonFinite, v, f.Columns[c], f.Dates[i].Format(dateLayout))
			}
		}
	}
	return nil
}

// NextDate is the day after the last row.
func (f *Frame) NextDate() time.Time {
	if f.Rows() == 0 {
		return time.Time{}
	}
	return f.Dates[f.Rows()-1].AddDate(0, 0, 1)
}

// LoadCSV reads a header row and numeric data rows. When the first column
// holds dates (YYYY-MM-DD) it becomes the index; otherwise rows are dated
// one day apart from start.
func LoadCSV(r io.Reader, start time.Time) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyFrame
	}

	header, rows := records[0], records[1:]
	dated := false
	if _, err := time.Parse(dateLayout, strings.TrimSpace(rows[0][0])); err == nil {
		dated = true
		header = header[1:]
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: no value columns", ErrDimension)
	}

	f := NewFrame(header)
	date := start
	for i, rec := range rows {
		line := i + 2
		if dated {
			d, err := time.Parse(dateLayout, strings.TrimSpace(rec[0]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			date, rec = d, rec[1:]
		}
		values := make([]float64, len(rec))
		for c, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, f.Columns[c], err)
			}
			values[c] = v
		}
		if err := f.Append(date, values); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date = date.AddDate(0, 0, 1)
	}
	return f, nil
}

func LoadCSVFile(path string, start time.Time) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadCSV(file, start)
}

// GenerateRandom fills cols standard-normal columns, one row per day from
// start to end inclusive.
func GenerateRandom(cols int, start, end time.Time, rng *rand.Rand) (*Frame, error) {
	if cols < 1 {
		return nil, fmt.Errorf("number of columns must be at least 1, got %d", cols)
	}
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end.Format(dateLayout), start.Format(dateLayout))
	}

	names := make([]string, cols)
	for i := range names {
		names[i] = fmt.Sprintf("Variable_%d", i+1)
	}
	f := NewFrame(names)
	row := make([]float64, cols)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for c := range row {
			row[c] = rng.NormFloat64()
		}
		if err := f.Append(d, row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Summary holds the descriptive statistics of one column.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Describe summarises every column. Std is the sample standard deviation
// and is NaN for a single row.
func (f *Frame) Describe() []Summary {
	out := make([]Summary, len(f.Columns))
	for c, name := range f.Columns {
		sorted := append([]float64(nil), f.Values[c]...)
		sort.Float64s(sorted)
		s := Summary{Column: name, Count: len(sorted)}
		if len(sorted) > 0 {
			s.Mean = stat.Mean(sorted, nil)
			s.Std = math.NaN()
			if len(sorted) > 1 {
				s.Std = stat.StdDev(sorted, nil)
			}
			s.Min = sorted[0]
			s.Max = sorted[len(sorted)-1]
			s.Q25 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
			s.Q50 = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
			s.Q75 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)
		}
		out[c] = s
	}
	return out
}

// Simulate draws one row from a normal distribution per column using the
// column's mean and standard deviation.
func (f *Frame) Simulate(rng *rand.Rand) []float64 {
	row := make([]float64, f.Width())
	for c, s := range f.Describe() {
		std := s.Std
		if math.IsNaN(std) {
			std = 0
		}
		row[c] = s.Mean + std*rng.NormFloat64()
	}
	return row
}

// WriteSummary prints Describe as a table with one row per statistic.
func (f *Frame) WriteSummary(w io.Writer) error {
	stats := f.Describe()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t", s.Column)
	}
	fmt.Fprintln(tw)

	rows := []struct {
		name string
		get  func(Summary) float64
	}{
		{"count", func(s Summary) float64 { return float64(s.Count) }},
		{"mean", func(s Summary) float64 { return s.Mean }},
		{"std", func(s Summary) float64 { return s.Std }},
		{"min", func(s Summary) float64 { return s.Min }},
		{"25%", func(s Summary) float64 { return s.Q25 }},
		{"50%", func(s Summary) float64 { return s.Q50 }},
		{"75%", func(s Summary) float64 { return s.Q75 }},
		{"max", func(s Summary) float64 { return s.Max }},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t", r.name)
		for _, s := range stats {
			fmt.Fprintf(tw, "%.6f\t", r.get(s))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// WriteTable prints every row with its date.
func (f *Frame) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, name := range f.Columns {
		fmt.Fprintf(tw, "%s\t", name)
	}
	fmt.Fprintln(tw)
	for i, d := range f.Dates {
		fmt.Fprintf(tw, "%s\t", d.Format(dateLayout))
		for _, v := range f.Row(i) {
			fmt.Fprintf(tw, "%.6f\t", v)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
