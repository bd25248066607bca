package anomaly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/internal/menu"
	"github.com/aicanalytics/gptmenu/utils"
)

// errQuit ends the session from any prompt.
var errQuit = errors.New("quit")

// Driver runs the interactive train-then-test session.
type Driver struct {
	cfg     *config.AnomalyConfig
	console *menu.Console
	logger  utils.Logger
	rng     *rand.Rand
	now     func() time.Time

	training  *Frame
	factory   Factory
	detectors []Detector
	results   *Frame
}

type Option func(*Driver)

func WithRand(rng *rand.Rand) Option {
	return func(d *Driver) { d.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

func WithLogger(logger utils.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

func NewDriver(cfg *config.AnomalyConfig, console *menu.Console, opts ...Option) *Driver {
	d := &Driver{
		cfg:     cfg,
		console: console,
		logger:  utils.NewNopLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = d.now().UnixNano()
		}
		d.rng = rand.New(rand.NewSource(seed))
	}
	return d
}

// Results holds one row of outlier probabilities per tested date.
func (d *Driver) Results() *Frame { return d.results }

func (d *Driver) Run(ctx context.Context) error {
	d.console.Println("Test AD Model")
	d.console.Printf("Today's date: %s\n", d.now().Format(dateLayout))

	err := d.session(ctx)
	if err != nil && !errors.Is(err, errQuit) {
		return err
	}
	d.console.Println("Exiting script.")
	if d.results != nil && d.results.Rows() > 0 {
		d.console.Println("\nFinal anomaly detection results:")
		return d.results.WriteTable(d.console.Writer())
	}
	return nil
}

func (d *Driver) session(ctx context.Context) error {
	training, err := d.chooseTraining()
	if err != nil {
		return err
	}
	d.training = training
	d.results = NewFrame(training.Columns)

	if err := d.chooseDetector(); err != nil {
		return err
	}
	if err := d.train(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.testRound(); err != nil {
			return err
		}
	}
}

// ask reads one answer. A blank line, "x", "exit" or end of input quits.
func (d *Driver) ask(label string) (string, error) {
	answer, err := d.console.Prompt(label)
	if errors.Is(err, io.EOF) {
		return "", errQuit
	}
	if err != nil {
		return "", err
	}
	switch strings.ToLower(answer) {
	case "", "x", "exit":
		return "", errQuit
	}
	return answer, nil
}

func (d *Driver) chooseTraining() (*Frame, error) {
	for {
		d.console.Println("Please select the training data source:")
		d.console.Println("1. Load data from a file")
		d.console.Println("2. Generate random data")
		choice, err := d.ask("Enter your choice (1 or 2): ")
		if err != nil {
			return nil, err
		}

		switch choice {
		case "1":
			path, err := d.ask("Enter the file path: ")
			if err != nil {
				return nil, err
			}
			frame, err := LoadCSVFile(path, d.cfg.StartDate)
			if err == nil {
				err = frame.CheckFinite()
			}
			if err != nil {
				d.console.Printf("Could not load %s: %v\n", path, err)
				continue
			}
			d.logger.Info("Training data loaded", "path", path, "rows", frame.Rows(), "columns", frame.Width())
			return frame, nil
		case "2":
			raw, err := d.ask("Enter the number of columns (variables): ")
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				d.console.Println("Please enter a whole number of at least 1.")
				continue
			}
			frame, err := GenerateRandom(n, d.cfg.StartDate, d.now(), d.rng)
			if err != nil {
				d.console.Printf("Could not generate data: %v\n", err)
				continue
			}
			d.logger.Info("Training data generated", "rows", frame.Rows(), "columns", frame.Width())
			return frame, nil
		default:
			d.console.Println("Invalid choice. Please try again.")
		}
	}
}

func (d *Driver) chooseDetector() error {
	factories := Factories(d.cfg.Bins, d.cfg.Neighbors)
	d.console.Println("Select the anomaly detection model:")
	for i, f := range factories {
		d.console.Printf("%d. %s\n", i+1, f.Name)
	}
	choice, err := d.ask(fmt.Sprintf("Enter your choice (1 to %d): ", len(factories)))
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(factories) {
		d.console.Printf("Invalid choice. Defaulting to %s.\n", factories[0].Name)
		n = 1
	}
	d.factory = factories[n-1]
	d.console.Printf("Selected model: %s\n", d.factory.Name)
	return nil
}

// train fits one detector per column.
func (d *Driver) train() error {
	d.console.Println("Training the anomaly detection model...")
	d.detectors = make([]Detector, d.training.Width())
	for c, name := range d.training.Columns {
		det := d.factory.New()
		if err := det.Fit(d.training.Values[c]); err != nil {
			return fmt.Errorf("fit %s on %s: %w", det.Name(), name, err)
		}
		d.detectors[c] = det
	}
	d.logger.Info("Detectors trained", "detector", d.factory.Name, "columns", len(d.detectors))

	d.console.Println("\nTraining data summary:")
	return d.training.WriteSummary(d.console.Writer())
}

func (d *Driver) nextDate() time.Time {
	if d.results.Rows() > 0 {
		return d.results.NextDate()
	}
	return d.training.NextDate()
}

// testRound collects one observation, scores it and records the result.
func (d *Driver) testRound() error {
	next := d.nextDate()
	d.console.Printf("\nPlease select the test data source for %s:\n", next.Format(dateLayout))

	var values []float64
	source := &menu.Menu{Items: []menu.Item{
		{Key: "1", Label: "File", Action: func(context.Context) error {
			path, err := d.ask("Enter the file path: ")
			if err != nil {
				return err
			}
			values = d.observationFromFile(path, next)
			return nil
		}},
		{Key: "2", Label: "Simulate", Action: func(context.Context) error {
			values = d.training.Simulate(d.rng)
			return nil
		}},
	}}

	for values == nil {
		source.Render(d.console)
		choice, err := d.ask("Enter your choice: ")
		if err != nil {
			return err
		}
		err = source.Dispatch(context.Background(), choice)
		if errors.Is(err, menu.ErrUnknownChoice) {
			d.console.Println("Invalid choice. Please try again.")
			continue
		}
		if err != nil {
			return err
		}
	}

	d.console.Println("\nRunning anomaly detection on the test data...")
	probs := make([]float64, len(d.detectors))
	for c, det := range d.detectors {
		probs[c] = det.Probability(values[c])
	}
	if err := d.results.Append(next, probs); err != nil {
		return err
	}
	d.logger.Debug("Observation scored", "date", next.Format(dateLayout), "values", values, "probabilities", probs)

	current := NewFrame(d.results.Columns)
	if err := current.Append(next, probs); err != nil {
		return err
	}
	d.console.Println("\nAnomaly Probabilities for Current Test Data:")
	return current.WriteTable(d.console.Writer())
}

// observationFromFile takes the first data row of a CSV file. Unreadable
// files, files of the wrong width and non-finite values fall back to a
// simulated row.
func (d *Driver) observationFromFile(path string, date time.Time) []float64 {
	frame, err := LoadCSVFile(path, date)
	if err != nil {
		d.console.Printf("Could not load %s: %v. Defaulting to simulated data.\n", path, err)
		return d.training.Simulate(d.rng)
	}
	if frame.Width() != d.training.Width() {
		d.console.Println("Invalid data dimensions. Defaulting to simulated data.")
		return d.training.Simulate(d.rng)
	}
	row := frame.Row(0)
	for c, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			d.console.Printf("Invalid value %v in column %s. Defaulting to simulated data.\n", v, frame.Columns[c])
			return d.training.Simulate(d.rng)
		}
	}
	return row
}
