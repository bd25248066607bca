package anomaly

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/internal/menu"
)

func testConfig() *config.AnomalyConfig {
	return &config.AnomalyConfig{Seed: 1, StartDate: start, Bins: 10, Neighbors: 5}
}

func runDriver(t *testing.T, input string) (*Driver, string) {
	t.Helper()
	var out bytes.Buffer
	d := NewDriver(testConfig(), menu.NewConsole(strings.NewReader(input), &out),
		WithRand(rand.New(rand.NewSource(3))),
		WithClock(func() time.Time { return time.Date(2020, 3, 31, 18, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, d.Run(context.Background()))
	return d, out.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDriverWithRandomTraining(t *testing.T) {
	wide := writeFile(t, t.TempDir(), "wide.csv", "a,b,c\n1,2,3\n")
	d, out := runDriver(t, "2\n2\n9\n3\n2\n1\n"+wide+"\nx\n")

	assert.Contains(t, out, "Today's date: 2020-03-31")
	assert.Contains(t, out, "Invalid choice. Defaulting to HBOS.")
	assert.Contains(t, out, "Selected model: HBOS")
	assert.Contains(t, out, "Training the anomaly detection model...")
	assert.Contains(t, out, "Please select the test data source for 2020-04-01:")
	assert.Contains(t, out, "Invalid choice. Please try again.")
	assert.Contains(t, out, "Please select the test data source for 2020-04-02:")
	assert.Contains(t, out, "Invalid data dimensions. Defaulting to simulated data.")
	assert.Contains(t, out, "Anomaly Probabilities for Current Test Data:")
	assert.Contains(t, out, "Final anomaly detection results:")

	results := d.Results()
	require.Equal(t, 2, results.Rows())
	assert.Equal(t, []string{"Variable_1", "Variable_2"}, results.Columns)
	for i := 0; i < results.Rows(); i++ {
		for _, p := range results.Row(i) {
			assert.True(t, p >= 0 && p <= 1, "probability %v out of range", p)
		}
	}
}

func TestDriverWithFileTraining(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("date,temp,load\n")
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, "2021-01-%02d,%d,%d\n", i, i%3, 10+i%4)
	}
	training := writeFile(t, dir, "train.csv", b.String())
	spike := writeFile(t, dir, "spike.csv", "temp,load\n1000,11\n")

	d, out := runDriver(t, "1\nmissing.csv\n1\n"+training+"\n2\n1\n"+spike)

	assert.Contains(t, out, "Could not load missing.csv")
	assert.Contains(t, out, "Selected model: KNN")
	assert.Contains(t, out, "Please select the test data source for 2021-01-21:")
	assert.Contains(t, out, "Exiting script.")

	results := d.Results()
	require.Equal(t, 1, results.Rows())
	assert.Equal(t, []string{"temp", "load"}, results.Columns)
	assert.Equal(t, 1.0, results.Row(0)[0])
}

func TestDriverQuitsBeforeTraining(t *testing.T) {
	d, out := runDriver(t, "x\n")
	assert.Contains(t, out, "Exiting script.")
	assert.NotContains(t, out, "Final anomaly detection results:")
	assert.Nil(t, d.Results())
}

func TestDriverRejectsNonFiniteData(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("temp,load\n")
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i%3, 10+i%4)
	}
	training := writeFile(t, dir, "train.csv", b.String())
	broken := writeFile(t, dir, "broken.csv", "temp,load\n1,2\nNaN,3\n")
	observation := writeFile(t, dir, "obs.csv", "temp,load\nNaN,11\n")

	d, out := runDriver(t, "1\n"+broken+"\n1\n"+training+"\n1\n1\n"+observation+"\n")

	assert.Contains(t, out, "Could not load "+broken)
	assert.Contains(t, out, "non-finite value NaN in column \"temp\"")
	assert.Equal(t, 2, strings.Count(out, "Please select the training data source:"))
	assert.Contains(t, out, "Selected model: HBOS")
	assert.Contains(t, out, "Invalid value NaN in column temp. Defaulting to simulated data.")

	results := d.Results()
	require.Equal(t, 1, results.Rows())
	for _, p := range results.Row(0) {
		assert.True(t, p >= 0 && p <= 1, "probability %v out of range", p)
	}
}
