// Package export writes the run history as CSV or JSON.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/timerpie/internal/store"
)

var csvHeader = []string{"ID", "Mode", "Input", "Planned (min)", "Target", "Start", "End", "Ran (s)", "Ran", "Status", "Watchdog"}

// ToCSV writes runs to a new file at path.
func ToCSV(runs []store.Run, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, runs)
}

// WriteCSV writes a header row followed by one row per run.
func WriteCSV(out io.Writer, runs []store.Run) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range runs {
		secs := int64(r.Elapsed().Seconds())
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Mode,
			r.Input,
			strconv.FormatFloat(r.TotalMinutes, 'f', -1, 64),
			formatTarget(r.TargetMinute),
			r.StartedAt.Local().Format(time.RFC3339),
			formatEnd(r.EndedAt),
			strconv.FormatInt(secs, 10),
			formatDuration(secs),
			string(r.Status),
			strconv.FormatBool(r.ByWatchdog),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatTarget(m *float64) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf(":%02d", int(*m))
}

func formatEnd(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
