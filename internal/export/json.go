package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/timerpie/internal/store"
)

type jsonExport struct {
	ExportedAt string    `json:"exported_at"`
	Count      int       `json:"count"`
	Runs       []jsonRun `json:"runs"`
}

type jsonRun struct {
	ID           int64    `json:"id"`
	Mode         string   `json:"mode"`
	Input        string   `json:"input,omitempty"`
	TotalMinutes float64  `json:"total_minutes"`
	TargetMinute *float64 `json:"target_minute,omitempty"`
	StartedAt    string   `json:"started_at"`
	EndedAt      string   `json:"ended_at,omitempty"`
	RanSec       int64    `json:"ran_seconds"`
	Ran          string   `json:"ran"`
	Status       string   `json:"status"`
	ByWatchdog   bool     `json:"by_watchdog,omitempty"`
}

// ToJSON writes runs to a new file at path.
func ToJSON(runs []store.Run, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, runs, time.Now()); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// WriteJSON writes an indented document stamped with now.
func WriteJSON(out io.Writer, runs []store.Run, now time.Time) error {
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(runs),
		Runs:       []jsonRun{},
	}

	for _, r := range runs {
		secs := int64(r.Elapsed().Seconds())
		export.Runs = append(export.Runs, jsonRun{
			ID:           r.ID,
			Mode:         r.Mode,
			Input:        r.Input,
			TotalMinutes: r.TotalMinutes,
			TargetMinute: r.TargetMinute,
			StartedAt:    r.StartedAt.Local().Format(time.RFC3339),
			EndedAt:      formatEnd(r.EndedAt),
			RanSec:       secs,
			Ran:          formatDuration(secs),
			Status:       string(r.Status),
			ByWatchdog:   r.ByWatchdog,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return err
}
