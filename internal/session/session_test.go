package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/balefleet/balewatch/internal/ingest"
	"github.com/balefleet/balewatch/internal/types"
)

const wideCSV = "device_id,cycle_started_at,cycle_duration_ms\n" +
	"BALER-01,2026-03-02T09:00:00Z,42000\n" +
	"BALER-02,2026-03-02T09:05:00Z,40000\n" +
	"BALER-01,2026-03-02T09:10:00Z,43000\n"

const longCSV = "Time,deviceId,measure_name,measure_value\n" +
	"2026-03-02 09:00:00.000000000,BALER-01,voltage,478.2\n" +
	"2026-03-02 09:00:05.000000000,BALER-01,digital_input,1\n"

func TestUploadInstallsDataset(t *testing.T) {
	m := NewManager()
	if !m.AwaitingUpload() {
		t.Fatal("fresh manager should await upload")
	}

	ds, err := m.Upload(context.Background(), strings.NewReader(wideCSV), UploadOptions{})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if ds.Shape != types.ShapeWide || len(ds.Cycles) != 3 {
		t.Errorf("unexpected dataset: shape=%s cycles=%d", ds.Shape, len(ds.Cycles))
	}
	if m.AwaitingUpload() {
		t.Error("manager should hold a dataset after a completed upload")
	}
	if m.Current() != ds {
		t.Error("Current should return the installed dataset")
	}
}

func TestUploadAutodetectsLong(t *testing.T) {
	m := NewManager()
	ds, err := m.Upload(context.Background(), strings.NewReader(longCSV), UploadOptions{})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if ds.Shape != types.ShapeLong || len(ds.Devices) != 1 {
		t.Errorf("expected one long-shape device, got shape=%s devices=%d", ds.Shape, len(ds.Devices))
	}
}

func TestFailedUploadKeepsPriorDataset(t *testing.T) {
	m := NewManager()
	prior, err := m.Upload(context.Background(), strings.NewReader(wideCSV), UploadOptions{})
	if err != nil {
		t.Fatalf("seed upload failed: %v", err)
	}

	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{
			name:  "missing columns",
			input: "device_id,color\nBALER-01,green\n",
			check: func(err error) bool {
				var mc *ingest.MissingColumnsError
				return errors.As(err, &mc)
			},
		},
		{
			name:  "header only",
			input: "device_id,cycle_started_at,cycle_duration_ms\n",
			check: func(err error) bool {
				var empty *ingest.EmptyInputError
				return errors.As(err, &empty)
			},
		},
		{
			name:  "no input at all",
			input: "",
			check: func(err error) bool {
				var empty *ingest.EmptyInputError
				return errors.As(err, &empty)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Upload(context.Background(), strings.NewReader(tt.input), UploadOptions{})
			if err == nil || !tt.check(err) {
				t.Fatalf("expected the typed failure, got %v", err)
			}
			if m.Current() != prior {
				t.Error("failed upload must leave the prior dataset installed")
			}
		})
	}

	// The manager stays usable after failures.
	replacement, err := m.Upload(context.Background(), strings.NewReader(wideCSV), UploadOptions{})
	if err != nil {
		t.Fatalf("recovery upload failed: %v", err)
	}
	if m.Current() != replacement || replacement == prior {
		t.Error("recovery upload should swap in a fresh dataset")
	}
}

func TestUploadReportsProgress(t *testing.T) {
	m := NewManager()
	var calls []ingest.Progress
	_, err := m.Upload(context.Background(), strings.NewReader(wideCSV), UploadOptions{
		BatchSize:  1,
		TotalBytes: int64(len(wideCSV)),
		OnProgress: func(p ingest.Progress) { calls = append(calls, p) },
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 progress callbacks with batch size 1, got %d", len(calls))
	}
	last := calls[len(calls)-1]
	if last.RowsRead != 3 || last.Percent < 99 {
		t.Errorf("final progress should cover the whole input, got %+v", last)
	}
}

func TestNewerUploadSupersedesInFlight(t *testing.T) {
	m := NewManager()
	seed, err := m.Upload(context.Background(), strings.NewReader(wideCSV), UploadOptions{})
	if err != nil {
		t.Fatalf("seed upload failed: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	var once sync.Once

	// The slow upload parks inside its first progress callback, mid
	// parse, until released.
	go func() {
		_, err := m.Upload(context.Background(), strings.NewReader(wideCSV), UploadOptions{
			BatchSize: 1,
			OnProgress: func(ingest.Progress) {
				once.Do(func() {
					close(started)
					<-release
				})
			},
		})
		done <- err
	}()
	<-started

	// A newer upload arrives while the slow one is still parsing.
	winner, err := m.Upload(context.Background(), strings.NewReader(longCSV), UploadOptions{})
	if err != nil {
		t.Fatalf("superseding upload failed: %v", err)
	}
	if m.Current() != winner {
		t.Fatal("newest upload should be installed")
	}

	close(release)
	slowErr := <-done
	if slowErr == nil {
		t.Fatal("superseded upload must fail, not install")
	}
	if !errors.Is(slowErr, context.Canceled) && !errors.Is(slowErr, ErrSuperseded) {
		t.Errorf("unexpected supersession error: %v", slowErr)
	}

	if m.Current() != winner {
		t.Error("superseded upload must never replace the newer dataset")
	}
	if m.Current() == seed {
		t.Error("stale dataset resurfaced after supersession")
	}
}

func TestWideLocationsAppliedDuringUpload(t *testing.T) {
	m := NewManager()
	ds, err := m.Upload(context.Background(), strings.NewReader(wideCSV), UploadOptions{
		Locations: map[string]string{"BALER-01": "north-hall"},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	for _, rec := range ds.Cycles {
		if rec.DeviceID == "BALER-01" && rec.Location != "north-hall" {
			t.Errorf("configured location not applied: %+v", rec)
		}
	}
}
