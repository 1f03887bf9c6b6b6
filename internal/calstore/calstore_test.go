package calstore

import (
	"errors"
	"path/filepath"
	"testing"

	"glidenav/internal/magcal"
)

var errCorrupt = errors.New("injected load failure")

func sampleCalibration() magcal.Calibration {
	return magcal.Calibration{
		Bias:              [3]float64{0.1, -0.2, 0.05},
		Scale:             [3]float64{1.02, 0.98, 1.1},
		RegressionQuality: [3]float64{0.95, 0.9, 0.99},
		Complete:          true,
	}
}

// float32Rounded returns cal with every value narrowed to float32 and
// widened back, which is what the blob's f32 fields preserve.
func float32Rounded(cal magcal.Calibration) magcal.Calibration {
	for i := 0; i < 3; i++ {
		cal.Bias[i] = float64(float32(cal.Bias[i]))
		cal.Scale[i] = float64(float32(cal.Scale[i]))
		cal.RegressionQuality[i] = float64(float32(cal.RegressionQuality[i]))
	}
	return cal
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cal := sampleCalibration()
	blob := Encode(cal)
	got, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if want := float32Rounded(cal); got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	blob := Encode(sampleCalibration())
	blob[0] ^= 0xFF
	if _, err := Decode(blob); err == nil {
		t.Fatalf("Decode() error = nil for corrupted magic, want error")
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatalf("Decode() error = nil for truncated blob, want error")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magcal.bin")
	store := NewFileStore(path)
	cal := sampleCalibration()
	if err := store.Save(cal); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := float32Rounded(cal); got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFileStoreLoadMissingFileErrors(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.bin"))
	if _, err := store.Load(); err == nil {
		t.Fatalf("Load() error = nil for missing file, want error")
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	cal := sampleCalibration()
	store := NewMemStore(magcal.Calibration{})
	if err := store.Save(cal); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != cal {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, cal)
	}
}

func TestMemStoreLoadErrInjection(t *testing.T) {
	store := NewMemStore(magcal.Calibration{})
	store.LoadErr = errCorrupt
	if _, err := store.Load(); err != errCorrupt {
		t.Fatalf("Load() error = %v, want injected error", err)
	}
}
