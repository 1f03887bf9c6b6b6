package navlog

import (
	"bytes"
	"log"
	"testing"

	"glidenav/internal/magcal"
)

func TestLogReporterWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(log.New(&buf, "", 0))
	r.Report(CalibrationEvent{Source: 's', Calibration: magcal.Calibration{Complete: true}})
	if buf.Len() == 0 {
		t.Fatalf("LogReporter wrote nothing")
	}
}

func TestChannelReporterDeliversWithoutBlocking(t *testing.T) {
	r := NewChannelReporter(1)
	r.Report(CalibrationEvent{Source: 'm'})
	select {
	case ev := <-r.C:
		if ev.Source != 'm' {
			t.Fatalf("Source = %c, want m", ev.Source)
		}
	default:
		t.Fatalf("expected a buffered event")
	}
}

func TestChannelReporterDropsWhenFull(t *testing.T) {
	r := NewChannelReporter(1)
	r.Report(CalibrationEvent{Source: 1})
	r.Report(CalibrationEvent{Source: 2}) // must not block

	ev := <-r.C
	if ev.Source != 1 {
		t.Fatalf("Source = %v, want first event preserved", ev.Source)
	}
}
