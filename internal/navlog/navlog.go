// Package navlog reports calibration and mode-change events out of the
// navigation engine without coupling it to any particular output or
// transport layer, the way spec.md's design notes require ("provide a
// callback or message channel; never couple the AHRS directly to the
// NMEA or CAN layer").
package navlog

import (
	"log"

	"glidenav/internal/magcal"
	"glidenav/internal/vecmat"
)

// CalibrationEvent describes one magnetometer calibration commit, fired
// on a CIRCLING -> TRANSITION edge when the regression or the Earth
// induction estimate improved.
type CalibrationEvent struct {
	// Source identifies which fusion mode triggered the commit: 's' for
	// the DGNSS compass path, 'm' for the magnetometer compass path,
	// mirroring AHRS.cpp's handle_magnetic_calibration('s'/'m') tag.
	Source byte

	Calibration magcal.Calibration

	InductionUpdated      bool
	ExpectedNavInduction  vecmat.Vector3
	InductionStdDeviation float64
}

// Reporter receives calibration events. Implementations must not block
// the caller for any meaningful length of time, since a report is
// generated on the AHRS hot path at a circling-state edge.
type Reporter interface {
	Report(CalibrationEvent)
}

// LogReporter is the default Reporter, writing one line per event via
// the standard logger.
type LogReporter struct {
	*log.Logger
}

// NewLogReporter builds a LogReporter writing through l. A nil l uses
// log.Default().
func NewLogReporter(l *log.Logger) *LogReporter {
	if l == nil {
		l = log.Default()
	}
	return &LogReporter{Logger: l}
}

// Report logs the event.
func (r *LogReporter) Report(ev CalibrationEvent) {
	r.Printf("magnetic calibration commit (source=%c): bias=%v scale=%v quality=%v induction_updated=%v induction_std_dev=%.5f",
		ev.Source, ev.Calibration.Bias, ev.Calibration.Scale, ev.Calibration.RegressionQuality,
		ev.InductionUpdated, ev.InductionStdDeviation)
}

// ChannelReporter fans calibration events out onto a channel, for
// consumers (persistence, telemetry, tests) that want to observe them
// asynchronously instead of via logging. Report drops the event rather
// than blocking if the channel is full, since the AHRS tick must never
// stall waiting for a slow consumer.
type ChannelReporter struct {
	C chan CalibrationEvent
}

// NewChannelReporter builds a ChannelReporter with the given buffer
// size.
func NewChannelReporter(buffer int) *ChannelReporter {
	return &ChannelReporter{C: make(chan CalibrationEvent, buffer)}
}

// Report attempts a non-blocking send.
func (r *ChannelReporter) Report(ev CalibrationEvent) {
	select {
	case r.C <- ev:
	default:
	}
}
