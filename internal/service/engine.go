package service

import (
	"context"
	"fmt"
	"time"

	"wellpump/internal/logger"
	"wellpump/internal/models"
	"wellpump/internal/platform"
	"wellpump/internal/repository"
)

// Platform is the slice of the device platform the engine drives.
type Platform interface {
	Authenticate(ctx context.Context, username, password string) (platform.Account, error)
	FindDeviceBySerialFragment(ctx context.Context, acct platform.Account, fragment string) (string, error)
	ReadTelemetry(ctx context.Context, acct platform.Account, deviceID, key string) (float64, error)
	WriteOutput(ctx context.Context, acct platform.Account, deviceID, output string, value bool) error
}

// Recorder receives run metrics.
type Recorder interface {
	ObserveRun(outcome string)
	ObserveLevel(cm float64)
	ObserveCommand(output string, value bool)
	ObservePumpRunning(running bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRun(string)           {}
func (nopRecorder) ObserveLevel(float64)        {}
func (nopRecorder) ObserveCommand(string, bool) {}
func (nopRecorder) ObservePumpRunning(bool)     {}

// EngineConfig carries everything a run needs besides its collaborators.
type EngineConfig struct {
	Username     string
	Password     string
	Serial       string
	TelemetryKey string
	HighLevel    float64 // cm
	LevelScale   float64 // raw telemetry to cm
	OnDuration   time.Duration
	OffDuration  time.Duration
	Outputs      []string
	Policy       AccessPolicy
}

// Engine is the pump phase machine. One Run is one decision; callers serialize runs.
type Engine struct {
	cfg      EngineConfig
	platform Platform
	phases   repository.PhaseStore
	events   repository.EventRepo
	rec      Recorder
	log      *logger.Logger

	// lastQuiet is the type and message of the last HOLD/SKIPPED event
	// written; repeats of it are logged but not appended.
	lastQuiet string
}

// NewEngine wires an engine. events, rec and log may be nil.
func NewEngine(cfg EngineConfig, p Platform, phases repository.PhaseStore, events repository.EventRepo, rec Recorder, log *logger.Logger) *Engine {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{cfg: cfg, platform: p, phases: phases, events: events, rec: rec, log: log}
}

type well struct {
	acct     platform.Account
	deviceID string
}

// Run decides and applies one pump step at now. Any error aborts the run
// before the phase store is written.
func (e *Engine) Run(ctx context.Context, now time.Time) (RunResult, error) {
	res := RunResult{At: now}

	if !e.cfg.Policy.IsAllowed(now) {
		res.Outcome = OutcomeOutsideWindow
		res.Message = "outside permitted pumping window"
		e.finish(ctx, res, models.EventSkipped)
		return res, nil
	}

	w, err := e.connect(ctx)
	if err != nil {
		return e.fail(ctx, now, err)
	}

	raw, err := e.platform.ReadTelemetry(ctx, w.acct, w.deviceID, e.cfg.TelemetryKey)
	if err != nil {
		return e.fail(ctx, now, err)
	}
	level := raw * e.cfg.LevelScale
	res.LevelCM = &level
	e.rec.ObserveLevel(level)

	if level >= e.cfg.HighLevel {
		if err := e.switchPump(ctx, w, false); err != nil {
			return e.fail(ctx, now, err)
		}
		next := models.IdlePhase()
		if err := e.phases.Save(ctx, next); err != nil {
			return e.fail(ctx, now, err)
		}
		res.Outcome = OutcomeLevelSufficient
		res.Phase = next
		res.Message = "level sufficient, pump off"
		e.rec.ObservePumpRunning(false)
		e.finish(ctx, res, models.EventPumpOff)
		return res, nil
	}

	cur, err := e.phases.Load(ctx)
	if err != nil {
		return e.fail(ctx, now, err)
	}

	switch {
	case cur.Phase == models.PhaseOn && cur.Holds(now):
		res.Outcome = OutcomeRunning
		res.Phase = cur
		res.Message = "pump running until " + e.clock(*cur.Until)
		e.finish(ctx, res, models.EventHold)

	case cur.Phase == models.PhaseOn:
		if err := e.switchPump(ctx, w, false); err != nil {
			return e.fail(ctx, now, err)
		}
		next := phaseUntil(models.PhaseOff, now.Add(e.cfg.OffDuration))
		if err := e.phases.Save(ctx, next); err != nil {
			return e.fail(ctx, now, err)
		}
		res.Outcome = OutcomeCooldownStarted
		res.Phase = next
		res.Message = "run phase ended, entering cooldown until " + e.clock(*next.Until)
		e.rec.ObservePumpRunning(false)
		e.finish(ctx, res, models.EventCooldown)

	case cur.Holds(now):
		res.Outcome = OutcomeCoolingDown
		res.Phase = cur
		res.Message = "cooling down until " + e.clock(*cur.Until)
		e.finish(ctx, res, models.EventHold)

	default:
		if err := e.switchPump(ctx, w, true); err != nil {
			return e.fail(ctx, now, err)
		}
		next := phaseUntil(models.PhaseOn, now.Add(e.cfg.OnDuration))
		if err := e.phases.Save(ctx, next); err != nil {
			return e.fail(ctx, now, err)
		}
		res.Outcome = OutcomePumpOn
		res.Phase = next
		res.Message = "level low, pump on for " + humanDuration(e.cfg.OnDuration)
		e.rec.ObservePumpRunning(true)
		e.finish(ctx, res, models.EventPumpOn)
	}
	return res, nil
}

func (e *Engine) connect(ctx context.Context) (well, error) {
	acct, err := e.platform.Authenticate(ctx, e.cfg.Username, e.cfg.Password)
	if err != nil {
		return well{}, err
	}
	id, err := e.platform.FindDeviceBySerialFragment(ctx, acct, e.cfg.Serial)
	if err != nil {
		return well{}, err
	}
	return well{acct: acct, deviceID: id}, nil
}

// switchPump commands every output in order and stops at the first failure.
func (e *Engine) switchPump(ctx context.Context, w well, on bool) error {
	for _, out := range e.cfg.Outputs {
		if err := e.platform.WriteOutput(ctx, w.acct, w.deviceID, out, on); err != nil {
			return err
		}
		e.rec.ObserveCommand(out, on)
	}
	return nil
}

func (e *Engine) fail(ctx context.Context, now time.Time, err error) (RunResult, error) {
	e.log.Errorw("pump_run_failed", "err", err)
	e.rec.ObserveRun(string(OutcomeFailed))
	e.lastQuiet = ""
	e.appendEvent(ctx, now, models.EventError, err.Error(), map[string]any{"error": err.Error()})
	return RunResult{Outcome: OutcomeFailed, At: now}, err
}

func (e *Engine) finish(ctx context.Context, res RunResult, typ string) {
	e.log.Infow("pump_run", "outcome", res.Outcome, "message", res.Message)
	e.rec.ObserveRun(string(res.Outcome))

	if typ == models.EventHold || typ == models.EventSkipped {
		key := typ + "|" + res.Message
		if key == e.lastQuiet {
			return
		}
		e.lastQuiet = key
	} else {
		e.lastQuiet = ""
	}

	meta := map[string]any{"outcome": string(res.Outcome), "phase": string(res.Phase.Phase)}
	if res.LevelCM != nil {
		meta["level_cm"] = *res.LevelCM
	}
	if res.Phase.Until != nil {
		meta["until"] = res.Phase.Until.Format(time.RFC3339)
	}
	e.appendEvent(ctx, res.At, typ, res.Message, meta)
}

// appendEvent is best effort; the phase store is authoritative.
func (e *Engine) appendEvent(ctx context.Context, at time.Time, typ, desc string, meta map[string]any) {
	if e.events == nil {
		return
	}
	err := e.events.Append(ctx, models.PumpEvent{
		OccurredAt:  at.UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		e.log.Warnw("pump_event_append_failed", "type", typ, "err", err)
	}
}

func (e *Engine) clock(t time.Time) string {
	if loc := e.cfg.Policy.Location; loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

func phaseUntil(p models.Phase, until time.Time) models.PhaseState {
	return models.PhaseState{Phase: p, Until: &until}
}

func humanDuration(d time.Duration) string {
	if d%time.Minute != 0 {
		return d.String()
	}
	n := int(d / time.Minute)
	if n == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", n)
}
