package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"wellpump/internal/models"
	"wellpump/internal/platform"
)

// ---- Test doubles ----

type command struct {
	Output string
	Value  bool
}

// fakePlatform records every call the engine makes.
type fakePlatform struct {
	level     float64
	authErr   error
	deviceErr error
	readErr   error
	writeErr  map[string]error

	authCalls   int
	deviceCalls int
	readCalls   int
	commands    []command
}

func (f *fakePlatform) Authenticate(ctx context.Context, username, password string) (platform.Account, error) {
	f.authCalls++
	if f.authErr != nil {
		return platform.Account{}, f.authErr
	}
	return platform.Account{Token: "tok", CustomerID: "cust"}, nil
}

func (f *fakePlatform) FindDeviceBySerialFragment(ctx context.Context, acct platform.Account, fragment string) (string, error) {
	f.deviceCalls++
	if f.deviceErr != nil {
		return "", f.deviceErr
	}
	return "dev-1", nil
}

func (f *fakePlatform) ReadTelemetry(ctx context.Context, acct platform.Account, deviceID, key string) (float64, error) {
	f.readCalls++
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.level, nil
}

func (f *fakePlatform) WriteOutput(ctx context.Context, acct platform.Account, deviceID, output string, value bool) error {
	if err := f.writeErr[output]; err != nil {
		return err
	}
	f.commands = append(f.commands, command{Output: output, Value: value})
	return nil
}

func (f *fakePlatform) calls() int {
	return f.authCalls + f.deviceCalls + f.readCalls + len(f.commands)
}

// memPhases is an in-memory repository.PhaseStore.
type memPhases struct {
	state   *models.PhaseState
	loadErr error
	saveErr error
	saves   []models.PhaseState
}

func (m *memPhases) Load(ctx context.Context) (models.PhaseState, error) {
	if m.loadErr != nil {
		return models.PhaseState{}, m.loadErr
	}
	if m.state == nil {
		return models.IdlePhase(), nil
	}
	return *m.state, nil
}

func (m *memPhases) Save(ctx context.Context, s models.PhaseState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, s)
	m.state = &s
	return nil
}

// memEvents is an in-memory repository.EventRepo.
type memEvents struct {
	mu        sync.Mutex
	appends   []models.PumpEvent
	appendErr error
	listResp  []models.PumpEvent
	listArgs  []listArgs
}

type listArgs struct {
	From, To time.Time
	Type     string
}

func (e *memEvents) Append(ctx context.Context, ev models.PumpEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.appendErr != nil {
		return e.appendErr
	}
	e.appends = append(e.appends, ev)
	return nil
}

func (e *memEvents) List(ctx context.Context, from, to time.Time, typ string) ([]models.PumpEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listArgs = append(e.listArgs, listArgs{From: from, To: to, Type: typ})
	return e.listResp, nil
}

func (e *memEvents) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.appends))
	for _, ev := range e.appends {
		out = append(out, ev.Type)
	}
	return out
}

// recorder captures metric observations.
type recorder struct {
	runs     []string
	levels   []float64
	commands []command
	running  []bool
}

func (r *recorder) ObserveRun(outcome string) { r.runs = append(r.runs, outcome) }
func (r *recorder) ObserveLevel(cm float64)   { r.levels = append(r.levels, cm) }
func (r *recorder) ObserveCommand(output string, v bool) {
	r.commands = append(r.commands, command{output, v})
}
func (r *recorder) ObservePumpRunning(running bool) { r.running = append(r.running, running) }

var errBoom = errors.New("boom")

func ptrTime(t time.Time) *time.Time { return &t }
