package metrics

import (
	"errors"
	"net/http"
	"testing"

	"wellpump/internal/platform"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RecordsRunsAndCommands(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveRun("pump_on")
	c.ObserveRun("pump_on")
	c.ObserveRun("outside_window")
	c.ObserveCommand("OUT1", true)
	c.ObserveLevel(120)
	c.ObservePumpRunning(true)

	if got := testutil.ToFloat64(c.runs.WithLabelValues("pump_on")); got != 2 {
		t.Fatalf("pump_on runs = %v", got)
	}
	if got := testutil.ToFloat64(c.commands.WithLabelValues("OUT1", "true")); got != 1 {
		t.Fatalf("OUT1=true commands = %v", got)
	}
	if got := testutil.ToFloat64(c.level); got != 120 {
		t.Fatalf("level = %v", got)
	}
	if got := testutil.ToFloat64(c.pumpRunning); got != 1 {
		t.Fatalf("pump_running = %v", got)
	}
}

func TestRequestResult(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{errors.New("boom"), "error"},
		{&platform.RequestError{Op: "login", Err: errors.New("dial tcp")}, "transport"},
		{&platform.RequestError{Op: "rpc", StatusCode: http.StatusGatewayTimeout, Err: errors.New("x")}, "5xx"},
		{&platform.RequestError{Op: "profile", StatusCode: http.StatusUnauthorized, Err: errors.New("x")}, "4xx"},
		{&platform.RequestError{Op: "devices", StatusCode: http.StatusOK, Err: errors.New("bad json")}, "decode"},
	}
	for _, tc := range cases {
		if got := requestResult(tc.err); got != tc.want {
			t.Errorf("requestResult(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
