package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type sample struct {
	Ts    int64           `json:"ts"`
	Value json.RawMessage `json:"value"`
}

// ReadTelemetry returns the newest value of key as a float. The platform
// reports numbers as JSON strings, so both encodings are accepted.
func (c *Client) ReadTelemetry(ctx context.Context, acct Account, deviceID, key string) (float64, error) {
	q := url.Values{}
	q.Set("keys", key)

	var series map[string][]sample
	if err := c.do(ctx, request{
		op:     "telemetry",
		method: http.MethodGet,
		path:   "/api/plugins/telemetry/DEVICE/" + url.PathEscape(deviceID) + "/values/timeseries",
		query:  q,
		token:  acct.Token,
	}, &series); err != nil {
		return 0, err
	}

	samples, ok := series[key]
	if !ok {
		return 0, &TelemetryError{DeviceID: deviceID, Key: key, Err: errors.New("key missing from response")}
	}
	if len(samples) == 0 {
		return 0, &TelemetryError{DeviceID: deviceID, Key: key, Err: errors.New("no samples")}
	}
	v, err := toFloat(samples[0].Value)
	if err != nil {
		return 0, &TelemetryError{DeviceID: deviceID, Key: key, Err: err}
	}
	return v, nil
}

// toFloat accepts a finite JSON number or numeric string. null, a missing
// value, NaN and infinities are sensor faults, not readings.
func toFloat(raw json.RawMessage) (float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, errors.New("value is null")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("value %s is neither number nor string", raw)
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", s)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %s is not finite", raw)
	}
	return f, nil
}
