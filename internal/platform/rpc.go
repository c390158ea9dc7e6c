package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Logical relay outputs of the well controller.
const (
	Output1 = "OUT1"
	Output2 = "OUT2"
)

var outputMethods = map[string]string{
	Output1: "setDout1",
	Output2: "setDout2",
}

// KnownOutput reports whether output names a relay the controller exposes.
func KnownOutput(output string) bool {
	_, ok := outputMethods[output]
	return ok
}

type rpcRequest struct {
	Method string `json:"method"`
	Params bool   `json:"params"`
}

// WriteOutput switches one relay with a synchronous two-way RPC. Callers
// switch every relay tied to the pump themselves.
func (c *Client) WriteOutput(ctx context.Context, acct Account, deviceID, output string, value bool) error {
	method, ok := outputMethods[output]
	if !ok {
		return &CommandError{DeviceID: deviceID, Output: output, Value: value, Err: fmt.Errorf("unknown output %q", output)}
	}

	var ack json.RawMessage
	if err := c.do(ctx, request{
		op:     "rpc",
		method: http.MethodPost,
		path:   "/api/rpc/twoway/" + url.PathEscape(deviceID),
		token:  acct.Token,
		body:   rpcRequest{Method: method, Params: value},
	}, &ack); err != nil {
		return &CommandError{DeviceID: deviceID, Output: output, Value: value, Err: err}
	}
	return nil
}
