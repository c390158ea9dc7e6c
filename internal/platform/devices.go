package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const devicePageSize = 100

type devicePage struct {
	TotalElements int `json:"totalElements"`
	Data          []struct {
		ID   entityID `json:"id"`
		Name string   `json:"name"`
	} `json:"data"`
}

// FindDeviceBySerialFragment searches the customer's devices whose name
// contains fragment and returns the first match's id. Only the first page is
// consulted.
func (c *Client) FindDeviceBySerialFragment(ctx context.Context, acct Account, fragment string) (string, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(devicePageSize))
	q.Set("page", "0")
	q.Set("textSearch", "%"+fragment)

	var page devicePage
	if err := c.do(ctx, request{
		op:     "devices",
		method: http.MethodGet,
		path:   "/api/customer/" + url.PathEscape(acct.CustomerID) + "/devices",
		query:  q,
		token:  acct.Token,
	}, &page); err != nil {
		return "", err
	}

	if page.TotalElements < 1 || len(page.Data) == 0 || page.Data[0].ID.ID == "" {
		return "", &NotFoundError{Fragment: fragment}
	}
	if len(page.Data) > 1 && c.log != nil {
		c.log.Warnw("platform_device_ambiguous",
			"fragment", fragment, "matches", page.TotalElements, "using", page.Data[0].Name)
	}
	return page.Data[0].ID.ID, nil
}
