package client

import (
	"net/http"

	"github.com/username/pettyvault/src/services"
)

// Dashboard fetches the admin aggregate view.
func (c *Client) Dashboard() (*services.Dashboard, error) {
	var dash services.Dashboard
	if err := c.do(http.MethodGet, "/dashboard", nil, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}
