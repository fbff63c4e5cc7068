package client

import (
	"net/http"
	"net/url"

	"github.com/username/pettyvault/src/services"
)

// UserReport fetches the caller's activity summary. month is optional
// YYYY-MM.
func (c *Client) UserReport(month string) (*services.UserReport, error) {
	var report services.UserReport
	if err := c.do(http.MethodGet, "/reports/user"+monthQuery(month), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CompanyReport fetches the company-wide summary.
func (c *Client) CompanyReport(month string) (*services.CompanyReport, error) {
	var report services.CompanyReport
	if err := c.do(http.MethodGet, "/reports/company"+monthQuery(month), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func monthQuery(month string) string {
	if month == "" {
		return ""
	}
	return "?month=" + url.QueryEscape(month)
}
