// Package client is the typed HTTP facade over the pettyvault API.
// One method per server operation, one request per method call. No
// retries, no caching; callers re-fetch lists after mutations.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/pettyvault/src/session"
	"github.com/username/pettyvault/src/utils"
)

// APIError carries a non-2xx response. Message is the server's error
// field when the body was the usual {"error": ...} envelope, or a
// generic fallback otherwise.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	store      *session.Store
	httpClient *http.Client
}

// New builds a client against baseURL (e.g. "http://localhost:8080").
// The store supplies the bearer token and active company per request.
func New(baseURL string, store *session.Store) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: &http.Client{},
	}
}

// do issues one request and decodes the {"data": ...} envelope into
// out (which may be nil for empty responses). The token and company-id
// headers are attached whenever the store holds them.
func (c *Client) do(method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+"/api"+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if companyID := c.store.CompanyID(); companyID != "" {
		req.Header.Set(utils.CompanyIDHeader, companyID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if envelope.Data == nil {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

func apiErrorFrom(status int, raw []byte) *APIError {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		return &APIError{Status: status, Message: envelope.Error}
	}
	return &APIError{Status: status, Message: http.StatusText(status)}
}
