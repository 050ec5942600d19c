// Package client talks to the contacts REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gitlab.com/dirk.krummacker/contacts-api/pkg/model"
)

// APIError is returned for responses with an error status code.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Client sends requests to one contacts service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the service at baseURL, e.g. http://localhost:8080. The token is sent
// as bearer token if it is not empty.
func New(baseURL string, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), token: token, httpClient: httpClient}
}

// ListOptions select a page of contacts. Zero values are left to the service.
type ListOptions struct {
	Page     int
	Limit    int
	Favorite *bool
}

func (o ListOptions) query() string {
	values := url.Values{}
	if o.Page > 0 {
		values.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		values.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Favorite != nil {
		values.Set("favorite", strconv.FormatBool(*o.Favorite))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// List returns one page of contacts.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]model.Contact, error) {
	var contacts []model.Contact
	err := c.do(ctx, http.MethodGet, "/api/contacts"+opts.query(), nil, &contacts)
	return contacts, err
}

// Get returns a single contact.
func (c *Client) Get(ctx context.Context, id string) (model.Contact, error) {
	var contact model.Contact
	err := c.do(ctx, http.MethodGet, contactPath(id), nil, &contact)
	return contact, err
}

// Create stores a new contact and returns it with its id.
func (c *Client) Create(ctx context.Context, input model.ContactInput) (model.Contact, error) {
	var contact model.Contact
	err := c.do(ctx, http.MethodPost, "/api/contacts", input, &contact)
	return contact, err
}

// Update changes the given fields of a contact.
func (c *Client) Update(ctx context.Context, id string, patch model.ContactPatch) (model.Contact, error) {
	var contact model.Contact
	err := c.do(ctx, http.MethodPut, contactPath(id), patch, &contact)
	return contact, err
}

// SetFavorite sets the favorite status of a contact.
func (c *Client) SetFavorite(ctx context.Context, id string, favorite bool) (model.Contact, error) {
	var contact model.Contact
	err := c.do(ctx, http.MethodPatch, contactPath(id)+"/favorite", model.FavoriteInput{Favorite: &favorite}, &contact)
	return contact, err
}

// Delete removes a contact.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, contactPath(id), nil, nil)
}

// Health returns nil if the service and its store are available.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func contactPath(id string) string {
	return "/api/contacts/" + url.PathEscape(id)
}

// do sends the request with body encoded as JSON and decodes a successful response into result.
func (c *Client) do(ctx context.Context, method string, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		var message model.Message
		if json.Unmarshal(resBody, &message) != nil || message.Message == "" {
			message.Message = strings.TrimSpace(string(resBody))
		}
		return &APIError{Status: res.StatusCode, Message: message.Message}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resBody, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
