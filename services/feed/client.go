package feed

import (
	"backoffice_app_go/models"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// ErrNotFound is returned when the server no longer has the notification
var ErrNotFound = errors.New("notification not found")

// APIError is a non-2xx answer from the notification endpoints.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned status: %d", e.Status)
	}
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Message)
}

// Client talks to the notification endpoints of one audience. The session
// cookie set by Login is kept in the HTTP client's jar.
type Client struct {
	BaseURL  string
	Audience Audience
	HTTP     *http.Client
	// Stream has no timeout; the request lives as long as its context
	Stream *http.Client
}

// NewClient creates a client with a cookie jar.
func NewClient(baseURL string, audience Audience) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Audience: audience,
		HTTP:     &http.Client{Timeout: 30 * time.Second, Jar: jar},
		Stream:   &http.Client{Jar: jar},
	}
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login opens a session for the audience's actor type.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, c.BaseURL+c.Audience.LoginPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// List returns the actor's notifications, most recent first.
func (c *Client) List(ctx context.Context) ([]models.NotificationView, error) {
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(""), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var views []models.NotificationView
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return views, nil
}

func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.post(ctx, http.MethodPost, c.endpoint("/"+id+"/read"))
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.post(ctx, http.MethodPost, c.endpoint("/mark-all-read"))
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.post(ctx, http.MethodDelete, c.endpoint("/"+id))
}

func (c *Client) post(ctx context.Context, method, url string) error {
	resp, err := c.do(ctx, method, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !out.Success {
		return &APIError{Status: resp.StatusCode, Message: out.Message}
	}
	return nil
}

// Subscribe reads the actor's private event stream and calls receive for
// every notification.created event until ctx ends or the server closes
// the stream.
func (c *Client) Subscribe(ctx context.Context, receive func(models.NotificationView)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/stream"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.Stream.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	err = readEvents(resp.Body, func(event string, data []byte) {
		if event != models.EventNotificationCreated {
			return
		}
		view, err := DecodeCreatedEvent(data)
		if err != nil {
			return
		}
		receive(view)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// DecodeCreatedEvent reads a notification.created payload. A bare
// notification object is accepted as well as the wrapped form.
func DecodeCreatedEvent(data []byte) (models.NotificationView, error) {
	var event struct {
		Notification *models.NotificationView `json:"notification"`
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return models.NotificationView{}, err
	}
	if event.Notification != nil {
		return *event.Notification, nil
	}

	var view models.NotificationView
	if err := json.Unmarshal(data, &view); err != nil {
		return models.NotificationView{}, err
	}
	return view, nil
}

// readEvents parses a text/event-stream body. Comment lines (keepalives)
// are ignored and multi-line data is joined with newlines.
func readEvents(r io.Reader, dispatch func(event string, data []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var event string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if event == "" {
					event = "message"
				}
				dispatch(event, []byte(strings.Join(data, "\n")))
			}
			event, data = "", nil
		case strings.HasPrefix(line, ":"):
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				event = value
			case "data":
				data = append(data, value)
			}
		}
	}
	return scanner.Err()
}

func (c *Client) endpoint(path string) string {
	return c.BaseURL + c.Audience.EndpointPrefix + path
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var out statusResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&out)
	return &APIError{Status: resp.StatusCode, Message: out.Message}
}
