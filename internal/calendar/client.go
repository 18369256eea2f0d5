package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/autoschedule/internal/google"
)

// Client wraps the Google Calendar service and implements Provider
type Client struct {
	svc     *calendar.Service
	account string // The account this client is associated with
}

var _ Provider = (*Client)(nil)

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClientForAccountWithProvider creates a new Calendar client with OAuth2 authentication for a specific account
// The OAuth token is retrieved from the provided token provider
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	conf := google.GetOAuthConfig()
	tokenSource := conf.TokenSource(ctx, token)

	client := oauth2.NewClient(ctx, tokenSource)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:     svc,
		account: account,
	}, nil
}

// NewClientWithOptions creates a Calendar client from raw client options.
// Used with option.WithEndpoint and option.WithoutAuthentication against test servers.
func NewClientWithOptions(ctx context.Context, account string, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, account: account}, nil
}

// ListEvents lists single-instance events overlapping [timeMin, timeMax), ordered by start time
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	if calendarID == "" {
		return nil, ErrMissingCalendarID
	}

	var events []Event
	pageToken := ""
	for {
		call := c.svc.Events.List(calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return nil, wrapAPIError("list events", err)
		}

		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			events = append(events, toEvent(item))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return events, nil
}

// FreeBusy returns the busy intervals of one calendar in a time range
func (c *Client) FreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Interval, error) {
	if calendarID == "" {
		return nil, ErrMissingCalendarID
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("query freebusy", err)
	}

	cal, ok := result.Calendars[calendarID]
	if !ok {
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		reasons := make([]string, 0, len(cal.Errors))
		for _, e := range cal.Errors {
			reasons = append(reasons, e.Reason)
		}
		return nil, fmt.Errorf("freebusy for %s returned errors: %s", calendarID, strings.Join(reasons, ", "))
	}

	busy := make([]Interval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid busy start %q: %w", b.Start, err)
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return nil, fmt.Errorf("invalid busy end %q: %w", b.End, err)
		}
		busy = append(busy, Interval{Start: start, End: end})
	}

	return busy, nil
}

// InsertEvent creates a new calendar event
func (c *Client) InsertEvent(ctx context.Context, calendarID string, fields EventFields) (*Event, error) {
	if calendarID == "" {
		return nil, ErrMissingCalendarID
	}

	event := &calendar.Event{}
	applyFields(event, fields)

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("create event", err)
	}

	ev := toEvent(created)
	return &ev, nil
}

// PatchEvent updates only the given fields of an existing event
func (c *Client) PatchEvent(ctx context.Context, calendarID, eventID string, fields EventFields) (*Event, error) {
	if calendarID == "" {
		return nil, ErrMissingCalendarID
	}

	event := &calendar.Event{}
	applyFields(event, fields)

	updated, err := c.svc.Events.Patch(calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("patch event", err)
	}

	ev := toEvent(updated)
	return &ev, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if calendarID == "" {
		return ErrMissingCalendarID
	}

	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return wrapAPIError("delete event", err)
	}
	return nil
}

// wrapAPIError maps Google API status codes onto the package sentinels
func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("failed to %s: %w: %w", op, ErrNotFound, err)
		case http.StatusGone:
			return fmt.Errorf("failed to %s: %w: %w", op, ErrGone, err)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
