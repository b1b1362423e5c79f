package gcal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Scopes requested at consent time
var Scopes = []string{
	calendar.CalendarReadonlyScope,
	calendar.CalendarEventsScope,
	googleoauth2.UserinfoProfileScope,
	googleoauth2.UserinfoEmailScope,
}

// TokenUpdateFunc is called when the token source refreshes the access token
type TokenUpdateFunc func(token *oauth2.Token) error

// Event is a remote calendar event reduced to what the planner needs
type Event struct {
	ID     string
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
}

// EventInput describes an event to create
type EventInput struct {
	Title      string
	Start      time.Time
	Duration   int // minutes
	TimeZone   string
	Recurrence []string // RRULE lines
}

// Profile is the Google account identity
type Profile struct {
	ID      string
	Name    string
	Email   string
	Picture string
}

type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
	calendarID   string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[GCal] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret, redirectURI, calendarID string) *Service {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		calendarID:   calendarID,
	}
}

// Configured reports whether OAuth client credentials are present
func (s *Service) Configured() bool {
	return s.clientID != "" && s.clientSecret != ""
}

func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       Scopes,
	}
}

// AuthURL returns the consent page URL for the given state
func (s *Service) AuthURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// NewClient creates a calendar client authorized with token
func (s *Service) NewClient(ctx context.Context, token *oauth2.Token, onTokenRefresh TokenUpdateFunc) (*Client, error) {
	src := &notifyTokenSource{
		src:      s.oauthConfig().TokenSource(context.Background(), token),
		current:  token,
		callback: onTokenRefresh,
	}
	httpClient := oauth2.NewClient(context.Background(), src)
	return newClient(ctx, s.calendarID, option.WithHTTPClient(httpClient))
}

// FetchProfile returns the profile of the account that owns token
func (s *Service) FetchProfile(ctx context.Context, token *oauth2.Token) (Profile, error) {
	client, err := s.NewClient(ctx, token, nil)
	if err != nil {
		return Profile{}, err
	}
	return client.FetchProfile(ctx)
}

// NewClientWithEndpoint creates a client against a custom API endpoint
func NewClientWithEndpoint(ctx context.Context, httpClient *http.Client, endpoint, calendarID string) (*Client, error) {
	return newClient(ctx, calendarID, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
}

// Client talks to one user's calendar
type Client struct {
	cal        *calendar.Service
	userinfo   *googleoauth2.Service
	calendarID string
}

func newClient(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Client, error) {
	cal, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}
	ui, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create userinfo service: %v", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{cal: cal, userinfo: ui, calendarID: calendarID}, nil
}

// ListEvents returns single (expanded) events starting in [from, to), ordered by start
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	events := make([]Event, 0)
	pageToken := ""
	for {
		call := c.cal.Events.List(c.calendarID).
			Context(ctx).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			MaxResults(250)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list events: %w", err)
		}

		for _, item := range resp.Items {
			if item.Status == "cancelled" {
				continue
			}
			e, err := convertEvent(item, from.Location())
			if err != nil {
				log.Printf("[GCal] Skipping event %s: %v", item.Id, err)
				continue
			}
			events = append(events, e)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return events, nil
}

// CreateEvent inserts an event and returns its remote id
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (string, error) {
	end := in.Start.Add(time.Duration(in.Duration) * time.Minute)
	ev := &calendar.Event{
		Summary: in.Title,
		Start: &calendar.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: in.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: in.TimeZone,
		},
		Recurrence: in.Recurrence,
	}

	created, err := c.cal.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes an event. Deleting an already deleted event succeeds.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	err := c.cal.Events.Delete(c.calendarID, id).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusGone || apiErr.Code == http.StatusNotFound) {
			return nil
		}
		return fmt.Errorf("unable to delete event %s: %w", id, err)
	}
	return nil
}

// FetchProfile returns the signed-in user's profile
func (c *Client) FetchProfile(ctx context.Context) (Profile, error) {
	info, err := c.userinfo.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Profile{}, fmt.Errorf("unable to fetch profile: %w", err)
	}
	return Profile{
		ID:      info.Id,
		Name:    info.Name,
		Email:   info.Email,
		Picture: info.Picture,
	}, nil
}

func convertEvent(item *calendar.Event, loc *time.Location) (Event, error) {
	if item.Start == nil {
		return Event{}, errors.New("missing start")
	}
	start, allDay, err := parseEventTime(item.Start, loc)
	if err != nil {
		return Event{}, err
	}

	end := time.Time{}
	if item.End != nil {
		if t, _, err := parseEventTime(item.End, loc); err == nil {
			end = t
		}
	}

	return Event{
		ID:     item.Id,
		Title:  item.Summary,
		Start:  start,
		End:    end,
		AllDay: allDay,
	}, nil
}

func parseEventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, bool, error) {
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.In(loc), false, nil
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
		if err != nil {
			return time.Time{}, true, err
		}
		return t, true, nil
	}
	return time.Time{}, false, errors.New("event has neither dateTime nor date")
}
