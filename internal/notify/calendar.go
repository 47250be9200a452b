package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleCalendar keeps one event per appointment on the doctor's calendar.
// The calendar id is the doctor's email.
type GoogleCalendar struct {
	svc      *calendar.Service
	timezone string
	breaker  *Breaker
	log      *zap.Logger
}

// NewGoogleCalendar builds a client from a service account credentials file
// plus any extra client options.
func NewGoogleCalendar(ctx context.Context, credentialsFile string, loc *time.Location, breaker *Breaker, log *zap.Logger, opts ...option.ClientOption) (*GoogleCalendar, error) {
	if credentialsFile != "" {
		opts = append([]option.ClientOption{
			option.WithCredentialsFile(credentialsFile),
			option.WithScopes(calendar.CalendarScope),
		}, opts...)
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GoogleCalendar{svc: svc, timezone: loc.String(), breaker: breaker, log: log}, nil
}

func (g *GoogleCalendar) window(start time.Time, d time.Duration) (*calendar.EventDateTime, *calendar.EventDateTime) {
	return &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: g.timezone},
		&calendar.EventDateTime{DateTime: start.Add(d).Format(time.RFC3339), TimeZone: g.timezone}
}

// CreateEvent inserts the event with an email reminder a day ahead and a
// popup ten minutes ahead, returning the event id.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, calendarID, summary string, start time.Time, d time.Duration) (string, error) {
	ctx, span := tracer.Start(ctx, "notify.calendar.create")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.id", calendarID))

	startDT, endDT := g.window(start, d)
	ev := &calendar.Event{
		Summary: summary,
		Start:   startDT,
		End:     endDT,
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	var created *calendar.Event
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = g.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
		return classify(err)
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("create calendar event: %w", err)
	}
	return created.Id, nil
}

// UpdateEvent moves an existing event to start and returns its id.
func (g *GoogleCalendar) UpdateEvent(ctx context.Context, eventID, calendarID string, start time.Time, d time.Duration) (string, error) {
	ctx, span := tracer.Start(ctx, "notify.calendar.update")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.id", calendarID), attribute.String("calendar.event_id", eventID))

	startDT, endDT := g.window(start, d)
	patch := &calendar.Event{Start: startDT, End: endDT}

	var updated *calendar.Event
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		updated, err = g.svc.Events.Patch(calendarID, eventID, patch).Context(ctx).Do()
		return classify(err)
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("update calendar event: %w", err)
	}
	return updated.Id, nil
}

// DeleteEvent removes the event. An event that is already gone counts as
// deleted.
func (g *GoogleCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	ctx, span := tracer.Start(ctx, "notify.calendar.delete")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.id", calendarID), attribute.String("calendar.event_id", eventID))

	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		return classify(g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do())
	})
	var se *StatusError
	if errors.As(err, &se) && (se.Status == http.StatusNotFound || se.Status == http.StatusGone) {
		g.log.Info("calendar event already gone", zap.String("event_id", eventID))
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &StatusError{Provider: "google calendar", Status: gerr.Code, Detail: gerr.Message}
	}
	return err
}
