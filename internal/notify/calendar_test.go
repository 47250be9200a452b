package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type recordedCall struct {
	method string
	path   string
	body   map[string]any
}

func newCalendarServer(t *testing.T, status int, respBody string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := recordedCall{method: r.Method, path: r.URL.Path}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &c.body)
		}
		calls = append(calls, c)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestCalendar(t *testing.T, srv *httptest.Server) *GoogleCalendar {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	g, err := NewGoogleCalendar(context.Background(), "", loc, nil, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return g
}

func TestCalendarCreateEvent(t *testing.T) {
	srv, calls := newCalendarServer(t, http.StatusOK, `{"id":"evt-1"}`)
	g := newTestCalendar(t, srv)

	loc, _ := time.LoadLocation("Asia/Kolkata")
	start := time.Date(2025, 5, 31, 14, 0, 0, 0, loc)
	id, err := g.CreateEvent(context.Background(), "john@clinic.test", "Appointment with patient 7", start, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPost, c.method)
	assert.True(t, strings.HasSuffix(c.path, "/calendars/john@clinic.test/events"), c.path)
	assert.Equal(t, "Appointment with patient 7", c.body["summary"])

	startField := c.body["start"].(map[string]any)
	assert.Equal(t, "2025-05-31T14:00:00+05:30", startField["dateTime"])
	assert.Equal(t, "Asia/Kolkata", startField["timeZone"])
	endField := c.body["end"].(map[string]any)
	assert.Equal(t, "2025-05-31T14:30:00+05:30", endField["dateTime"])

	reminders := c.body["reminders"].(map[string]any)
	assert.Equal(t, false, reminders["useDefault"])
	assert.Len(t, reminders["overrides"], 2)
}

func TestCalendarUpdateEvent(t *testing.T) {
	srv, calls := newCalendarServer(t, http.StatusOK, `{"id":"evt-1"}`)
	g := newTestCalendar(t, srv)

	start := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	id, err := g.UpdateEvent(context.Background(), "evt-1", "john@clinic.test", start, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)

	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPatch, (*calls)[0].method)
	assert.True(t, strings.HasSuffix((*calls)[0].path, "/calendars/john@clinic.test/events/evt-1"))
}

func TestCalendarDeleteEventAlreadyGone(t *testing.T) {
	srv, calls := newCalendarServer(t, http.StatusNotFound, `{"error":{"code":404,"message":"Not Found"}}`)
	g := newTestCalendar(t, srv)

	err := g.DeleteEvent(context.Background(), "john@clinic.test", "evt-1")
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
}

func TestCalendarCreateEventFailure(t *testing.T) {
	srv, _ := newCalendarServer(t, http.StatusForbidden, `{"error":{"code":403,"message":"Forbidden"}}`)
	g := newTestCalendar(t, srv)

	_, err := g.CreateEvent(context.Background(), "john@clinic.test", "x", time.Now(), 30*time.Minute)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Status)
}
