package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is one VEVENT in an exported calendar.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders calendar events as iCalendar (RFC 5545).
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//attendance-tracker//EN"
	}
	return &ICSExporter{productID: productID, now: time.Now}
}

func (e *ICSExporter) ContentType() string { return "text/calendar" }
func (e *ICSExporter) Extension() string   { return "ics" }

// Render serialises the events into a VCALENDAR named title.
func (e *ICSExporter) Render(title string, events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if title != "" {
		cal.SetName(title)
	}

	stamp := e.now().UTC()
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("calendar event without uid")
		}
		if ev.End.Before(ev.Start) {
			return nil, fmt.Errorf("calendar event %s ends before it starts", ev.UID)
		}
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(ev.Start.UTC())
		event.SetEndAt(ev.End.UTC())
		event.SetSummary(ev.Summary)
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
	}

	return []byte(cal.Serialize()), nil
}
