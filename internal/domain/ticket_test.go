package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTicketDecodeFromAPI(t *testing.T) {
	body := `{
		"ticket_id": 42,
		"full_name": "Jane Doe",
		"email": "jane@x.com",
		"phone_number": null,
		"company_name": null,
		"message_subject": "Login broken",
		"description": "Cannot log in",
		"assigned_to": null,
		"status": "New",
		"priority": "High",
		"created_at": "2024-03-05 10:20:30",
		"assigned_at": null
	}`
	var ticket Ticket
	if err := json.Unmarshal([]byte(body), &ticket); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ticket.ID != "42" {
		t.Fatalf("expected id 42, got %q", ticket.ID)
	}
	if ticket.Path() != "/ticket/42" {
		t.Fatalf("unexpected path %q", ticket.Path())
	}
	if ticket.Status != TicketStatusNew || ticket.Priority != TicketPriorityHigh {
		t.Fatalf("unexpected status/priority: %s/%s", ticket.Status, ticket.Priority)
	}
	want := time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)
	if !ticket.CreatedAt.Equal(want) {
		t.Fatalf("expected created_at %v, got %v", want, ticket.CreatedAt.Time)
	}
	if !ticket.AssignedAt.IsZero() || ticket.IsAssigned() {
		t.Fatalf("expected unassigned ticket")
	}
}

func TestTicketIDAcceptsStrings(t *testing.T) {
	var id TicketID
	if err := json.Unmarshal([]byte(`"TCK-0007"`), &id); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if id != "TCK-0007" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, raw := range []string{
		"2024-03-05T10:20:30Z",
		"2024-03-05T10:20:30",
		"2024-03-05 10:20:30",
		"2024-03-05 10:20:30.123456",
	} {
		parsed, err := ParseTimestamp(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if parsed.Year() != 2024 || parsed.Minute() != 20 {
			t.Fatalf("parse %q: unexpected %v", raw, parsed)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error for unknown layout")
	}
}

func TestTimestampKeepsUnknownLayout(t *testing.T) {
	var got Ticket
	data := `{"ticket_id":3,"created_at":"2024-01-02T10:00:00+0000","assigned_at":null}`
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.CreatedAt.IsSet() || got.CreatedAt.Display() != "2024-01-02T10:00:00+0000" {
		t.Fatalf("raw timestamp should be shown verbatim, got %q", got.CreatedAt.Display())
	}
	if got.AssignedAt.IsSet() || got.AssignedAt.Display() != "" {
		t.Fatalf("null timestamp should stay unset: %+v", got.AssignedAt)
	}
}

func TestTruncate(t *testing.T) {
	desc := strings.Repeat("a", 150)
	got := Truncate(desc, 100)
	if got != strings.Repeat("a", 100)+"..." {
		t.Fatalf("unexpected truncation of %d chars: %q", len(desc), got)
	}
	if Truncate("short", 100) != "short" {
		t.Fatalf("short strings must be untouched")
	}
	exact := strings.Repeat("b", 100)
	if Truncate(exact, 100) != exact {
		t.Fatalf("exactly 100 characters must not get an ellipsis")
	}
	if got := Truncate(strings.Repeat("é", 101), 100); got != strings.Repeat("é", 100)+"..." {
		t.Fatalf("truncation must count runes, got %q", got)
	}
}

func TestStatusAndPriorityEnums(t *testing.T) {
	if len(AllStatuses()) != 5 || len(AllPriorities()) != 4 {
		t.Fatalf("unexpected enum sizes")
	}
	for _, s := range AllStatuses() {
		if !s.Valid() || s.Slug() == "" {
			t.Fatalf("status %q must be valid with a slug", s)
		}
	}
	if TicketStatus("Closed").Valid() {
		t.Fatalf("Closed is not a known status")
	}
	if ParseStatus("Hold") != TicketStatusHold || ParseStatus("bogus") != "" || ParseStatus("") != "" {
		t.Fatalf("unexpected ParseStatus results")
	}
	if TicketStatus("").Slug() != "unknown" {
		t.Fatalf("empty status should slug to unknown")
	}
}
