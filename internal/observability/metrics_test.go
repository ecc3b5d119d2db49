package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
	m.RecordError("/ticket/:id", "GET", "UPSTREAM_FAILED")
	m.RecordUpstream("get_ticket", false, 5*time.Millisecond)
	m.RecordActivity("ticket_created")

	snap := m.Snapshot()
	if snap.Requests["/tickets|GET|200"] != 2 {
		t.Fatalf("unexpected request count: %v", snap.Requests)
	}
	if snap.Errors["/ticket/:id|GET|UPSTREAM_FAILED"] != 1 {
		t.Fatalf("unexpected error count: %v", snap.Errors)
	}
	if snap.Upstream["get_ticket|failed"] != 1 {
		t.Fatalf("unexpected upstream count: %v", snap.Upstream)
	}
	if snap.Activity["ticket_created"] != 1 {
		t.Fatalf("unexpected activity count: %v", snap.Activity)
	}

	snap.Requests["/tickets|GET|200"] = 99
	if m.Snapshot().Requests["/tickets|GET|200"] != 2 {
		t.Fatalf("snapshot must be a copy")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordUpstream("list_tickets", true, 0)
	m.RecordActivity("x")
	if snap := m.Snapshot(); snap.Requests != nil {
		t.Fatalf("nil metrics should produce empty snapshot")
	}
}
