package views

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/ticket-web/internal/domain"
)

var errUpstream = errors.New("failed to fetch")

// fakeAPI is an in-memory ticket service that behaves like the paired
// backend: new tickets start as New and every update appends history.
type fakeAPI struct {
	mu      sync.Mutex
	nextID  int
	tickets map[domain.TicketID]*domain.Ticket
	history map[domain.TicketID][]domain.HistoryEntry

	calls        map[string]int
	lastStatus   domain.TicketStatus
	failTicket   bool
	failHistory  bool
	failCreate   bool
	failUpdate   bool
	ticketDelay  time.Duration
	listGate     map[domain.TicketStatus]chan struct{}
	historyAfter chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID:  1,
		tickets: map[domain.TicketID]*domain.Ticket{},
		history: map[domain.TicketID][]domain.HistoryEntry{},
		calls:   map[string]int{},
	}
}

func (f *fakeAPI) seed(t domain.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := t
	f.tickets[t.ID] = &cp
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) CreateTicket(_ context.Context, in domain.NewTicket) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.failCreate {
		return nil, errUpstream
	}
	id := domain.TicketID(strconv.Itoa(f.nextID))
	f.nextID++
	t := &domain.Ticket{
		ID:             id,
		FullName:       in.FullName,
		Email:          in.Email,
		MessageSubject: in.MessageSubject,
		Description:    in.Description,
		Priority:       in.Priority,
		Status:         domain.TicketStatusNew,
	}
	f.tickets[id] = t
	cp := *t
	return &cp, nil
}

func (f *fakeAPI) GetTicket(_ context.Context, id domain.TicketID) (*domain.Ticket, error) {
	if f.ticketDelay > 0 {
		time.Sleep(f.ticketDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["get"]++
	if f.failTicket {
		return nil, errUpstream
	}
	t, ok := f.tickets[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeAPI) GetTicketHistory(_ context.Context, id domain.TicketID) ([]domain.HistoryEntry, error) {
	if f.historyAfter != nil {
		<-f.historyAfter
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["history"]++
	if f.failHistory {
		return nil, errUpstream
	}
	return append([]domain.HistoryEntry{}, f.history[id]...), nil
}

func (f *fakeAPI) ListTickets(_ context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	f.mu.Lock()
	gate := f.listGate[status]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	f.lastStatus = status
	out := []domain.Ticket{}
	for i := 1; i < 1000; i++ {
		t, ok := f.tickets[domain.TicketID(strconv.Itoa(i))]
		if !ok {
			continue
		}
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeAPI) UpdateTicketStatus(_ context.Context, id domain.TicketID, change domain.StatusChange) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.failUpdate {
		return nil, errUpstream
	}
	t, ok := f.tickets[id]
	if !ok {
		return nil, errUpstream
	}
	f.history[id] = append(f.history[id], domain.HistoryEntry{
		OldStatus:  t.Status,
		NewStatus:  change.NewStatus,
		ChangedBy:  change.ChangedBy,
		AssignedTo: change.AssignedTo,
		Comment:    change.Comment,
	})
	t.Status = change.NewStatus
	if change.AssignedTo != "" {
		t.AssignedTo = change.AssignedTo
	}
	return json.RawMessage(`{"message":"Ticket status updated successfully"}`), nil
}
