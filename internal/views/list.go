package views

import (
	"context"
	"sync"

	"github.com/spec-kit/ticket-web/internal/domain"
)

// DescriptionPreviewLength is how many characters of a description the
// table shows.
const DescriptionPreviewLength = 100

// TicketLister lists tickets with an optional status filter.
type TicketLister interface {
	ListTickets(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error)
}

// Row is one rendered line of the ticket table.
type Row struct {
	Ticket   domain.Ticket
	Summary  string
	Assignee string
	Expanded bool
}

// ListView owns the ticket table: filter, fetched tickets and the single
// expanded status panel.
type ListView struct {
	client TicketLister

	mu       sync.Mutex
	filter   domain.TicketStatus
	expanded domain.TicketID
	tickets  State[[]domain.Ticket]
}

// NewListView returns an idle list with no filter.
func NewListView(client TicketLister) *ListView {
	return &ListView{client: client}
}

// Filter returns the active status filter, "" when none.
func (v *ListView) Filter() domain.TicketStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// SetFilter changes the filter and fetches the matching tickets. Unknown
// values clear the filter.
func (v *ListView) SetFilter(ctx context.Context, raw string) Snapshot[[]domain.Ticket] {
	v.mu.Lock()
	v.filter = domain.ParseStatus(raw)
	v.mu.Unlock()
	return v.Reload(ctx)
}

// Reload fetches tickets for the current filter. A response that arrives
// after a newer Reload started is discarded.
func (v *ListView) Reload(ctx context.Context) Snapshot[[]domain.Ticket] {
	filter := v.Filter()
	gen := v.tickets.Begin()
	tickets, err := v.client.ListTickets(ctx, filter)
	v.tickets.Finish(gen, tickets, err)
	return v.tickets.Snapshot()
}

// Toggle expands the status panel of id, collapsing any other one. Toggling
// the expanded row collapses it.
func (v *ListView) Toggle(id domain.TicketID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.expanded == id {
		v.expanded = ""
		return
	}
	v.expanded = id
}

// Expanded returns the row whose panel is open, "" when none.
func (v *ListView) Expanded() domain.TicketID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expanded
}

// StatusUpdated collapses the panel and re-fetches the filtered list. It is
// for a view that outlives the update; the web handlers build a fresh view
// per request and get the same refresh from the redirect that follows a
// successful update.
func (v *ListView) StatusUpdated(ctx context.Context) {
	v.mu.Lock()
	v.expanded = ""
	v.mu.Unlock()
	v.Reload(ctx)
}

// State returns the current fetch state.
func (v *ListView) State() Snapshot[[]domain.Ticket] {
	return v.tickets.Snapshot()
}

// Rows renders the loaded tickets for the table. It is empty unless the
// state is loaded.
func (v *ListView) Rows() []Row {
	snap := v.tickets.Snapshot()
	if !snap.Loaded() {
		return nil
	}
	expanded := v.Expanded()
	rows := make([]Row, 0, len(snap.Value))
	for _, t := range snap.Value {
		assignee := t.AssignedTo
		if !t.IsAssigned() {
			assignee = "-"
		}
		rows = append(rows, Row{
			Ticket:   t,
			Summary:  domain.Truncate(t.Description, DescriptionPreviewLength),
			Assignee: assignee,
			Expanded: expanded != "" && t.ID == expanded,
		})
	}
	return rows
}
