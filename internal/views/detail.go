package views

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/ticket-web/internal/domain"
)

// TicketReader reads a ticket and its history.
type TicketReader interface {
	GetTicket(ctx context.Context, id domain.TicketID) (*domain.Ticket, error)
	GetTicketHistory(ctx context.Context, id domain.TicketID) ([]domain.HistoryEntry, error)
}

// DetailModel is what the detail page renders. Exactly one of Loading,
// Error, NotFound or Ticket applies.
type DetailModel struct {
	Phase   Phase
	Error   string
	Ticket  *domain.Ticket
	History []domain.HistoryEntry
}

// NotFound reports a successful fetch that returned no ticket.
func (m DetailModel) NotFound() bool {
	return m.Phase == PhaseLoaded && m.Ticket == nil
}

// DetailView owns one ticket page: the ticket and its history, each with
// its own fetch state.
type DetailView struct {
	client TicketReader

	mu      sync.Mutex
	id      domain.TicketID
	ticket  State[*domain.Ticket]
	history State[[]domain.HistoryEntry]
}

// NewDetailView returns an idle view for id.
func NewDetailView(client TicketReader, id domain.TicketID) *DetailView {
	return &DetailView{client: client, id: id}
}

// ID returns the ticket the view shows.
func (v *DetailView) ID() domain.TicketID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.id
}

// Navigate switches to another ticket and loads it.
func (v *DetailView) Navigate(ctx context.Context, id domain.TicketID) DetailModel {
	v.mu.Lock()
	v.id = id
	v.mu.Unlock()
	return v.Load(ctx)
}

// Load fetches the ticket and its history concurrently and waits for both.
// A failure in one fetch neither cancels nor blocks the other.
func (v *DetailView) Load(ctx context.Context) DetailModel {
	id := v.ID()
	ticketGen := v.ticket.Begin()
	historyGen := v.history.Begin()

	var g errgroup.Group
	g.Go(func() error {
		ticket, err := v.client.GetTicket(ctx, id)
		v.ticket.Finish(ticketGen, ticket, err)
		return nil
	})
	g.Go(func() error {
		history, err := v.client.GetTicketHistory(ctx, id)
		v.history.Finish(historyGen, history, err)
		return nil
	})
	_ = g.Wait()

	return v.Model()
}

// StatusUpdated re-fetches both ticket and history for a view kept across
// the update. Pages served over HTTP refresh through the redirect instead.
func (v *DetailView) StatusUpdated(ctx context.Context) {
	v.Load(ctx)
}

// Model combines both fetch states. The ticket error wins over the history
// error.
func (v *DetailView) Model() DetailModel {
	ticket := v.ticket.Snapshot()
	history := v.history.Snapshot()

	switch {
	case ticket.Phase == PhaseIdle && history.Phase == PhaseIdle:
		return DetailModel{Phase: PhaseIdle}
	case ticket.Phase == PhaseLoading || history.Phase == PhaseLoading:
		return DetailModel{Phase: PhaseLoading}
	case ticket.Failed():
		return DetailModel{Phase: PhaseFailed, Error: "Error fetching ticket details: " + ticket.Err.Error()}
	case history.Failed():
		return DetailModel{Phase: PhaseFailed, Error: "Error fetching ticket history: " + history.Err.Error()}
	}
	return DetailModel{Phase: PhaseLoaded, Ticket: ticket.Value, History: history.Value}
}
