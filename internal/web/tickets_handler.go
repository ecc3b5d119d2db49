package web

import (
	"context"
	"errors"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-web/internal/domain"
	"github.com/spec-kit/ticket-web/internal/events"
	"github.com/spec-kit/ticket-web/internal/formtoken"
	"github.com/spec-kit/ticket-web/internal/observability"
	"github.com/spec-kit/ticket-web/internal/session"
	"github.com/spec-kit/ticket-web/internal/views"
	apperrors "github.com/spec-kit/ticket-web/pkg/util"
)

const (
	tokenField    = "form_token"
	purposeCreate = "create-ticket"

	expiredFormMessage = "This form has expired. Please review it and submit again."
	inProgressMessage  = "This form was already submitted and is still being processed."
)

// TicketsHandler serves the creation form, the ticket list and the ticket
// detail page.
type TicketsHandler struct {
	api      TicketAPI
	tokens   *formtoken.Issuer
	sessions *session.Manager
	events   events.Dispatcher
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(deps Deps, validate *validator.Validate) *TicketsHandler {
	return &TicketsHandler{
		api:      deps.API,
		tokens:   deps.Tokens,
		sessions: deps.Sessions,
		events:   deps.Events,
		validate: validate,
		logger:   deps.Logger,
	}
}

// NewTicket GET /create-ticket.
func (h *TicketsHandler) NewTicket(c *fiber.Ctx) error {
	return h.renderCreate(c, views.NewTicketForm(h.validate), "", nil)
}

// CreateTicket POST /create-ticket.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	form := views.NewTicketForm(h.validate)
	if err := c.BodyParser(&form.Draft); err != nil {
		return apperrors.NewValidationError("invalid form submission", nil)
	}
	token := c.FormValue(tokenField)
	if err := form.Validate(); err != nil {
		return h.renderCreate(c, form, token, formFailure(err))
	}

	ctx := c.UserContext()
	claim, err := h.tokens.Claim(ctx, token, purposeCreate)
	switch {
	case errors.Is(err, formtoken.ErrInvalidToken):
		return h.renderCreate(c, form, "", formFailure(err))
	case err != nil:
		return apperrors.NewInternalError(err)
	case claim.Duplicate:
		if claim.Result != "" {
			return c.Redirect(claim.Result, fiber.StatusSeeOther)
		}
		return h.renderCreate(c, form, token, inProgress())
	}

	path, err := form.Submit(ctx, h.api)
	if err != nil {
		h.release(ctx, claim)
		return h.renderCreate(c, form, token, formFailure(err))
	}
	h.complete(ctx, claim, path)

	created := form.Created()
	h.publish(ctx, events.New(events.EventTicketCreated, created.ID.String(), observability.RequestID(c),
		events.TicketCreatedPayload{Priority: form.Draft.Priority, Subject: form.Draft.MessageSubject}))

	s := h.loadSession(c)
	s.SetFlash(form.Confirmation())
	h.saveSession(c, s)
	return c.Redirect(path, fiber.StatusSeeOther)
}

// renderCreate shows the creation form. A non-nil failure sets the response
// status and the messages shown with the kept draft.
func (h *TicketsHandler) renderCreate(c *fiber.Ctx, form *views.TicketForm, token string, failure *apperrors.DomainError) error {
	if token == "" {
		var err error
		if token, err = h.tokens.Issue(purposeCreate); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	status := fiber.StatusOK
	if failure != nil {
		status = failure.HTTPStatus
	}
	fieldErrs, message := failureMessages(failure)
	return c.Status(status).Render("tickets/create", fiber.Map{
		"Title":  "Create Ticket",
		"Nav":    "create",
		"Draft":  form.Draft,
		"Errors": fieldErrs,
		"Error":  message,
		"Token":  token,
	}, layout)
}

// statusFormState is a status form being shown again, with the outcome of
// its last submission.
type statusFormState struct {
	Form   *views.StatusForm
	Token  string
	Errors map[string]string
	Error  string
}

// statusFormModel is what the status form partial renders.
type statusFormModel struct {
	Action           string
	Token            string
	Current          domain.TicketStatus
	Draft            views.StatusDraft
	AssigneeRequired bool
	Errors           map[string]string
	Error            string
	Filter           string
}

type listRow struct {
	views.Row
	ToggleURL string
	Form      *statusFormModel
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	return h.renderList(c, fiber.StatusOK, c.Query("status"), domain.TicketID(c.Query("expand")), nil)
}

// UpdateStatusFromList POST /tickets/:id/status.
func (h *TicketsHandler) UpdateStatusFromList(c *fiber.Ctx) error {
	form, token, err := h.parseStatusForm(c)
	if err != nil {
		return err
	}
	filter := domain.ParseStatus(c.FormValue("status_filter"))
	return h.applyStatus(c, form, token, listURL(filter, ""), func(state *statusFormState, status int) error {
		return h.renderList(c, status, string(filter), form.TicketID, state)
	})
}

func (h *TicketsHandler) renderList(c *fiber.Ctx, status int, rawFilter string, expand domain.TicketID, override *statusFormState) error {
	list := views.NewListView(h.api)
	snap := list.SetFilter(c.UserContext(), rawFilter)
	if expand != "" {
		list.Toggle(expand)
	}
	filter := list.Filter()

	s := h.loadSession(c)
	data := fiber.Map{
		"Title":  "All Tickets",
		"Nav":    "tickets",
		"Filter": string(filter),
		"Flash":  s.PopFlash(),
	}
	if snap.Failed() {
		failure := apperrors.ToDomainError(apperrors.NewUpstreamError("Error: "+snap.Err.Error(), snap.Err))
		data["Error"] = failure.Message
		if status == fiber.StatusOK {
			status = failure.HTTPStatus
		}
	}

	rows := list.Rows()
	out := make([]listRow, 0, len(rows))
	for _, r := range rows {
		row := listRow{Row: r, ToggleURL: listURL(filter, r.Ticket.ID)}
		if r.Expanded {
			row.ToggleURL = listURL(filter, "")
			state := override
			if state == nil || state.Form.TicketID != r.Ticket.ID {
				state = &statusFormState{Form: h.draftStatusForm(s, r.Ticket)}
			}
			model, err := h.statusForm(state, listStatusAction(r.Ticket.ID), filter)
			if err != nil {
				return err
			}
			row.Form = model
		}
		out = append(out, row)
	}
	data["Rows"] = out
	h.saveSession(c, s)
	return c.Status(status).Render("tickets/list", data, layout)
}

// GetTicket GET /ticket/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	return h.renderDetail(c, fiber.StatusOK, domain.TicketID(c.Params("id")), nil)
}

// UpdateStatusFromDetail POST /ticket/:id/status.
func (h *TicketsHandler) UpdateStatusFromDetail(c *fiber.Ctx) error {
	form, token, err := h.parseStatusForm(c)
	if err != nil {
		return err
	}
	return h.applyStatus(c, form, token, domain.DetailPath(form.TicketID), func(state *statusFormState, status int) error {
		return h.renderDetail(c, status, form.TicketID, state)
	})
}

func (h *TicketsHandler) renderDetail(c *fiber.Ctx, status int, id domain.TicketID, override *statusFormState) error {
	model := views.NewDetailView(h.api, id).Load(c.UserContext())

	s := h.loadSession(c)
	data := fiber.Map{
		"Title": "Ticket #" + id.String(),
		"Nav":   "tickets",
		"ID":    id.String(),
		"Flash": s.PopFlash(),
	}
	switch {
	case model.Phase == views.PhaseFailed:
		failure := apperrors.ToDomainError(apperrors.NewUpstreamError(model.Error, nil))
		data["Error"] = failure.Message
		if status == fiber.StatusOK {
			status = failure.HTTPStatus
		}
	case model.NotFound():
		failure := apperrors.ToDomainError(apperrors.NewNotFound("Ticket", nil))
		data["NotFound"] = failure.Message
		if status == fiber.StatusOK {
			status = failure.HTTPStatus
		}
	default:
		data["Ticket"] = model.Ticket
		data["History"] = model.History
		state := override
		if state == nil {
			state = &statusFormState{Form: h.draftStatusForm(s, *model.Ticket)}
		}
		form, err := h.statusForm(state, domain.DetailPath(id)+"/status", "")
		if err != nil {
			return err
		}
		data["Form"] = form
	}
	h.saveSession(c, s)
	return c.Status(status).Render("tickets/detail", data, layout)
}

func (h *TicketsHandler) parseStatusForm(c *fiber.Ctx) (*views.StatusForm, string, error) {
	id := domain.TicketID(c.Params("id"))
	current := domain.ParseStatus(c.FormValue("current_status"))
	form := views.NewStatusForm(h.validate, id, current)
	if err := c.BodyParser(&form.Draft); err != nil {
		return nil, "", apperrors.NewValidationError("invalid form submission", nil)
	}
	return form, c.FormValue(tokenField), nil
}

// applyStatus submits a status form once per token. On success the kept
// draft fields go to the session and the browser is sent to redirect; on
// failure rerender shows the form again with its input intact.
func (h *TicketsHandler) applyStatus(c *fiber.Ctx, form *views.StatusForm, token, redirect string, rerender func(*statusFormState, int) error) error {
	if err := form.Validate(); err != nil {
		return rerenderFailed(rerender, form, token, formFailure(err))
	}

	ctx := c.UserContext()
	claim, err := h.tokens.Claim(ctx, token, statusPurpose(form.TicketID))
	switch {
	case errors.Is(err, formtoken.ErrInvalidToken):
		return rerenderFailed(rerender, form, "", formFailure(err))
	case err != nil:
		return apperrors.NewInternalError(err)
	case claim.Duplicate:
		if claim.Result != "" {
			return c.Redirect(claim.Result, fiber.StatusSeeOther)
		}
		return rerenderFailed(rerender, form, token, inProgress())
	}

	old := form.Current
	requestID := observability.RequestID(c)
	msg, err := form.Submit(ctx, h.api, func(ctx context.Context) {
		h.publish(ctx, events.New(events.EventTicketStatusUpdated, form.TicketID.String(), requestID,
			events.TicketStatusUpdatedPayload{
				OldStatus:  old,
				NewStatus:  form.Draft.NewStatus,
				ChangedBy:  form.Draft.ChangedBy,
				AssignedTo: form.Draft.AssignedTo,
			}))
	})
	if err != nil {
		h.release(ctx, claim)
		return rerenderFailed(rerender, form, token, formFailure(err))
	}
	h.complete(ctx, claim, redirect)

	s := h.loadSession(c)
	s.SetFlash(msg)
	s.SetDraft(form.TicketID.String(), session.StatusDraft{
		NewStatus: string(form.Draft.NewStatus),
		ChangedBy: form.Draft.ChangedBy,
	})
	h.saveSession(c, s)
	return c.Redirect(redirect, fiber.StatusSeeOther)
}

// draftStatusForm starts a status form for t, restoring the status and
// actor last entered for it in this session.
func (h *TicketsHandler) draftStatusForm(s *session.Session, t domain.Ticket) *views.StatusForm {
	form := views.NewStatusForm(h.validate, t.ID, t.Status)
	if d, ok := s.Draft(t.ID.String()); ok {
		if st := domain.ParseStatus(d.NewStatus); st != "" {
			form.Draft.NewStatus = st
		}
		form.Draft.ChangedBy = d.ChangedBy
	}
	return form
}

func (h *TicketsHandler) statusForm(state *statusFormState, action string, filter domain.TicketStatus) (*statusFormModel, error) {
	token := state.Token
	if token == "" {
		var err error
		if token, err = h.tokens.Issue(statusPurpose(state.Form.TicketID)); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	return &statusFormModel{
		Action:           action,
		Token:            token,
		Current:          state.Form.Current,
		Draft:            state.Form.Draft,
		AssigneeRequired: state.Form.AssigneeRequired(),
		Errors:           state.Errors,
		Error:            state.Error,
		Filter:           string(filter),
	}, nil
}

func (h *TicketsHandler) loadSession(c *fiber.Ctx) *session.Session {
	s, err := h.sessions.Load(c)
	if err != nil {
		h.logger.Warn("session unavailable", zap.String("request_id", observability.RequestID(c)), zap.Error(err))
	}
	return s
}

func (h *TicketsHandler) saveSession(c *fiber.Ctx, s *session.Session) {
	if err := h.sessions.Save(c, s); err != nil {
		h.logger.Warn("session not saved", zap.String("request_id", observability.RequestID(c)), zap.Error(err))
	}
}

func (h *TicketsHandler) complete(ctx context.Context, claim formtoken.Claim, result string) {
	if err := h.tokens.Complete(ctx, claim, result); err != nil {
		h.logger.Warn("form token not completed", zap.Error(err))
	}
}

func (h *TicketsHandler) release(ctx context.Context, claim formtoken.Claim) {
	if err := h.tokens.Release(ctx, claim); err != nil {
		h.logger.Warn("form token not released", zap.Error(err))
	}
}

func (h *TicketsHandler) publish(ctx context.Context, event events.Event) {
	if err := h.events.Publish(ctx, event); err != nil {
		h.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func rerenderFailed(rerender func(*statusFormState, int) error, form *views.StatusForm, token string, failure *apperrors.DomainError) error {
	fieldErrs, message := failureMessages(failure)
	return rerender(&statusFormState{Form: form, Token: token, Errors: fieldErrs, Error: message}, failure.HTTPStatus)
}

// formFailure maps a rejected form submission onto the error taxonomy.
func formFailure(err error) *apperrors.DomainError {
	var vErr *views.ValidationError
	var submitErr *views.SubmitError
	switch {
	case errors.As(err, &vErr):
		return apperrors.ToDomainError(apperrors.NewValidationError("some fields need attention", map[string]any{"fields": vErr.Fields}))
	case errors.As(err, &submitErr):
		return apperrors.ToDomainError(apperrors.NewUpstreamError(submitErr.Message, submitErr.Err))
	case errors.Is(err, formtoken.ErrInvalidToken):
		return apperrors.ToDomainError(apperrors.NewValidationError(expiredFormMessage, nil))
	case errors.Is(err, views.ErrBusy):
		return inProgress()
	}
	return apperrors.ToDomainError(err)
}

func inProgress() *apperrors.DomainError {
	return apperrors.ToDomainError(apperrors.NewConflict(inProgressMessage, nil))
}

// failureMessages splits a failure into per-field messages and a banner.
func failureMessages(failure *apperrors.DomainError) (map[string]string, string) {
	if failure == nil {
		return nil, ""
	}
	if fields, ok := failure.Details["fields"].(map[string]string); ok {
		return fields, ""
	}
	return nil, failure.Message
}

func statusPurpose(id domain.TicketID) string {
	return "ticket-status:" + id.String()
}

func listURL(filter domain.TicketStatus, expand domain.TicketID) string {
	q := url.Values{}
	if filter != "" {
		q.Set("status", string(filter))
	}
	if expand != "" {
		q.Set("expand", expand.String())
	}
	if len(q) == 0 {
		return "/tickets"
	}
	return "/tickets?" + q.Encode()
}

func listStatusAction(id domain.TicketID) string {
	return "/tickets/" + url.PathEscape(id.String()) + "/status"
}
