package views

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/ticket-web/internal/domain"
)

const (
	createFailedMessage  = "Failed to create ticket. Please try again."
	createdMessage       = "Ticket created successfully!"
	updateFailedMessage  = "Failed to update status"
	statusUpdatedMessage = "Status updated successfully!"
)

// ErrBusy is returned when a form is submitted while a previous submission
// is still in flight.
var ErrBusy = errors.New("views: submission already in progress")

// ValidationError lists the fields that blocked a submission, keyed by the
// form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SubmitError carries the message shown to the user after a failed call.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

// NewValidator returns a validator that reports fields by their form name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

var fieldLabels = map[string]string{
	"full_name":       "Full Name",
	"email":           "Email",
	"message_subject": "Subject",
	"description":     "Description",
	"priority":        "Priority",
	"new_status":      "New Status",
	"assigned_to":     "Assign To",
	"changed_by":      "Changed By",
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		label := fieldLabels[fe.Field()]
		if label == "" {
			label = fe.Field()
		}
		switch fe.Tag() {
		case "required", "required_if":
			out.Fields[fe.Field()] = label + " is required"
		case "email":
			out.Fields[fe.Field()] = label + " must be a valid email address"
		default:
			out.Fields[fe.Field()] = label + " is invalid"
		}
	}
	return out
}

// TicketCreator creates tickets.
type TicketCreator interface {
	CreateTicket(ctx context.Context, input domain.NewTicket) (*domain.Ticket, error)
}

// TicketForm holds the draft of a ticket being created.
type TicketForm struct {
	Draft domain.NewTicket

	validate *validator.Validate
	busy     atomic.Bool
	created  *domain.Ticket
}

// NewTicketForm returns an empty draft with Medium priority.
func NewTicketForm(v *validator.Validate) *TicketForm {
	return &TicketForm{
		Draft:    domain.NewTicket{Priority: domain.TicketPriorityMedium},
		validate: v,
	}
}

// Busy reports whether a submission is in flight.
func (f *TicketForm) Busy() bool {
	return f.busy.Load()
}

// Validate checks the required fields of the draft.
func (f *TicketForm) Validate() error {
	f.normalize()
	if err := f.validate.Struct(f.Draft); err != nil {
		return validationError(err)
	}
	return nil
}

// Submit validates the draft and creates the ticket. On success it returns
// the detail page of the new ticket. The draft is kept on failure.
func (f *TicketForm) Submit(ctx context.Context, creator TicketCreator) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	if !f.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer f.busy.Store(false)

	ticket, err := creator.CreateTicket(ctx, f.Draft)
	if err != nil {
		return "", &SubmitError{Message: createFailedMessage, Err: err}
	}
	f.created = ticket
	return ticket.Path(), nil
}

// Created returns the ticket made by the last successful Submit.
func (f *TicketForm) Created() *domain.Ticket {
	return f.created
}

// Confirmation is the message shown after a successful creation.
func (f *TicketForm) Confirmation() string {
	return createdMessage
}

func (f *TicketForm) normalize() {
	d := &f.Draft
	d.FullName = strings.TrimSpace(d.FullName)
	d.Email = strings.TrimSpace(d.Email)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	d.CompanyName = strings.TrimSpace(d.CompanyName)
	d.MessageSubject = strings.TrimSpace(d.MessageSubject)
	if strings.TrimSpace(d.Description) == "" {
		d.Description = ""
	}
	if d.Priority == "" {
		d.Priority = domain.TicketPriorityMedium
	}
}

// StatusUpdater applies status changes.
type StatusUpdater interface {
	UpdateTicketStatus(ctx context.Context, id domain.TicketID, change domain.StatusChange) (json.RawMessage, error)
}

// StatusDraft is the editable part of a status update.
type StatusDraft struct {
	NewStatus  domain.TicketStatus `form:"new_status" validate:"oneof=New Assigned Processing Hold Solved"`
	AssignedTo string              `form:"assigned_to" validate:"required_if=NewStatus Assigned"`
	ChangedBy  string              `form:"changed_by" validate:"required"`
	Comment    string              `form:"comment"`
}

// StatusForm appends a status change to one ticket.
type StatusForm struct {
	TicketID domain.TicketID
	Current  domain.TicketStatus
	Draft    StatusDraft

	validate *validator.Validate
	busy     atomic.Bool
}

// NewStatusForm starts a draft that defaults to the current status.
func NewStatusForm(v *validator.Validate, id domain.TicketID, current domain.TicketStatus) *StatusForm {
	return &StatusForm{
		TicketID: id,
		Current:  current,
		Draft:    StatusDraft{NewStatus: current},
		validate: v,
	}
}

// AssigneeRequired reports whether the assignee field must be filled.
func (f *StatusForm) AssigneeRequired() bool {
	return f.Draft.NewStatus == domain.TicketStatusAssigned
}

// Busy reports whether a submission is in flight.
func (f *StatusForm) Busy() bool {
	return f.busy.Load()
}

// Validate checks the conditional requirements of the draft.
func (f *StatusForm) Validate() error {
	f.Draft.AssignedTo = strings.TrimSpace(f.Draft.AssignedTo)
	f.Draft.ChangedBy = strings.TrimSpace(f.Draft.ChangedBy)
	if err := f.validate.Struct(f.Draft); err != nil {
		return validationError(err)
	}
	return nil
}

// Submit sends the change, then runs onUpdated so the owner can refresh.
// On success comment and assignee are cleared while status and actor stay.
func (f *StatusForm) Submit(ctx context.Context, updater StatusUpdater, onUpdated func(context.Context)) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	if !f.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer f.busy.Store(false)

	change := domain.StatusChange{
		NewStatus:  f.Draft.NewStatus,
		ChangedBy:  f.Draft.ChangedBy,
		AssignedTo: f.Draft.AssignedTo,
		Comment:    f.Draft.Comment,
	}
	if _, err := updater.UpdateTicketStatus(ctx, f.TicketID, change); err != nil {
		return "", &SubmitError{Message: updateFailedMessage, Err: err}
	}
	if onUpdated != nil {
		onUpdated(ctx)
	}
	f.Draft.Comment = ""
	f.Draft.AssignedTo = ""
	return statusUpdatedMessage, nil
}
