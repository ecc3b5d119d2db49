package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusAssigned   TicketStatus = "Assigned"
	TicketStatusProcessing TicketStatus = "Processing"
	TicketStatusHold       TicketStatus = "Hold"
	TicketStatusSolved     TicketStatus = "Solved"
)

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

var (
	allStatuses   = []TicketStatus{TicketStatusNew, TicketStatusAssigned, TicketStatusProcessing, TicketStatusHold, TicketStatusSolved}
	allPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
)

// AllStatuses lists statuses in lifecycle order.
func AllStatuses() []TicketStatus {
	return append([]TicketStatus(nil), allStatuses...)
}

// AllPriorities lists priorities from least to most urgent.
func AllPriorities() []TicketPriority {
	return append([]TicketPriority(nil), allPriorities...)
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Slug returns the badge class suffix for the status.
func (s TicketStatus) Slug() string {
	return slug(string(s))
}

// Valid reports whether p is one of the known priorities.
func (p TicketPriority) Valid() bool {
	for _, known := range allPriorities {
		if p == known {
			return true
		}
	}
	return false
}

// Slug returns the badge class suffix for the priority.
func (p TicketPriority) Slug() string {
	return slug(string(p))
}

func slug(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "unknown"
	}
	return strings.ReplaceAll(v, " ", "-")
}

// ParseStatus maps a user supplied filter value onto a status. Empty and
// unknown values yield "" which means no filter.
func ParseStatus(raw string) TicketStatus {
	s := TicketStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return ""
	}
	return s
}

// TicketID is the server-assigned identifier, kept verbatim.
type TicketID string

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *TicketID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TicketID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ticket id: %w", err)
	}
	*id = TicketID(n.String())
	return nil
}

func (id TicketID) String() string {
	return string(id)
}

// Ticket is a support request as returned by the ticket API.
type Ticket struct {
	ID             TicketID       `json:"ticket_id"`
	FullName       string         `json:"full_name"`
	Email          string         `json:"email"`
	PhoneNumber    string         `json:"phone_number,omitempty"`
	CompanyName    string         `json:"company_name,omitempty"`
	MessageSubject string         `json:"message_subject"`
	Description    string         `json:"description"`
	Priority       TicketPriority `json:"priority"`
	Status         TicketStatus   `json:"status"`
	AssignedTo     string         `json:"assigned_to,omitempty"`
	CreatedAt      Timestamp      `json:"created_at"`
	AssignedAt     Timestamp      `json:"assigned_at"`
}

// IsAssigned reports whether the ticket has an assignee.
func (t Ticket) IsAssigned() bool {
	return strings.TrimSpace(t.AssignedTo) != ""
}

// Path returns the detail page location for the ticket.
func (t Ticket) Path() string {
	return DetailPath(t.ID)
}

// DetailPath builds the detail page location for id.
func DetailPath(id TicketID) string {
	return "/ticket/" + url.PathEscape(string(id))
}

// NewTicket is the creation payload.
type NewTicket struct {
	FullName       string         `json:"full_name" form:"full_name" validate:"required"`
	PhoneNumber    string         `json:"phone_number" form:"phone_number"`
	Email          string         `json:"email" form:"email" validate:"required,email"`
	CompanyName    string         `json:"company_name" form:"company_name"`
	MessageSubject string         `json:"message_subject" form:"message_subject" validate:"required"`
	Description    string         `json:"description" form:"description" validate:"required"`
	Priority       TicketPriority `json:"priority" form:"priority" validate:"oneof=Low Medium High Urgent"`
}
