package domain

// HistoryEntry is an immutable record of one status transition.
type HistoryEntry struct {
	ChangedAt  Timestamp    `json:"changed_at"`
	OldStatus  TicketStatus `json:"old_status"`
	NewStatus  TicketStatus `json:"new_status"`
	ChangedBy  string       `json:"changed_by"`
	AssignedTo string       `json:"assigned_to,omitempty"`
	Comment    string       `json:"comment,omitempty"`
}

// StatusChange is the payload of a status update request.
type StatusChange struct {
	NewStatus  TicketStatus `json:"new_status"`
	ChangedBy  string       `json:"changed_by"`
	AssignedTo string       `json:"assigned_to"`
	Comment    string       `json:"comment"`
}
