package events

// Finance event types emitted for downstream consumers (notifications,
// dashboards).
const (
	EventJournalEntryCreated   = "journal_entry.created"
	EventJournalEntryDeleted   = "journal_entry.deleted"
	EventInvoiceIssued         = "invoice.issued"
	EventDepreciationRunPosted = "depreciation_run.posted"
)

// JournalEntryPayload captures the minimal data needed to react to a
// journal posting.
type JournalEntryPayload struct {
	JournalEntryID  string `json:"journal_entry_id"`
	ReferenceNumber string `json:"reference_number"`
	ReferenceType   string `json:"reference_type,omitempty"`
	ReferenceID     string `json:"reference_id,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p JournalEntryPayload) ToMap() map[string]any {
	payload := map[string]any{
		"journal_entry_id": p.JournalEntryID,
		"reference_number": p.ReferenceNumber,
	}
	if p.ReferenceType != "" {
		payload["reference_type"] = p.ReferenceType
	}
	if p.ReferenceID != "" {
		payload["reference_id"] = p.ReferenceID
	}
	return payload
}

// InvoicePayload captures the minimal data needed to react to an invoice
// event.
type InvoicePayload struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p InvoicePayload) ToMap() map[string]any {
	return map[string]any{
		"invoice_id":     p.InvoiceID,
		"invoice_number": p.InvoiceNumber,
	}
}

// DepreciationRunPayload captures the minimal data needed to react to a
// posted depreciation run.
type DepreciationRunPayload struct {
	RunID       string `json:"run_id"`
	Period      string `json:"period"`
	TotalAmount string `json:"total_amount"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p DepreciationRunPayload) ToMap() map[string]any {
	return map[string]any{
		"run_id":       p.RunID,
		"period":       p.Period,
		"total_amount": p.TotalAmount,
	}
}
