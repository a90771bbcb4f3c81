package orders

import "strings"

// ---------------------------------------------------------------------------
// Status Vocabulary
// ---------------------------------------------------------------------------

// Status is the canonical stored status value of an order, as written by the
// remote order-management backend.
type Status string

const (
	// StatusOpen indicates the order is open and awaiting approval
	StatusOpen Status = "aberto"
	// StatusApproved indicates the order has been approved
	StatusApproved Status = "aprovado"
	// StatusPreparing indicates the shipment is being prepared
	StatusPreparing Status = "preparando_envio"
	// StatusInvoiced indicates the order has been invoiced
	StatusInvoiced Status = "faturado"
	// StatusReadyToShip indicates the shipment is ready to leave
	StatusReadyToShip Status = "pronto_envio"
	// StatusShipped indicates the order is in transit
	StatusShipped Status = "enviado"
	// StatusDelivered indicates the order was delivered
	StatusDelivered Status = "entregue"
	// StatusNotDelivered indicates a failed delivery attempt
	StatusNotDelivered Status = "nao_entregue"
	// StatusCancelled indicates the order was cancelled
	StatusCancelled Status = "cancelado"
)

// statusLabels is the single bidirectional table between canonical stored
// values and the UI-facing labels. Filtering and metric bucketing both
// resolve through this table so the two can never drift apart.
var statusLabels = map[Status]string{
	StatusOpen:         "Em Aberto",
	StatusApproved:     "Aprovado",
	StatusPreparing:    "Preparando Envio",
	StatusInvoiced:     "Faturado",
	StatusReadyToShip:  "Pronto para Envio",
	StatusShipped:      "Enviado",
	StatusDelivered:    "Entregue",
	StatusNotDelivered: "Não Entregue",
	StatusCancelled:    "Cancelado",
}

// labelToStatus is derived from statusLabels, keyed by lowercased label.
var labelToStatus = func() map[string]Status {
	m := make(map[string]Status, len(statusLabels))
	for s, label := range statusLabels {
		m[strings.ToLower(label)] = s
	}
	return m
}()

// IsValid returns true if the status is part of the canonical vocabulary.
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// String returns the canonical stored value.
func (s Status) String() string {
	return string(s)
}

// Label returns the UI-facing label for the status. Unknown statuses are
// returned verbatim.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CanonicalStatus resolves free-form input (a UI label or a stored value, in
// any casing) to its canonical status. The second return value is false when
// the input matches neither side of the table.
func CanonicalStatus(input string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	if s, ok := labelToStatus[normalized]; ok {
		return s, true
	}
	s := Status(normalized)
	if s.IsValid() {
		return s, true
	}
	return "", false
}

// AllStatuses returns the canonical vocabulary in a fixed order.
func AllStatuses() []Status {
	return []Status{
		StatusOpen,
		StatusApproved,
		StatusPreparing,
		StatusInvoiced,
		StatusReadyToShip,
		StatusShipped,
		StatusDelivered,
		StatusNotDelivered,
		StatusCancelled,
	}
}
