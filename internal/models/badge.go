package models

import "strings"

// BadgeStatus is a per-field validation verdict.
type BadgeStatus string

const (
	BadgeOk    BadgeStatus = "ok"
	BadgeAviso BadgeStatus = "aviso"
	BadgeErro  BadgeStatus = "erro"
)

// Severity orders verdicts: ok(0) < aviso(1) < erro(2).
func (s BadgeStatus) Severity() int {
	switch s {
	case BadgeAviso:
		return 1
	case BadgeErro:
		return 2
	default:
		return 0
	}
}

// Badge is a single validation verdict for one field of one row.
type Badge struct {
	Field   string      `json:"field"`
	Status  BadgeStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// BadgeSet accumulates badges for one row under the merge algebra:
// higher severity wins, equal severity merges messages, lower severity
// is ignored. A row never carries two badges for the same field.
type BadgeSet struct {
	badges map[string]Badge
	order  []string // insertion order for fields outside the stable order
}

// NewBadgeSet returns an empty badge accumulator.
func NewBadgeSet() *BadgeSet {
	return &BadgeSet{badges: make(map[string]Badge)}
}

// Update merges a verdict for a field into the set.
func (b *BadgeSet) Update(field string, status BadgeStatus, message string) {
	existing, ok := b.badges[field]
	if ok {
		if status.Severity() < existing.Status.Severity() {
			return
		}
		if status.Severity() == existing.Status.Severity() {
			message = mergeMessages(existing.Message, message)
		}
	} else {
		b.order = append(b.order, field)
	}
	b.badges[field] = Badge{Field: field, Status: status, Message: message}
}

// Get returns the current badge for a field, if any.
func (b *BadgeSet) Get(field string) (Badge, bool) {
	badge, ok := b.badges[field]
	return badge, ok
}

// Ordered returns the badges sorted by the given stable field order,
// followed by any extra fields in insertion order.
func (b *BadgeSet) Ordered(fieldOrder []string) []Badge {
	seen := make(map[string]bool, len(fieldOrder))
	out := make([]Badge, 0, len(b.badges))
	for _, field := range fieldOrder {
		seen[field] = true
		if badge, ok := b.badges[field]; ok {
			out = append(out, badge)
		}
	}
	for _, field := range b.order {
		if !seen[field] {
			out = append(out, b.badges[field])
		}
	}
	return out
}

func mergeMessages(existing, incoming string) string {
	if existing == "" {
		return incoming
	}
	if incoming == "" || strings.Contains(existing, incoming) {
		return existing
	}
	return existing + "; " + incoming
}
