// Package lifecycle holds the status sets and transition graphs for leads and
// jobs, and the gate every persisted status change must pass through.
package lifecycle

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind identifies the entity a status table belongs to.
type Kind string

const (
	KindLead Kind = "lead"
	KindJob  Kind = "job"
)

// Status is a named point in a lead's or job's progression.
type Status string

// Definition is one row of a transition table.
type Definition struct {
	Status Status
	Label  string
	Next   []Status
}

// Table is an immutable transition table. Build one with NewTable; the zero
// value has no statuses and allows nothing.
type Table struct {
	kind    Kind
	success Status
	order   []Status
	labels  map[Status]string
	next    map[Status][]Status
}

// NewTable validates the definitions and returns a table whose canonical
// order is the order of defs. success names the terminal-success status used
// for conversion rates.
func NewTable(kind Kind, success Status, defs ...Definition) (*Table, error) {
	t := &Table{
		kind:    kind,
		success: success,
		order:   make([]Status, 0, len(defs)),
		labels:  make(map[Status]string, len(defs)),
		next:    make(map[Status][]Status, len(defs)),
	}

	for _, def := range defs {
		if def.Status == "" {
			return nil, fmt.Errorf("%s table: empty status", kind)
		}
		if _, dup := t.next[def.Status]; dup {
			return nil, fmt.Errorf("%s table: duplicate status %q", kind, def.Status)
		}
		t.order = append(t.order, def.Status)
		t.labels[def.Status] = labelOrDefault(def.Label, def.Status)
		t.next[def.Status] = nil
	}

	for _, def := range defs {
		targets := make([]Status, 0, len(def.Next))
		seen := make(map[Status]struct{}, len(def.Next))
		for _, to := range def.Next {
			if _, ok := t.next[to]; !ok {
				return nil, fmt.Errorf("%s table: %q -> %q targets unknown status", kind, def.Status, to)
			}
			// Self-loops are never valid, so they are dropped instead of stored.
			if to == def.Status {
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			targets = append(targets, to)
		}
		t.next[def.Status] = targets
	}

	if success != "" {
		if _, ok := t.next[success]; !ok {
			return nil, fmt.Errorf("%s table: success status %q is not a member", kind, success)
		}
	}

	return t, nil
}

// MustTable is NewTable for package-level tables known to be well formed.
func MustTable(kind Kind, success Status, defs ...Definition) *Table {
	t, err := NewTable(kind, success, defs...)
	if err != nil {
		panic(err)
	}
	return t
}

func labelOrDefault(label string, status Status) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	// Casers carry state and are not shared between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}

// Kind returns the entity kind of the table.
func (t *Table) Kind() Kind {
	if t == nil {
		return ""
	}
	return t.kind
}

// Success returns the terminal-success status ("won", "completed").
func (t *Table) Success() Status {
	if t == nil {
		return ""
	}
	return t.success
}

// Statuses returns the canonical status order.
func (t *Table) Statuses() []Status {
	if t == nil {
		return []Status{}
	}
	out := make([]Status, len(t.order))
	copy(out, t.order)
	return out
}

// Contains reports whether s is a member of the table.
func (t *Table) Contains(s Status) bool {
	if t == nil {
		return false
	}
	_, ok := t.next[s]
	return ok
}

// Label returns the display label for s, or the raw value for non-members.
func (t *Table) Label(s Status) string {
	if t == nil {
		return string(s)
	}
	if label, ok := t.labels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminal reports whether s is a member with no outgoing transitions.
func (t *Table) IsTerminal(s Status) bool {
	if t == nil {
		return false
	}
	targets, ok := t.next[s]
	return ok && len(targets) == 0
}

// IsValidTransition reports whether from -> to is allowed by t. Unknown
// statuses and self-transitions are never valid.
func IsValidTransition(t *Table, from, to Status) bool {
	if t == nil || from == to {
		return false
	}
	for _, candidate := range t.next[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the ordered targets reachable from from. The
// result is empty for unknown and terminal statuses.
func AllowedTransitions(t *Table, from Status) []Status {
	if t == nil {
		return []Status{}
	}
	targets := t.next[from]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// ParseStatus normalises raw and reports whether it is a member of t.
func ParseStatus(t *Table, raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Contains(s) {
		return "", false
	}
	return s, true
}

// StatusStrings converts statuses for JSON and error payloads.
func StatusStrings(in []Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
