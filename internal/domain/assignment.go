package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// AssignmentType is the kind of record being routed to a staff member.
type AssignmentType string

const (
	AssignmentTypeLead     AssignmentType = "lead"
	AssignmentTypeCustomer AssignmentType = "customer"
	AssignmentTypePolicy   AssignmentType = "policy"
)

func (t AssignmentType) Valid() bool {
	switch t {
	case AssignmentTypeLead, AssignmentTypeCustomer, AssignmentTypePolicy:
		return true
	}
	return false
}

// Urgency is an optional hint carried with assignment requests.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyNormal, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// AssignmentCriteria describes what needs an owner.
type AssignmentCriteria struct {
	AssignmentType  AssignmentType
	Territory       string
	Specialization  string
	CurrentOwnerID  string
	PreferredTeamID string
	Urgency         Urgency
}

// AssigneeKind tags an AssigneeRef.
type AssigneeKind string

const (
	AssigneeSingle AssigneeKind = "single"
	AssigneeMany   AssigneeKind = "many"
)

// AssigneeRef is either a single staff id or a list of staff ids. Upstream
// producers send both shapes under the same key; the shape is resolved here
// once so handlers only ever see IDs().
type AssigneeRef struct {
	Kind AssigneeKind
	ids  []string
}

// SingleAssignee builds a single-id reference.
func SingleAssignee(id string) AssigneeRef {
	return AssigneeRef{Kind: AssigneeSingle, ids: []string{id}}
}

// ManyAssignees builds a multi-id reference.
func ManyAssignees(ids ...string) AssigneeRef {
	return AssigneeRef{Kind: AssigneeMany, ids: append([]string(nil), ids...)}
}

// IDs returns the non-empty staff ids referenced.
func (a AssigneeRef) IDs() []string {
	out := make([]string, 0, len(a.ids))
	for _, id := range a.ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// IsZero reports whether no staff id is referenced.
func (a AssigneeRef) IsZero() bool {
	return len(a.IDs()) == 0
}

// Contains reports whether id is referenced.
func (a AssigneeRef) Contains(id string) bool {
	return containsString(a.IDs(), id)
}

// UnmarshalJSON accepts either "id" or ["id", ...].
func (a *AssigneeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = AssigneeRef{}
		return nil
	}
	if data[0] == '[' {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		*a = ManyAssignees(ids...)
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*a = SingleAssignee(id)
	return nil
}

// MarshalJSON writes the shape matching Kind.
func (a AssigneeRef) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AssigneeSingle:
		ids := a.IDs()
		if len(ids) == 0 {
			return []byte("null"), nil
		}
		return json.Marshal(ids[0])
	case AssigneeMany:
		return json.Marshal(a.IDs())
	default:
		return []byte("null"), nil
	}
}
