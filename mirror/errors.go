package mirror

import (
	"fmt"
	"strings"
)

// IntegrityError is a referential-integrity failure surfaced at commit
// time: a batch referenced an entity that exists in neither the batch nor
// the store. The transaction that produced it was rolled back.
type IntegrityError struct {
	Kind       Kind
	UIDs       []string
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation applying %s (constraint %s, uids %s): %v",
		e.Kind, e.Constraint, strings.Join(e.UIDs, ","), e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// CycleError reports a category parent chain that loops back on itself.
// The offending batch is rejected before commit.
type CycleError struct {
	UIDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("category parent cycle through %s", strings.Join(e.UIDs, " -> "))
}

// Anomaly reason codes.
const (
	AnomalyDuplicateUID      = "duplicate_uid"
	AnomalyDuplicatePosition = "duplicate_position"
)

// Anomaly is a non-fatal data oddity observed during a pass. Anomalies are
// reported and counted but never block the batch.
type Anomaly struct {
	Kind   Kind   `json:"entity_type"`
	UID    string `json:"uid"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (a Anomaly) String() string {
	if a.Detail != "" {
		return fmt.Sprintf("%s/%s: %s (%s)", a.Kind, a.UID, a.Reason, a.Detail)
	}
	return fmt.Sprintf("%s/%s: %s", a.Kind, a.UID, a.Reason)
}
