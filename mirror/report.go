package mirror

import "time"

// KindReport summarizes what one pass did to one collection.
type KindReport struct {
	Kind      Kind   `json:"entity_type"`
	Inserted  int    `json:"inserted"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Removed   int    `json:"removed"`
	Position  string `json:"position"`
}

// PassReport is the outcome of one sync pass. Kinds holds an entry for
// every collection whose position was stale; collections already current
// are absent.
type PassReport struct {
	PassID    string        `json:"pass_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Kinds     []KindReport  `json:"kinds"`
	Anomalies []Anomaly     `json:"anomalies,omitempty"`
}

// Changed reports whether the pass wrote anything.
func (r *PassReport) Changed() bool {
	for _, k := range r.Kinds {
		if k.Inserted > 0 || k.Updated > 0 || k.Removed > 0 {
			return true
		}
	}
	return false
}

func kindReport(d *Delta, position string) KindReport {
	return KindReport{
		Kind:      d.Kind,
		Inserted:  len(d.Insert),
		Updated:   len(d.Update),
		Unchanged: len(d.Unchanged),
		Removed:   len(d.Remove),
		Position:  position,
	}
}
