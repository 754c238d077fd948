package mirror

import "fmt"

// checkOrdering scans a batch for duplicate display positions within one
// sibling scope. Duplicates are reported as anomalies, not repaired: the
// stored positions always stay exactly as delivered and ties resolve by
// batch order at read time.
func checkOrdering(kind Kind, incoming []Snapshot) []Anomaly {
	type slot struct {
		scope string
		pos   int32
	}
	var anomalies []Anomaly
	firstAt := make(map[slot]string)
	for _, snap := range incoming {
		ord, ok := snap.(Ordered)
		if !ok {
			return nil
		}
		s := slot{scope: ord.OrderScope(), pos: ord.OrderPosition()}
		if prev, dup := firstAt[s]; dup {
			anomalies = append(anomalies, Anomaly{
				Kind:   kind,
				UID:    snap.EntityUID(),
				Reason: AnomalyDuplicatePosition,
				Detail: fmt.Sprintf("position %d in scope %q also held by %s", s.pos, s.scope, prev),
			})
			continue
		}
		firstAt[s] = snap.EntityUID()
	}
	return anomalies
}
