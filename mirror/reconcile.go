package mirror

// Delta is the classified outcome of comparing one incoming batch against
// the stored fingerprints for a kind. Insert and Update keep batch order;
// Remove holds the uids of stored entities a complete snapshot omitted.
type Delta struct {
	Kind      Kind
	Insert    []Snapshot
	Update    []Snapshot
	Unchanged []string
	Remove    []string
	Anomalies []Anomaly
}

// Empty reports whether applying the delta would change nothing.
func (d *Delta) Empty() bool {
	return len(d.Insert) == 0 && len(d.Update) == 0 && len(d.Remove) == 0
}

// Reconcile classifies an incoming batch against the stored uid->fingerprint
// map. Unknown uid -> Insert; known uid with a differing fingerprint ->
// Update; matching fingerprint -> Unchanged. When complete is true the batch
// is a full snapshot and every stored uid it omits goes to Remove;
// incremental batches never remove anything.
//
// A uid appearing more than once in one batch is an anomaly; the last
// occurrence wins, consistent with replaying the batch as a sequence of
// upserts.
func Reconcile(kind Kind, stored map[string]string, incoming []Snapshot, complete bool) *Delta {
	d := &Delta{Kind: kind}

	// Deduplicate first so classification sees each uid's final state.
	last := make(map[string]int, len(incoming))
	for i, snap := range incoming {
		uid := snap.EntityUID()
		if _, dup := last[uid]; dup {
			d.Anomalies = append(d.Anomalies, Anomaly{
				Kind:   kind,
				UID:    uid,
				Reason: AnomalyDuplicateUID,
				Detail: "last occurrence wins",
			})
		}
		last[uid] = i
	}

	seen := make(map[string]bool, len(incoming))
	for i, snap := range incoming {
		uid := snap.EntityUID()
		if last[uid] != i {
			continue
		}
		seen[uid] = true

		have, ok := stored[uid]
		switch {
		case !ok:
			d.Insert = append(d.Insert, snap)
		case have != snap.Fingerprint():
			d.Update = append(d.Update, snap)
		default:
			d.Unchanged = append(d.Unchanged, uid)
		}
	}

	if complete {
		for uid := range stored {
			if !seen[uid] {
				d.Remove = append(d.Remove, uid)
			}
		}
	}
	return d
}
