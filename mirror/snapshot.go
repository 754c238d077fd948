package mirror

// Snapshot is one entity record as delivered by the source. The fingerprint
// is an opaque token: two snapshots of the same entity are considered equal
// exactly when their fingerprints match, and fingerprints are never
// interpreted beyond string equality.
type Snapshot interface {
	EntityUID() string
	Fingerprint() string
}

// Ordered is implemented by snapshots that carry a display position within
// a sibling scope. Positions are stored exactly as delivered and never
// renumbered locally.
type Ordered interface {
	OrderScope() string
	OrderPosition() int32
}
