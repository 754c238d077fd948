package mirror

// DeletionPolicy controls what happens to a stored entity once a complete
// snapshot stops mentioning it.
type DeletionPolicy int

const (
	// DeleteOnOmission purges the row outright. Omission from a complete
	// snapshot is the only deletion signal the source ever sends.
	DeleteOnOmission DeletionPolicy = iota

	// KeepTrashed is DeleteOnOmission plus a soft-delete stage: entities
	// the source flags as trashed stay stored (and queryable as trashed)
	// until they also vanish from a complete snapshot.
	KeepTrashed
)

func (p DeletionPolicy) String() string {
	switch p {
	case DeleteOnOmission:
		return "delete_on_omission"
	case KeepTrashed:
		return "keep_trashed"
	default:
		return "unknown"
	}
}
