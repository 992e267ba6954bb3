package types

// Flash is the opaque persistent-storage collaborator the config
// store writes through. The on-flash layout and wear handling are the
// implementation's business; the store only ever round-trips one blob.
type Flash interface {
	// ReadAll returns the persisted blob, or nil when nothing has been
	// written yet.
	ReadAll() ([]byte, error)
	WriteAll(blob []byte) error
}
