package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving a server
// instance or a test its own namespace in a shared backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SnapshotKey implements Keyer.
func (k *ScopedKeyer) SnapshotKey(datasetHash string, opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(datasetHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(snapshotHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(snapshotHash, format)
}
