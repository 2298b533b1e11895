package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each workspace
// or server instance its own namespace in a shared backend.
//
//	keys := NewScopedKeyer(NewDefaultKeyer(), "team-a:")
//	keys.SessionKey("42") // "team-a:session:42"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SessionKey(id string) string {
	return k.prefix + k.inner.SessionKey(id)
}

func (k *ScopedKeyer) SessionIndex() string {
	return k.prefix + k.inner.SessionIndex()
}

func (k *ScopedKeyer) DatasetKey(fingerprint string) string {
	return k.prefix + k.inner.DatasetKey(fingerprint)
}

func (k *ScopedKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(fingerprint, opts)
}
