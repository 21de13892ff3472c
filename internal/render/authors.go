package render

// AuthorSet keeps distinct author names in first-seen order.
type AuthorSet struct {
	names []string
	seen  map[string]struct{}
}

// NewAuthorSet returns an empty set.
func NewAuthorSet() *AuthorSet {
	return &AuthorSet{seen: make(map[string]struct{})}
}

// Add records name unless it is empty or already present.
func (a *AuthorSet) Add(name string) {
	if name == "" {
		return
	}
	if _, ok := a.seen[name]; ok {
		return
	}
	a.seen[name] = struct{}{}
	a.names = append(a.names, name)
}

// Names returns the authors in insertion order.
func (a *AuthorSet) Names() []string {
	return append([]string(nil), a.names...)
}
