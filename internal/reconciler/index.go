package reconciler

import "github.com/teamcutter/sml/internal/domain"

type slot struct {
	entry   domain.ClasspathEntry
	version string
	removed bool
}

// orderedIndex keeps classpath entries in insertion order with a side map
// from group:artifact to the live slot of a deduplicated entry. Removal
// leaves a tombstone so later slots keep their positions.
type orderedIndex struct {
	slots []slot
	byKey map[string]int
}

func newOrderedIndex() *orderedIndex {
	return &orderedIndex{byKey: make(map[string]int)}
}

func (o *orderedIndex) append(e domain.ClasspathEntry) {
	o.slots = append(o.slots, slot{entry: e})
}

func (o *orderedIndex) put(key, version string, e domain.ClasspathEntry) {
	o.byKey[key] = len(o.slots)
	o.slots = append(o.slots, slot{entry: e, version: version})
}

func (o *orderedIndex) lookup(key string) (slot, bool) {
	i, ok := o.byKey[key]
	if !ok {
		return slot{}, false
	}
	return o.slots[i], true
}

func (o *orderedIndex) remove(key string) {
	if i, ok := o.byKey[key]; ok {
		o.slots[i].removed = true
		delete(o.byKey, key)
	}
}

func (o *orderedIndex) entries() []domain.ClasspathEntry {
	out := make([]domain.ClasspathEntry, 0, len(o.slots))
	for _, s := range o.slots {
		if !s.removed {
			out = append(out, s.entry)
		}
	}
	return out
}
