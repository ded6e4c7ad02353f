package types

// Commit describes one committed write transaction. Keys holds the ids of
// entities the transaction touched, including parents whose derived lists
// changed (a new pictogram touches its binder).
type Commit struct {
	Seq         uint64
	Collections []string
	Keys        []string
}

// TouchesCollection reports whether the commit wrote to collection.
func (c Commit) TouchesCollection(collection string) bool {
	for _, name := range c.Collections {
		if name == collection {
			return true
		}
	}
	return false
}

// TouchesKey reports whether the commit touched the entity key.
func (c Commit) TouchesKey(key string) bool {
	for _, k := range c.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// CommitListener receives commits after they are durable.
type CommitListener interface {
	Committed(Commit)
}

// CommitListenerFunc adapts a function to CommitListener.
type CommitListenerFunc func(Commit)

// Committed calls f(c).
func (f CommitListenerFunc) Committed(c Commit) { f(c) }
