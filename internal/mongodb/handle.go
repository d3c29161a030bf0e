package mongodb

// Handle identifies the collection operations run against. Handles are
// immutable values; WithName derives a new handle rather than mutating the
// receiver.
type Handle struct {
	database string
	name     string
}

// NewHandle builds a handle for the named collection.
func NewHandle(database, name string) Handle {
	return Handle{database: database, name: name}
}

// Database returns the database portion of the handle.
func (h Handle) Database() string { return h.database }

// Name returns the collection portion of the handle.
func (h Handle) Name() string { return h.name }

// WithName derives a handle for a different collection in the same database.
func (h Handle) WithName(name string) Handle {
	return Handle{database: h.database, name: name}
}

// FullName returns the namespace string the server uses for the collection.
func (h Handle) FullName() string {
	return h.database + "." + h.name
}
