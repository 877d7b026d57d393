package persist

// Option configures a persister. Not every option applies to every persister.
type Option func(*config)

type config struct {
	idFieldName string
	store       Store
	filename    string
	table       string
}

// WithIDField sets the name of the field used as primary key.
// If not set, it is assumed the entity has a field with the name "ID".
func WithIDField(name string) Option {
	return func(c *config) {
		c.idFieldName = name
	}
}

// WithStore sets a Store used to write all entities of a Memory.
// ONLY applies to Memory.
//
// There are no transactions or any consistency guarantees at all! For example, if a store fails,
// the entity is still removed from memory, but the store might be half written.
func WithStore(store Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithStoreFilename overwrites the file name a Store uses for a Memory.
// ONLY applies to Memory.
func WithStoreFilename(name string) Option {
	return func(c *config) {
		c.filename = name
	}
}

// WithTable sets the table, entities are inserted into.
// ONLY applies to Postgres.
func WithTable(table string) Option {
	return func(c *config) {
		c.table = table
	}
}
