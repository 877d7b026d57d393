// Package persist offers ready made Persisters for factories,
// so Store works without writing a persistence layer for every entity.
//
// Memory keeps the entities in memory and can write them to a Store, e.g. a JSONStore for local demos.
// Postgres inserts the entities into a table of a PostgreSQL database.
//
//	users := persist.NewMemory[*User, int]()
//	f := factory.New[*User](def, factory.WithPersister[*User](users))
package persist
