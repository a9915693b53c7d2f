// Package library holds the user's saved terms.
//
// A Library is an ordered, id-unique collection of term records with the most
// recently saved record first. Mutating methods return a new Library and leave
// the receiver untouched, so a caller can persist the new value through a Store
// and only adopt it once the write succeeded.
//
// The durable form is a single JSON document stored under StorageKey. The
// SQLiteStore keeps it in a small key/value table; MemoryStore is used in tests.
package library
