// Package audit defines the durable record of an inspection and the Store
// capability that persists it.
//
// Backends live in package audit/storage: an in-memory map for tests and
// development, SQLite and PostgreSQL for durable deployments, and a Redis
// cache that can front either durable store.
package audit
