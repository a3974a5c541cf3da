// Package database provides the PostgreSQL connection pool that stores
// the last known good quote per symbol.
//
// The store is optional. When enabled, quotes survive restarts and seed the
// in-memory cache before the first refresh cycle.
package database
