// Package postgres contains the PostgreSQL-backed store implementations.
package postgres
