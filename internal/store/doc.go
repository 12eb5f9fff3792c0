// Package store defines shared persistence abstractions used by the
// concrete store implementations under internal/platform.
package store
