// Package fixtures builds ledger rows and carrier payloads for tests.
package fixtures

import "time"

// Ptr returns a pointer to v. Ledger rows carry most optional columns as pointers.
func Ptr[T any](v T) *T {
	return &v
}

func StringPtr(s string) *string { return Ptr(s) }
func BoolPtr(b bool) *bool { return Ptr(b) }
func TimePtr(t time.Time) *time.Time { return Ptr(t) }
