// Package types defines the Mark entity, polymorphic references, the
// MarkStore and Resolver interfaces, and the standard error types shared by
// the registry, the mark service and the storage backends.
package types
