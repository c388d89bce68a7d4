// Package errors provides foundational, type-safe error primitives used across reportbuilder.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (workspace, producer, page_save, merge, ...)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// The pipeline taxonomy maps onto categories:
//
//	WorkspaceError  -> CategoryWorkspace (fatal)
//	ProducerError   -> CategoryProducer  (fatal)
//	PageSaveError   -> CategoryPageSave  (fatal)
//	MergeError      -> CategoryMerge     (fatal)
//	CleanupWarning  -> CategoryCleanup   (warning, never returned as a run error)
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryMerge, "artifact missing").
//		Fatal().
//		WithContext("path", artifactPath).
//		Build()
package errors
