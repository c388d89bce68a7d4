package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "reportbuilder.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "reportbuilder.yaml" {
			t.Errorf("expected context file=reportbuilder.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !HasSeverity(err, SeverityFatal) {
			t.Error("expected error to have fatal severity")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})
}

func TestPipelineTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		err      *ClassifiedError
		category ErrorCategory
		severity ErrorSeverity
	}{
		{"workspace", WorkspaceError("mkdir").Build(), CategoryWorkspace, SeverityFatal},
		{"producer", ProducerError("draw").Build(), CategoryProducer, SeverityFatal},
		{"page save", PageSaveError("flush").Build(), CategoryPageSave, SeverityFatal},
		{"merge", MergeError("concat").Build(), CategoryMerge, SeverityFatal},
		{"cleanup", CleanupWarning("remove").Build(), CategoryCleanup, SeverityWarning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Category() != tc.category {
				t.Fatalf("category = %s, want %s", tc.err.Category(), tc.category)
			}
			if tc.err.Severity() != tc.severity {
				t.Fatalf("severity = %s, want %s", tc.err.Severity(), tc.severity)
			}
		})
	}
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := WrapError(originalErr, CategoryCleanup, "remove failed").
			Warning().
			Retryable().
			WithContext("path", "/tmp/ws/page_000001.pdf").
			WithContext("attempts", 3).
			Build()

		if err.Category() != CategoryCleanup {
			t.Errorf("expected category %s, got %s", CategoryCleanup, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}
		if n, ok := err.Context().GetInt("attempts"); !ok || n != 3 {
			t.Errorf("expected attempts=3, got %v", n)
		}
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := MergeError("missing artifact").Build()
		derived := base.WithContext("index", 2)

		if _, ok := base.Context().Get("index"); ok {
			t.Error("base context was mutated")
		}
		if n, _ := derived.Context().GetInt("index"); n != 2 {
			t.Errorf("expected derived index=2, got %d", n)
		}
	})
}

func TestHasCategoryThroughWrapping(t *testing.T) {
	inner := ProducerError("section failed").WithContext("section", "intro").Build()
	wrapped := fmt.Errorf("run aborted: %w", inner)

	if !HasCategory(wrapped, CategoryProducer) {
		t.Fatal("expected producer category through fmt wrapping")
	}
	if HasCategory(wrapped, CategoryMerge) {
		t.Fatal("unexpected merge category")
	}
	if GetCategory(wrapped) != CategoryProducer {
		t.Fatalf("GetCategory = %s", GetCategory(wrapped))
	}
	if GetCategory(errors.New("plain")) != CategoryInternal {
		t.Fatal("plain errors should fall back to internal")
	}
}

func TestHasCategoryNestedClassified(t *testing.T) {
	cause := PageSaveError("fsync").Build()
	outer := WrapError(cause, CategoryProducer, "drawing aborted").Build()

	if !HasCategory(outer, CategoryPageSave) {
		t.Fatal("expected nested page_save category to be found")
	}
}

func TestErrorsIsByCategoryAndMessage(t *testing.T) {
	a := MergeError("empty manifest").Build()
	b := MergeError("empty manifest").WithContext("x", 1).Build()
	if !errors.Is(a, b) {
		t.Fatal("errors with same category/message should match")
	}
	if errors.Is(a, MergeError("other").Build()) {
		t.Fatal("different message should not match")
	}
}
