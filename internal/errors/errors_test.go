package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestSyncError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SyncError
		want string
	}{
		{
			name: "what only",
			err:  &SyncError{What: "remote request failed"},
			want: "remote request failed",
		},
		{
			name: "what and why",
			err:  &SyncError{What: "remote request failed", Why: "gave up after 6 attempts"},
			want: "remote request failed: gave up after 6 attempts",
		},
		{
			name: "with cause",
			err:  &SyncError{What: "store write failed", Cause: fmt.Errorf("disk full")},
			want: "store write failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSyncError_Category(t *testing.T) {
	tests := []struct {
		code Code
		want Category
	}{
		{CodeRemoteTransient, CategoryRetryable},
		{CodeRemoteNotFound, CategorySkippable},
		{CodeRemotePermanent, CategorySkippable},
		{CodeParseSkippable, CategorySkippable},
		{CodeStoreWriteFailed, CategoryFatal},
		{CodeConfigInvalid, CategoryFatal},
		{Code("BOGUS"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			e := &SyncError{Code: tt.code}
			if got := e.Category(); got != tt.want {
				t.Errorf("Category() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSyncError_Is(t *testing.T) {
	wrapped := fmt.Errorf("fetch project: %w", ErrRemoteNotFound("project 123"))

	if !stderrors.Is(wrapped, &SyncError{Code: CodeRemoteNotFound}) {
		t.Error("wrapped not-found error should match by code")
	}
	if stderrors.Is(wrapped, &SyncError{Code: CodeRemoteTransient}) {
		t.Error("wrapped not-found error must not match transient code")
	}
}

func TestSyncError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ErrStoreWrite("merge", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestCategoryOf(t *testing.T) {
	if got := CategoryOf(ErrRemoteTransient(503, 6)); got != CategoryRetryable {
		t.Errorf("CategoryOf(transient) = %v, want retryable", got)
	}
	if got := CategoryOf(fmt.Errorf("plain")); got != CategoryUnknown {
		t.Errorf("CategoryOf(plain) = %v, want unknown", got)
	}
	wrapped := fmt.Errorf("outer: %w", ErrStoreWrite("merge", nil))
	if got := CategoryOf(wrapped); got != CategoryFatal {
		t.Errorf("CategoryOf(wrapped store error) = %v, want fatal", got)
	}
}

func TestAsSyncError(t *testing.T) {
	orig := ErrRemotePermanent(403, "token lacks workspace scope")
	wrapped := fmt.Errorf("list projects: %w", orig)

	got := AsSyncError(wrapped)
	if got == nil {
		t.Fatal("AsSyncError returned nil for wrapped SyncError")
	}
	if got.Status != 403 {
		t.Errorf("Status = %d, want 403", got.Status)
	}

	if AsSyncError(fmt.Errorf("plain")) != nil {
		t.Error("AsSyncError should return nil for plain errors")
	}
}
