package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

func TestCancelErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want types.ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, types.CodeTimeout},
		{"wrapped deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), types.CodeTimeout},
		{"cancel", context.Canceled, types.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cancelError(tc.err)
			if got.Code != tc.want {
				t.Errorf("cancelError(%v).Code = %s, want %s", tc.err, got.Code, tc.want)
			}
			if !errors.Is(got, tc.err) {
				t.Errorf("cancelError(%v) must wrap its cause", tc.err)
			}
		})
	}
}

func TestIsLockErr(t *testing.T) {
	if !isLockErr(errors.New("Could not set lock on file")) {
		t.Error("lock message not recognized")
	}
	if isLockErr(errors.New("syntax error")) {
		t.Error("unrelated message flagged as lock contention")
	}
	if isLockErr(nil) {
		t.Error("nil is not a lock error")
	}
}
