package repository

import (
	"context"
	"testing"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// The guard clauses fire before any query runs, so a nil handle is enough.

func TestDeleteBulkRequiresConfirmation(t *testing.T) {
	d := NewDeleter(nil)
	for _, op := range []string{"bulk-by-type", "bulk-by-tag", "bulk-by-branch", "bulk-by-repository"} {
		_, err := d.Delete(context.Background(), "repo", "main", &DeleteRequest{
			Operation:  op,
			EntityType: "component",
		})
		if !types.HasCode(err, types.CodeConfirmationRequired) {
			t.Errorf("%s without confirm: got %v, want CONFIRMATION_REQUIRED", op, err)
		}
	}
}

func TestDeleteUnknownOperation(t *testing.T) {
	d := NewDeleter(nil)
	_, err := d.Delete(context.Background(), "repo", "main", &DeleteRequest{
		Operation: "bulk-by-phase-of-moon",
		Confirm:   true,
	})
	if !types.HasCode(err, types.CodeUnsupportedOperation) {
		t.Errorf("got %v, want UNSUPPORTED_OPERATION", err)
	}
}

func TestDeleteSingleRejectsBadInput(t *testing.T) {
	d := NewDeleter(nil)
	_, err := d.Delete(context.Background(), "repo", "main", &DeleteRequest{
		Operation:  "single",
		EntityType: "repository",
		ID:         "repo:main",
	})
	if !types.HasCode(err, types.CodeInvalidArgs) {
		t.Errorf("repository as single target: got %v, want INVALID_ARGS", err)
	}
	_, err = d.Delete(context.Background(), "repo", "main", &DeleteRequest{
		Operation:  "single",
		EntityType: "component",
	})
	if !types.HasCode(err, types.CodeInvalidArgs) {
		t.Errorf("missing id: got %v, want INVALID_ARGS", err)
	}
}

func TestDeleteByTagRequiresTagID(t *testing.T) {
	d := NewDeleter(nil)
	_, err := d.Delete(context.Background(), "repo", "main", &DeleteRequest{
		Operation: "bulk-by-tag",
		Confirm:   true,
	})
	if !types.HasCode(err, types.CodeInvalidArgs) {
		t.Errorf("got %v, want INVALID_ARGS", err)
	}
}

func TestDryRunResultShape(t *testing.T) {
	res := dryRunResult([]string{"a", "b"}, "Would delete 2 entities")
	if !res.DryRun || res.Count != 2 || len(res.Entities) != 2 {
		t.Errorf("unexpected dry-run result: %+v", res)
	}
}
