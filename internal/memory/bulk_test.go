package memory

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

func TestBulkImportRefusesEmptyBatch(t *testing.T) {
	// The empty-input guard fires before any store access.
	svc := &Service{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	_, err := svc.BulkImport(context.Background(), "/work/app", "app", "main", &BulkImportRequest{}, nil)
	if !types.HasCode(err, types.CodeInvalidArgs) {
		t.Errorf("got %v, want INVALID_ARGS", err)
	}
}

func TestAnnotateKeepsCode(t *testing.T) {
	err := annotate(types.NewError(types.CodeNotFound, "component %q not found", "c1"), "get-component", "app", "main")
	if !types.HasCode(err, types.CodeNotFound) {
		t.Errorf("annotate lost the error code: %v", err)
	}
	if err.Error() == "" {
		t.Error("annotate produced an empty message")
	}
}
