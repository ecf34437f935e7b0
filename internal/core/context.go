package core

import "context"

type contextKey string

const ctxKeyImportID contextKey = "import_id"

// ContextWithImportID tags ctx with the ID of the import it belongs to.
func ContextWithImportID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyImportID, id)
}

// ImportIDFromContext returns the import ID stored in ctx, or "".
func ImportIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyImportID).(string); ok {
		return v
	}
	return ""
}
