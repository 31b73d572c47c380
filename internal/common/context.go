package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyBudgetID  contextKey = "budget_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithBudgetID tags the context with the budget the document belongs to.
func WithBudgetID(ctx context.Context, budgetID string) context.Context {
	return context.WithValue(ctx, ContextKeyBudgetID, budgetID)
}

// BudgetIDFromContext extracts the budget ID from context
func BudgetIDFromContext(ctx context.Context) string {
	if budgetID, ok := ctx.Value(ContextKeyBudgetID).(string); ok {
		return budgetID
	}
	return ""
}

// WithTimeout returns ctx unchanged (with a no-op cancel) when timeout is not positive.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}
