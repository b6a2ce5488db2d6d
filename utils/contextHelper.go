package utils

import (
	"context"

	"github.com/shidalgo0925/relatic-integration/appctx"
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyCorrelationId, correlationId)
}

func GetOrderRefFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyOrderRef)
}

func SetOrderRefInContext(ctx context.Context, orderRef string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyOrderRef, orderRef)
}
