package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultTimeout = 3 * time.Second

// requestContext bounds repository calls while keeping the request's trace
// and cancellation.
func requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), defaultTimeout)
}

// pathID parses a positive integer path parameter, answering 400 invalid_id
// when it is malformed.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondInvalid(ctx, "invalid_id", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter.
func queryID(ctx *gin.Context, name string) (*int64, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondInvalid(ctx, "invalid_query", name+" must be a positive integer")
		return nil, false
	}
	return &id, true
}

func queryInt(ctx *gin.Context, name string, fallback, min, max int) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		RespondInvalid(ctx, "invalid_query", name+" must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
		return 0, false
	}
	return n, true
}
