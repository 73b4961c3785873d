package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/billforge/billforge/internal/types"
)

// RequestIDMiddleware attaches request and correlation identifiers to the
// request context and echoes them on the response
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	correlationID := c.GetHeader(types.HeaderCorrelationID)
	if correlationID == "" {
		correlationID = types.GenerateCorrelationID()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	ctx = types.SetCorrelationID(ctx, correlationID)

	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)
	c.Header(types.HeaderCorrelationID, correlationID)

	c.Next()
}
