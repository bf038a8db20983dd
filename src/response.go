package main

import (
	"log"
	"net/http"

	"whitepalace/src/types"

	"github.com/gin-gonic/gin"
)

func respondData(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, gin.H{"status": "success", "data": data})
}

// respondError maps engine failures onto the wire envelope. Anything that
// is not a typed APIError is reported as an internal error without leaking
// driver details.
func respondError(ctx *gin.Context, err error) {
	if apiErr, ok := types.AsAPIError(err); ok {
		ctx.JSON(apiErr.HTTPStatus(), gin.H{"status": "error", "error": apiErr})
		return
	}
	log.Printf("Unhandled error: %s\n", err.Error())
	ctx.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": gin.H{
		"kind":    "internal",
		"message": "internal server error",
	}})
}
