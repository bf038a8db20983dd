package main

import (
	"net/http"

	"whitepalace/src/db"
	"whitepalace/src/models"

	"github.com/gin-gonic/gin"
)

// Menu content is managed elsewhere; the engine only reads it to validate
// and price orders, and exposes it for clients building a cart.
func menuHandlers(g *gin.Engine) {
	apiv1 := apiv1Group(g)

	apiv1.GET("/menu", func(ctx *gin.Context) {
		dbi := db.GetDb()
		var items []models.MenuItem
		if err := dbi.
			Model(&models.MenuItem{}).
			Where(&models.MenuItem{Available: true}).
			Order("category, name").
			Find(&items).
			Error; err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"items": items, "count": len(items)})
	})
}
