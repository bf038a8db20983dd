package main

import (
	"net/http"

	"whitepalace/src/common"
	"whitepalace/src/middlewares"
	"whitepalace/src/models"
	"whitepalace/src/types"
	"whitepalace/src/utils"

	"github.com/gin-gonic/gin"
)

// ownsOrder reports whether the principal may see or cancel the order:
// admins always, customers only for orders under their own phone.
func ownsOrder(principal types.Principal, order *models.Order) bool {
	if principal.Kind == types.PRINCIPAL_ADMIN {
		return true
	}
	return order.CustomerPhone == principal.Phone
}

func orderHandlers(g *gin.Engine) {
	apiv1 := apiv1Group(g)
	authed := apiv1.Group("", middlewares.RequireAuth(types.PRINCIPAL_CUSTOMER, types.PRINCIPAL_ADMIN))
	admin := apiv1.Group("", middlewares.RequireAdmin())

	authed.POST("/orders", func(ctx *gin.Context) {
		var body types.CreateOrderRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("items, order_type and customer_phone are required"))
			return
		}
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if principal.Kind == types.PRINCIPAL_CUSTOMER && utils.CleanPhoneNumber(body.CustomerPhone) != principal.Phone {
			respondError(ctx, types.NewForbiddenError("customers may only place orders under their own phone number"))
			return
		}
		order, err := common.CreateOrder(&body)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusCreated, order)
	})

	authed.GET("/orders/:id", func(ctx *gin.Context) {
		order, err := common.GetOrder(ctx.Param("id"))
		if err != nil {
			respondError(ctx, err)
			return
		}
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if !ownsOrder(principal, order) {
			respondError(ctx, types.NewForbiddenError("not your order"))
			return
		}
		respondData(ctx, http.StatusOK, order)
	})

	authed.GET("/orders/customer/:phone", func(ctx *gin.Context) {
		phone := utils.CleanPhoneNumber(ctx.Param("phone"))
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if principal.Kind == types.PRINCIPAL_CUSTOMER && phone != principal.Phone {
			respondError(ctx, types.NewForbiddenError("not your order history"))
			return
		}
		orders, err := common.ListOrdersByPhone(phone)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
	})

	// The kitchen work queue.
	admin.GET("/orders", func(ctx *gin.Context) {
		orders, err := common.ListOrders(types.OrderStatus(ctx.Query("status")))
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
	})

	// Transitioning through the kitchen workflow is the staff's call.
	admin.PUT("/orders/:id/status", func(ctx *gin.Context) {
		var params types.SimpleRequestParams
		if err := ctx.ShouldBindUri(&params); err != nil {
			respondError(ctx, types.NewValidationError("invalid order id"))
			return
		}
		var body types.UpdateStatusRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("status is required"))
			return
		}
		order, err := common.TransitionOrder(params.ID, types.OrderStatus(body.Status))
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, order)
	})

	// Cancellation sugar: the owning customer (or an admin) cancels
	// through the same transition path, so graph legality still applies.
	authed.DELETE("/orders/:id", func(ctx *gin.Context) {
		order, err := common.GetOrder(ctx.Param("id"))
		if err != nil {
			respondError(ctx, err)
			return
		}
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if !ownsOrder(principal, order) {
			respondError(ctx, types.NewForbiddenError("not your order"))
			return
		}
		cancelled, err := common.TransitionOrder(order.ID, types.ORDER_CANCELLED)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, cancelled)
	})
}
