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

func ownsReservation(principal types.Principal, reservation *models.Reservation) bool {
	if principal.Kind == types.PRINCIPAL_ADMIN {
		return true
	}
	return reservation.CustomerPhone == principal.Phone
}

func reservationHandlers(g *gin.Engine) {
	apiv1 := apiv1Group(g)
	authed := apiv1.Group("", middlewares.RequireAuth(types.PRINCIPAL_CUSTOMER, types.PRINCIPAL_ADMIN))
	admin := apiv1.Group("", middlewares.RequireAdmin())

	// Advisory only: the booking path re-verifies under lock, so this
	// endpoint can stay unauthenticated and lock-free.
	apiv1.POST("/reservations/availability", func(ctx *gin.Context) {
		var body types.AvailabilityRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("date, time and party_size are required"))
			return
		}
		availability, err := common.CheckAvailability(body.Date, body.Time, body.PartySize)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, availability)
	})

	authed.POST("/reservations", func(ctx *gin.Context) {
		var body types.CreateReservationRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("date, time, party_size, customer_name and customer_phone are required"))
			return
		}
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if principal.Kind == types.PRINCIPAL_CUSTOMER && utils.CleanPhoneNumber(body.CustomerPhone) != principal.Phone {
			respondError(ctx, types.NewForbiddenError("customers may only book under their own phone number"))
			return
		}
		reservation, err := common.CreateReservation(&body)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusCreated, reservation)
	})

	authed.GET("/reservations/:id", func(ctx *gin.Context) {
		reservation, err := common.GetReservation(ctx.Param("id"))
		if err != nil {
			respondError(ctx, err)
			return
		}
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if !ownsReservation(principal, reservation) {
			respondError(ctx, types.NewForbiddenError("not your reservation"))
			return
		}
		respondData(ctx, http.StatusOK, reservation)
	})

	// The host-stand queue.
	admin.GET("/reservations", func(ctx *gin.Context) {
		reservations, err := common.ListReservations(ctx.Query("date"), types.ReservationStatus(ctx.Query("status")))
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"reservations": reservations, "count": len(reservations)})
	})

	admin.GET("/reservations/date/:date", func(ctx *gin.Context) {
		reservations, err := common.ListReservations(ctx.Param("date"), types.ReservationStatus(ctx.Query("status")))
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"reservations": reservations, "count": len(reservations)})
	})

	authed.GET("/reservations/customer/:phone", func(ctx *gin.Context) {
		phone := utils.CleanPhoneNumber(ctx.Param("phone"))
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if principal.Kind == types.PRINCIPAL_CUSTOMER && phone != principal.Phone {
			respondError(ctx, types.NewForbiddenError("not your reservations"))
			return
		}
		reservations, err := common.ListReservationsByPhone(phone)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"reservations": reservations, "count": len(reservations)})
	})

	admin.PUT("/reservations/:id/status", func(ctx *gin.Context) {
		var body types.UpdateStatusRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("status is required"))
			return
		}
		reservation, err := common.TransitionReservation(ctx.Param("id"), types.ReservationStatus(body.Status))
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, reservation)
	})

	authed.DELETE("/reservations/:id", func(ctx *gin.Context) {
		reservation, err := common.GetReservation(ctx.Param("id"))
		if err != nil {
			respondError(ctx, err)
			return
		}
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if !ownsReservation(principal, reservation) {
			respondError(ctx, types.NewForbiddenError("not your reservation"))
			return
		}
		cancelled, err := common.TransitionReservation(reservation.ReservationNumber, types.RESERVATION_CANCELLED)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, cancelled)
	})
}
