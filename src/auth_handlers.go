package main

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log"
	"net/http"
	"os"

	"whitepalace/src/common"
	"whitepalace/src/db"
	"whitepalace/src/middlewares"
	"whitepalace/src/models"
	"whitepalace/src/types"
	"whitepalace/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Credential verification mirrors what the restaurant's account system
// stores: a salted SHA-256 digest. The engine only compares digests; it
// never sees how they were produced.
func hashPassword(password string) string {
	salt := os.Getenv("PASSWORD_SALT")
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

func digestsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func authHandlers(g *gin.Engine) {
	apiv1 := apiv1Group(g)

	apiv1.POST("/auth/login", func(ctx *gin.Context) {
		var body types.AdminLoginRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("password is required"))
			return
		}
		adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
		if adminHash == "" || !digestsEqual(hashPassword(body.Password), adminHash) {
			respondError(ctx, types.NewUnauthenticatedError("invalid credentials"))
			return
		}
		token, err := common.IssueToken(ctx.Request.Context(), types.Principal{Kind: types.PRINCIPAL_ADMIN})
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"token": token})
	})

	apiv1.POST("/auth/logout", middlewares.RequireAdmin(), func(ctx *gin.Context) {
		token := ctx.GetString("token")
		if err := common.RevokeToken(ctx.Request.Context(), types.PRINCIPAL_ADMIN, token); err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"revoked": true})
	})

	apiv1.POST("/auth/verify", middlewares.RequireAuth(types.PRINCIPAL_ADMIN, types.PRINCIPAL_CUSTOMER), func(ctx *gin.Context) {
		principal, _ := middlewares.CurrentPrincipal(ctx)
		respondData(ctx, http.StatusOK, principal)
	})

	apiv1.POST("/customer/register", func(ctx *gin.Context) {
		var body types.RegisterCustomerRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("phone, email, name and a password of at least 6 characters are required"))
			return
		}
		phone := utils.CleanPhoneNumber(body.Phone)
		if phone == "" {
			respondError(ctx, types.NewValidationError("invalid phone number"))
			return
		}
		customer := models.Customer{
			Phone:        phone,
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hashPassword(body.Password),
		}
		dbi := db.GetDb()
		if err := dbi.Transaction(func(tx *gorm.DB) error {
			var existing models.Customer
			if err := tx.
				Model(&models.Customer{}).
				Where(&models.Customer{Phone: phone}).
				Find(&existing).
				Error; err != nil {
				return err
			}
			if existing.ID > 0 {
				return types.NewConflictError("an account already exists for this phone number")
			}
			return tx.Create(&customer).Error
		}); err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusCreated, gin.H{
			"id":    customer.ID,
			"phone": customer.Phone,
			"email": customer.Email,
			"name":  customer.Name,
		})
	})

	apiv1.POST("/customer/login", func(ctx *gin.Context) {
		var body types.CustomerLoginRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("phone and password are required"))
			return
		}
		phone := utils.CleanPhoneNumber(body.Phone)
		var customer models.Customer
		dbi := db.GetDb()
		if err := dbi.
			Model(&models.Customer{}).
			Where(&models.Customer{Phone: phone}).
			First(&customer).
			Error; err != nil {
			respondError(ctx, types.NewUnauthenticatedError("invalid credentials"))
			return
		}
		if !digestsEqual(hashPassword(body.Password), customer.PasswordHash) {
			respondError(ctx, types.NewUnauthenticatedError("invalid credentials"))
			return
		}
		token, err := common.IssueToken(ctx.Request.Context(), types.Principal{
			Kind:       types.PRINCIPAL_CUSTOMER,
			CustomerID: customer.ID,
			Phone:      customer.Phone,
			Name:       customer.Name,
		})
		if err != nil {
			respondError(ctx, err)
			return
		}
		log.Printf("[sessions] Customer %d logged in\n", customer.ID)
		respondData(ctx, http.StatusOK, gin.H{"token": token, "customer_id": customer.ID})
	})

	apiv1.POST("/customer/logout", middlewares.RequireAuth(types.PRINCIPAL_CUSTOMER), func(ctx *gin.Context) {
		token := ctx.GetString("token")
		if err := common.RevokeToken(ctx.Request.Context(), types.PRINCIPAL_CUSTOMER, token); err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, gin.H{"revoked": true})
	})

	apiv1.POST("/customer/verify", middlewares.RequireAuth(types.PRINCIPAL_CUSTOMER), func(ctx *gin.Context) {
		principal, _ := middlewares.CurrentPrincipal(ctx)
		respondData(ctx, http.StatusOK, principal)
	})
}
