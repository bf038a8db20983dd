package middlewares

import (
	"strings"

	"whitepalace/src/common"
	"whitepalace/src/types"

	"github.com/gin-gonic/gin"
)

func bearerToken(ctx *gin.Context) string {
	header := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func abortUnauthenticated(ctx *gin.Context, err error) {
	apiErr, ok := types.AsAPIError(err)
	if !ok {
		apiErr = types.NewUnauthenticatedError("unauthenticated")
	}
	ctx.AbortWithStatusJSON(apiErr.HTTPStatus(), gin.H{"status": "error", "error": apiErr})
}

// RequireAuth authenticates a bearer token against one of the allowed
// principal kinds and stores the resolved principal on the context.
// Admin and customer tokens live in disjoint namespaces, so a token only
// ever validates for the kind it was issued under.
func RequireAuth(kinds ...types.PrincipalKind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			abortUnauthenticated(ctx, types.NewUnauthenticatedError("missing bearer token"))
			return
		}
		for _, kind := range kinds {
			principal, err := common.ValidateToken(ctx.Request.Context(), kind, token)
			if err == nil {
				ctx.Set("principal", *principal)
				ctx.Set("token", token)
				return
			}
		}
		abortUnauthenticated(ctx, types.NewUnauthenticatedError("invalid or expired token"))
	}
}

// CurrentPrincipal returns the principal RequireAuth stored, if any.
func CurrentPrincipal(ctx *gin.Context) (types.Principal, bool) {
	v, ok := ctx.Get("principal")
	if !ok {
		return types.Principal{}, false
	}
	principal, ok := v.(types.Principal)
	return principal, ok
}

// RequireAdmin is RequireAuth scoped to admin tokens only.
func RequireAdmin() gin.HandlerFunc {
	return RequireAuth(types.PRINCIPAL_ADMIN)
}

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("Referrer-Policy", "strict-origin-when-cross-origin")
}
