package common

import (
	"context"
	"testing"

	"whitepalace/src/config"
	"whitepalace/src/lib"
	"whitepalace/src/types"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestIssueTokenStoresSessionWithTTL(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.Regexp().ExpectSet(`session:customer:.+`, `.+`, config.SessionTTL()).SetVal("OK")

	token, err := IssueToken(context.Background(), types.Principal{
		Kind:       types.PRINCIPAL_CUSTOMER,
		CustomerID: 7,
		Phone:      "3125551234",
	})
	assert.Nil(t, err)
	assert.NotEmpty(t, token)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestValidateTokenResolvesPrincipal(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectGet("session:customer:tok123").SetVal(`{"kind":"customer","customer_id":7,"phone":"3125551234"}`)

	principal, err := ValidateToken(context.Background(), types.PRINCIPAL_CUSTOMER, "tok123")
	assert.Nil(t, err)
	assert.Equal(t, types.PRINCIPAL_CUSTOMER, principal.Kind)
	assert.Equal(t, uint(7), principal.CustomerID)
	assert.Equal(t, "3125551234", principal.Phone)
}

func TestValidateTokenExpiredOrUnknown(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectGet("session:customer:gone").RedisNil()

	_, err := ValidateToken(context.Background(), types.PRINCIPAL_CUSTOMER, "gone")
	apiErr, ok := types.AsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, types.KIND_UNAUTHENTICATED, apiErr.Kind)
}

// A customer token must never validate in the admin namespace: the two
// kinds are stored under disjoint key prefixes.
func TestValidateTokenNamespacesDisjoint(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectGet("session:admin:tok123").RedisNil()

	_, err := ValidateToken(context.Background(), types.PRINCIPAL_ADMIN, "tok123")
	apiErr, ok := types.AsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, types.KIND_UNAUTHENTICATED, apiErr.Kind)
}

func TestValidateTokenEmpty(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	_, err := ValidateToken(context.Background(), types.PRINCIPAL_CUSTOMER, "")
	apiErr, ok := types.AsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, types.KIND_UNAUTHENTICATED, apiErr.Kind)
}

func TestRevokeTokenIdempotent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectDel("session:customer:tok123").SetVal(1)
	assert.Nil(t, RevokeToken(context.Background(), types.PRINCIPAL_CUSTOMER, "tok123"))

	// Second revoke hits nothing and is still not an error.
	mock.ExpectDel("session:customer:tok123").SetVal(0)
	assert.Nil(t, RevokeToken(context.Background(), types.PRINCIPAL_CUSTOMER, "tok123"))
}
