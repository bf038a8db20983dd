package main

import (
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"whitepalace/src/common"
	"whitepalace/src/db"
	"whitepalace/src/lib"
	"whitepalace/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	Mock      sqlmock.Sqlmock
	RedisMock redismock.ClientMock
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func (s *TestSuite) SetupTest() {
	d, mock := NewMockDB()
	db.NewDB(d)
	s.Mock = mock

	rdb, rmock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)
	s.RedisMock = rmock
}

func (s *TestSuite) router() *gin.Engine {
	router := setupRouter()
	registerRoutes(router)
	return router
}

const (
	customerToken = "cust-token"
	adminToken    = "adm-token"
)

// expectCustomerSession arms the redis mock so customerToken resolves to a
// customer principal. RequireAuth probes the allowed kinds in order.
func (s *TestSuite) expectCustomerSession(phone string) {
	s.RedisMock.ExpectGet("session:customer:" + customerToken).
		SetVal(`{"kind":"customer","customer_id":7,"phone":"` + phone + `"}`)
}

// expectAdminSession arms the redis mock for adminToken on routes that
// probe the customer namespace first.
func (s *TestSuite) expectAdminSession(probesCustomerFirst bool) {
	if probesCustomerFirst {
		s.RedisMock.ExpectGet("session:customer:" + adminToken).RedisNil()
	}
	s.RedisMock.ExpectGet("session:admin:" + adminToken).SetVal(`{"kind":"admin"}`)
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	registerRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/menu", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusServiceUnavailable, w.Code)
}

func (s *TestSuite) TestCreateOrderRequiresAuth() {
	router := s.router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/orders", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *TestSuite) TestCreateOrderEmptyCart() {
	s.expectCustomerSession("3125551234")
	router := s.router()

	body := `{"items":[],"order_type":"pickup","customer_phone":"3125551234"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+customerToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), "validation_error", gjson.Get(w.Body.String(), "error.kind").String())
	// Validation failures never reach persistence.
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestCreateOrderDeliveryWithoutAddress() {
	s.expectCustomerSession("3125551234")
	router := s.router()

	body := `{"items":[{"menu_item_id":1,"quantity":2}],"order_type":"delivery","customer_phone":"3125551234"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+customerToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Contains(s.T(), gjson.Get(w.Body.String(), "error.message").String(), "delivery address")
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestCreateOrderBadQuantity() {
	s.expectCustomerSession("3125551234")
	router := s.router()

	body := `{"items":[{"menu_item_id":1,"quantity":-1}],"order_type":"pickup","customer_phone":"3125551234"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+customerToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestCreateOrderWrongPhoneForbidden() {
	s.expectCustomerSession("3125551234")
	router := s.router()

	body := `{"items":[{"menu_item_id":1,"quantity":1}],"order_type":"pickup","customer_phone":"7735550000"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+customerToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *TestSuite) TestGetOrderNotFound() {
	s.expectAdminSession(true)
	s.Mock.ExpectQuery(`SELECT .+ FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	router := s.router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/orders/99", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	assert.Equal(s.T(), "not_found", gjson.Get(w.Body.String(), "error.kind").String())
}

func (s *TestSuite) TestOrderTransitionIllegalEdge() {
	s.expectAdminSession(false)
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT .+ FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status", "total_cents"}).
			AddRow(1, "ORD-1-TEST", "ready", 2450))
	s.Mock.ExpectRollback()

	router := s.router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/orders/1/status", strings.NewReader(`{"status":"pending"}`))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusConflict, w.Code)
	assert.Contains(s.T(), gjson.Get(w.Body.String(), "error.message").String(), "invalid transition from ready to pending")
	// No UPDATE was attempted: the status stays ready.
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestListOrdersQueue() {
	s.expectAdminSession(false)
	s.Mock.ExpectQuery(`SELECT .+ FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status", "total_cents"}).
			AddRow(1, "ORD-1-TEST", "pending", 2450).
			AddRow(2, "ORD-2-TEST", "pending", 940))
	s.Mock.ExpectQuery(`SELECT .+ FROM "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "price_cents", "quantity"}))

	router := s.router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/orders?status=pending", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), int64(2), gjson.Get(w.Body.String(), "data.count").Int())
}

func (s *TestSuite) TestListOrdersRejectsUnknownStatus() {
	s.expectAdminSession(false)
	router := s.router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/orders?status=sideways", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestListReservationsQueue() {
	s.expectAdminSession(false)
	s.Mock.ExpectQuery(`SELECT .+ FROM "reservations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_number", "party_size", "reservation_date", "reservation_time", "status"}).
			AddRow(1, "RES-1-TEST", 4, "2025-07-04", "18:00", "confirmed"))

	router := s.router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/reservations?date=2025-07-04&status=confirmed", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), int64(1), gjson.Get(w.Body.String(), "data.count").Int())
}

func (s *TestSuite) TestListOrdersRequiresAdmin() {
	s.RedisMock.ExpectGet("session:admin:" + customerToken).RedisNil()
	router := s.router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

// The transition response carries the same shape as a read: line items
// included.
func (s *TestSuite) TestOrderTransitionReturnsItems() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT .+ FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status", "total_cents"}).
			AddRow(1, "ORD-1-TEST", "ready", 2450))
	s.Mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.Mock.ExpectQuery(`SELECT .+ FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status", "total_cents"}).
			AddRow(1, "ORD-1-TEST", "completed", 2450))
	s.Mock.ExpectQuery(`SELECT .+ FROM "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "price_cents", "quantity"}).
			AddRow(10, 1, 3, "Gyros Plate", 1095, 2))
	s.Mock.ExpectCommit()

	order, err := common.TransitionOrder(1, types.ORDER_COMPLETED)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.ORDER_COMPLETED, order.Status)
	assert.Len(s.T(), order.Items, 1)
	assert.Equal(s.T(), "Gyros Plate", order.Items[0].Name)
}

func (s *TestSuite) TestCreateIntentAmountMismatch() {
	s.expectAdminSession(true)
	s.Mock.ExpectQuery(`SELECT .+ FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status", "total_cents"}).
			AddRow(1, "ORD-1-TEST", "pending", 2450))

	router := s.router()

	body := `{"order_id":1,"amount_cents":2400}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/payments/intent", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), "validation_error", gjson.Get(w.Body.String(), "error.kind").String())
	// No intent row was created.
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestWebhookRejectsBadSignature() {
	router := s.router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/payments/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "bogus")
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

// Reconciling an outcome the payment already carries is a no-op: no
// update statement runs, the transaction just commits.
func (s *TestSuite) TestReconcileIdempotentRedelivery() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT .+ FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stripe_payment_intent_id", "order_id", "amount_cents", "status"}).
			AddRow(1, "pi_123", 1, 2450, "succeeded"))
	s.Mock.ExpectCommit()

	payment, err := common.Reconcile("pi_123", types.PAYMENT_SUCCEEDED)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.PAYMENT_SUCCEEDED, payment.Status)
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

// A succeeded outcome moves the payment to succeeded and nudges the order
// pending -> preparing in the same transaction.
func (s *TestSuite) TestReconcileSuccessAdvancesOrder() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT .+ FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stripe_payment_intent_id", "order_id", "amount_cents", "status"}).
			AddRow(1, "pi_123", 1, 2450, "pending"))
	s.Mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.Mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.Mock.ExpectCommit()

	payment, err := common.Reconcile("pi_123", types.PAYMENT_SUCCEEDED)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.PAYMENT_SUCCEEDED, payment.Status)
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

// A terminally failed payment absorbs stale redeliveries without touching
// anything.
func (s *TestSuite) TestReconcileStaleOutcomeAbsorbed() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT .+ FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stripe_payment_intent_id", "order_id", "amount_cents", "status"}).
			AddRow(1, "pi_123", 1, 2450, "failed"))
	s.Mock.ExpectCommit()

	payment, err := common.Reconcile("pi_123", types.PAYMENT_PROCESSING)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.PAYMENT_FAILED, payment.Status)
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func TestSuiteRun(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
