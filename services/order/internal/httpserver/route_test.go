package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/catalogclient"
	"github.com/Skotchmaster/storefront/pkg/dbtest"
	"github.com/Skotchmaster/storefront/pkg/events"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/order/internal/models"
	"github.com/Skotchmaster/storefront/services/order/internal/repo"
	"github.com/Skotchmaster/storefront/services/order/internal/service"
	"github.com/Skotchmaster/storefront/services/order/internal/transport"
)

var testSecret = []byte("test-jwt-secret")

type staticCatalog map[uuid.UUID]catalogclient.Product

func (s staticCatalog) GetProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogclient.Product, []uuid.UUID, error) {
	found := map[uuid.UUID]catalogclient.Product{}
	var missing []uuid.UUID
	for _, id := range ids {
		if p, ok := s[id]; ok {
			found[id] = p
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

var kettle = catalogclient.Product{ID: uuid.New(), Name: "Kettle", Price: 3999, Stock: 4}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	svc := &service.OrderService{
		Repo:    &repo.GormRepo{DB: dbtest.Open(t, models.All()...)},
		Catalog: staticCatalog{kettle.ID: kettle},
		Events:  &events.Memory{},
	}
	e := echo.New()
	Register(e, &Deps{OrderHandler: &OrderHTTP{Svc: svc}, JWTSecret: testSecret})
	return e
}

func cookieFor(t *testing.T, userID, role string) *http.Cookie {
	t.Helper()
	exp := time.Now().Add(tokens.AccessTTL)
	tok, err := tokens.NewAccessToken(testSecret, userID, role, exp)
	require.NoError(t, err)
	return jwthelp.CreateCookie(jwthelp.AccessCookie, tok, "/", exp)
}

func do(e *echo.Echo, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const checkoutBody = `{
	"items": [{"product_id": "%s", "quantity": 2}],
	"shipping_address": {"full_name": "Grace Hopper", "line1": "1 Navy Way", "city": "Arlington", "postal_code": "22202", "country": "US"},
	"payment_method": "paypal"
}`

func TestQuoteIsPublic(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodPost, "/orders/quote", `{"items":[{"product_id":"`+kettle.ID.String()+`","quantity":1}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var q transport.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, int64(3999), q.Subtotal)
	assert.Equal(t, int64(999), q.Shipping)
	assert.Equal(t, int64(320), q.Tax)
	assert.Equal(t, int64(5318), q.Total)

	rec = do(e, http.MethodPost, "/orders/quote", `{"items":[{"product_id":"`+kettle.ID.String()+`","quantity":5}]}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrdersRequireAuth(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/orders", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/orders/admin", "", nil).Code)

	user := cookieFor(t, uuid.NewString(), tokens.RoleUser)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/orders/admin", "", user).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/orders/admin/stats", "", user).Code)
}

func TestCheckoutAndTracking(t *testing.T) {
	e := newServer(t)
	customer := cookieFor(t, uuid.NewString(), tokens.RoleUser)
	stranger := cookieFor(t, uuid.NewString(), tokens.RoleUser)
	admin := cookieFor(t, uuid.NewString(), tokens.RoleAdmin)

	rec := do(e, http.MethodPost, "/orders", `{"items":[]}`, customer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/orders", strings.Replace(checkoutBody, "%s", kettle.ID.String(), 1), customer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, int64(7998+640), order.Total)
	path := "/orders/" + order.ID.String()

	rec = do(e, http.MethodGet, "/orders", "", customer)
	require.Equal(t, http.StatusOK, rec.Code)
	var page orderPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Meta.Total)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, path, "", customer).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, path, "", stranger).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, path, "", admin).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/orders/not-a-uuid", "", customer).Code)

	rec = do(e, http.MethodPatch, "/orders/admin/"+order.ID.String()+"/status", `{"status":"confirmed"}`, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	for _, body := range []string{`{"status":"confirmed"}`, `{"status":"processing"}`} {
		rec = do(e, http.MethodPatch, "/orders/admin/"+order.ID.String()+"/status", body, admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPatch, "/orders/admin/"+order.ID.String()+"/status", `{"status":"shipped"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(e, http.MethodPatch, "/orders/admin/"+order.ID.String()+"/status", `{"status":"shipped","tracking_number":"TRK1"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, path+"/cancel", "", customer)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodGet, path+"/timeline", "", customer)
	require.Equal(t, http.StatusOK, rec.Code)
	var timeline []models.OrderStatusEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	assert.Len(t, timeline, 4)
	assert.Equal(t, models.StatusShipped, timeline[3].Status)

	rec = do(e, http.MethodGet, "/orders/admin?status=shipped", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Meta.Total)

	rec = do(e, http.MethodGet, "/orders/admin/stats", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats transport.OrderStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.ByStatus[models.StatusShipped])
	assert.Equal(t, order.Total, stats.Revenue)
}

func TestCustomerCancel(t *testing.T) {
	e := newServer(t)
	customer := cookieFor(t, uuid.NewString(), tokens.RoleUser)

	rec := do(e, http.MethodPost, "/orders", strings.Replace(checkoutBody, "%s", kettle.ID.String(), 1), customer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	rec = do(e, http.MethodPost, "/orders/"+order.ID.String()+"/cancel", "", customer)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.StatusCancelled, order.Status)
}
