package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/erp/internal/attendance"
	"github.com/suteetoe/erp/internal/auth"
	"github.com/suteetoe/erp/internal/gateway"
	"github.com/suteetoe/erp/internal/handler"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/odoosync"
	"github.com/suteetoe/erp/internal/payment"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/internal/testutil"
	"github.com/suteetoe/erp/pkg/config"
	"github.com/suteetoe/erp/pkg/jwtutil"
	"github.com/suteetoe/erp/pkg/mailer"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type app struct {
	e   *echo.Echo
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test", ExpirationHours: 1})
	resolver := tenant.NewResolver(db)

	h := &handler.Handler{
		ServiceName: "erp-test",
		DB:          db,
		Resolver:    resolver,
		Auth:        auth.NewService(db, jwt, &mailer.LogMailer{Logger: log}, config.AuthConfig{RegistrationEnabled: true}, log),
		Payments:    payment.NewService(db, resolver, log),
		Attendance:  attendance.NewService(db, nil, log),
		Gateway:     gateway.New(db),
		Odoo:        odoosync.NewService(db, 0, log),
	}
	return &app{e: New(h, jwt, resolver), db: db, jwt: jwt}
}

func (a *app) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *app) token(t *testing.T, u model.User) map[string]string {
	t.Helper()
	tok, err := a.jwt.GenerateToken(u.Email, u.ID, u.Role)
	require.NoError(t, err)
	return map[string]string{echo.HeaderAuthorization: "Bearer " + tok}
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRegisterLoginMe(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/auth/register",
		`{"email":"Ana@Acme.test","password":"s3cret-pass","name":"Ana"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "password")

	rec = a.do(t, http.MethodPost, "/auth/register",
		`{"email":"ana@acme.test","password":"s3cret-pass","name":"Ana"}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/login", `{"email":"ana@acme.test","password":"wrong-pass"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/login", `{"email":"ana@acme.test","password":"s3cret-pass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decode(t, rec, &login)
	require.NotEmpty(t, login.Token)

	rec = a.do(t, http.MethodGet, "/api/me", "", map[string]string{echo.HeaderAuthorization: "Bearer " + login.Token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me struct {
		Tenant    tenant.Context `json:"tenant"`
		SharedIDs []uint         `json:"sharedIds"`
	}
	decode(t, rec, &me)
	require.Equal(t, login.User.ID, me.Tenant.OwnerID)
	require.NotZero(t, me.Tenant.CompanyID)
	require.Equal(t, []uint{login.User.ID}, me.SharedIDs)

	rec = a.do(t, http.MethodGet, "/api/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaymentsAreNumberedPerCompany(t *testing.T) {
	a := newApp(t)
	tn := testutil.SeedTenant(t, a.db, "pay@acme.test", 1)
	member := a.token(t, tn.Members[0])

	for _, want := range []string{"SAL-0001", "SAL-0002"} {
		rec := a.do(t, http.MethodPost, "/api/payments",
			`{"type":"SALIDA","amount":"12.50","date":"2024-05-06","description":"rent"}`, member)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p model.Payment
		decode(t, rec, &p)
		require.Equal(t, want, p.Number)
		require.Equal(t, tn.Company.ID, p.CompanyID)
	}

	rec := a.do(t, http.MethodPost, "/api/payments",
		`{"type":"SALIDA","amount":"1","date":"2024-05-06","projectId":999}`, member)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "invalid_reference", body["code"])

	rec = a.do(t, http.MethodGet, "/api/payments?type=SALIDA", "", member)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	decode(t, rec, &page)
	require.EqualValues(t, 2, page.Total)

	// members cannot validate
	rec = a.do(t, http.MethodPost, "/api/payments/1/validate", "", member)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCompanyCountersOnlyMoveForward(t *testing.T) {
	a := newApp(t)
	tn := testutil.SeedTenant(t, a.db, "co@acme.test", 0)
	owner := a.token(t, tn.Owner)
	path := "/api/companies/" + itoa(tn.Company.ID)

	rec := a.do(t, http.MethodPut, path, `{"paymentSalidaNextNumber":40,"paymentSalidaPrefix":"OUT"}`, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPut, path, `{"paymentSalidaNextNumber":39}`, owner)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/payments", `{"type":"SALIDA","amount":"5","date":"2024-05-06"}`, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p model.Payment
	decode(t, rec, &p)
	require.Equal(t, "OUT-0040", p.Number)
}

func TestPublicAttendance(t *testing.T) {
	a := newApp(t)
	tn := testutil.SeedTenant(t, a.db, "kiosk@acme.test", 1)
	var member model.User
	require.NoError(t, a.db.First(&member, tn.Members[0].ID).Error)
	path := "/public/attendance/" + member.AttendanceToken

	rec := a.do(t, http.MethodPost, path, `{"action":"check-in"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, path, `{"action":"check-in"}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, path, `{"action":"check-out","notes":"done"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, path, `{"action":"check-out"}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, path, `{"action":"dance"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/public/attendance/nope", `{"action":"check-in"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenericGateway(t *testing.T) {
	a := newApp(t)
	tn := testutil.SeedTenant(t, a.db, "gw@acme.test", 0)
	require.NoError(t, a.db.Model(&tn.Company).Update("api_enabled", true).Error)
	var company model.Company
	require.NoError(t, a.db.First(&company, tn.Company.ID).Error)
	key := map[string]string{echo.HeaderAuthorization: "Bearer " + company.APIKey}

	// the model allow-list is checked before the token
	rec := a.do(t, http.MethodGet, "/generic/secretTable", "", key)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodGet, "/generic/secretTable", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/generic/contact", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/generic/contact", `{"name":"Bodega Sur","userId":`+itoa(tn.Owner.ID)+`}`, key)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Contact
	decode(t, rec, &created)

	rec = a.do(t, http.MethodGet, "/generic/contact?name=Bodega%20Sur", "", key)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Total int64 `json:"total"`
		Limit int   `json:"limit"`
	}
	decode(t, rec, &page)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, gateway.DefaultLimit, page.Limit)

	rec = a.do(t, http.MethodPut, "/generic/contact", `{"name":"no id"}`, key)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, "/generic/contact?id="+itoa(created.ID), "", key)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/generic/contact?id="+itoa(created.ID), "", key)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicInvoices(t *testing.T) {
	a := newApp(t)
	tn := testutil.SeedTenant(t, a.db, "inv@acme.test", 0)
	other := testutil.SeedTenant(t, a.db, "inv@other.test", 0)
	require.NoError(t, a.db.Model(&tn.Company).Update("api_enabled", true).Error)
	var company model.Company
	require.NoError(t, a.db.First(&company, tn.Company.ID).Error)

	require.NoError(t, a.db.Create(&model.Invoice{CompanyID: tn.Company.ID, Number: "INV-1", Status: model.InvoiceSent}).Error)
	require.NoError(t, a.db.Create(&model.Invoice{CompanyID: other.Company.ID, Number: "INV-1", Status: model.InvoiceSent}).Error)

	rec := a.do(t, http.MethodGet, "/public/invoices", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/public/invoices", "", map[string]string{"X-API-Key": company.APIKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Total int64 `json:"total"`
	}
	decode(t, rec, &page)
	require.EqualValues(t, 1, page.Total)
}

func TestPropertiesFeedDistribution(t *testing.T) {
	a := newApp(t)
	tn := testutil.SeedTenant(t, a.db, "prop@acme.test", 1)
	other := testutil.SeedTenant(t, a.db, "prop@other.test", 0)
	member := a.token(t, tn.Members[0])

	rec := a.do(t, http.MethodPost, "/api/properties", `{"name":" "}`, member)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var ids []string
	for _, name := range []string{"Depto 1", "Depto 2"} {
		rec = a.do(t, http.MethodPost, "/api/properties", `{"name":"`+name+`","address":"Calle 5"}`, member)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p model.Property
		decode(t, rec, &p)
		require.Equal(t, tn.Company.ID, p.CompanyID)
		ids = append(ids, itoa(p.ID))
	}

	rec = a.do(t, http.MethodGet, "/api/properties", "", member)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Properties []model.Property `json:"properties"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Properties, 2)

	rec = a.do(t, http.MethodGet, "/api/properties", "", a.token(t, other.Owner))
	require.Equal(t, http.StatusOK, rec.Code)
	list.Properties = nil
	decode(t, rec, &list)
	require.Empty(t, list.Properties)

	rec = a.do(t, http.MethodPost, "/api/payments/distribute",
		`{"type":"ENTRADA","totalAmount":"100","date":"2024-05-06","description":"water","propertyIds":[`+strings.Join(ids, ",")+`]}`, member)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Payments []model.Payment `json:"payments"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Payments, 2)
	require.Equal(t, "ENT-0001", out.Payments[0].Number)
	require.Equal(t, "ENT-0002", out.Payments[1].Number)
	require.Equal(t, "50", out.Payments[0].Amount.String())
	require.Equal(t, "water (Depto 1)", out.Payments[0].Description)

	// another tenant cannot distribute onto these properties
	rec = a.do(t, http.MethodPost, "/api/payments/distribute",
		`{"type":"ENTRADA","totalAmount":"100","date":"2024-05-06","propertyIds":[`+ids[0]+`]}`, a.token(t, other.Owner))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
