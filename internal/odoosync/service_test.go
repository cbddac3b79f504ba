package odoosync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeOdoo struct {
	created []map[string]interface{}
	written int
}

func (f *fakeOdoo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64 `json:"id"`
		Params struct {
			Method string        `json:"method"`
			Args   []interface{} `json:"args"`
		} `json:"params"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	var result interface{} = 1
	if req.Params.Method == "execute_kw" {
		model, method := req.Params.Args[3], req.Params.Args[4]
		switch {
		case model == "res.partner" && method == "search_read":
			result = []map[string]interface{}{
				{"id": 10, "name": "Acme", "email": "ops@acme.test", "phone": false, "vat": "B123", "street": false, "city": "Madrid"},
				{"id": 11, "name": "Globex", "email": false, "phone": "555", "vat": false, "street": false, "city": false},
			}
		case model == "product.product" && method == "search_read":
			result = []map[string]interface{}{{"id": 20, "name": "Widget", "default_code": "W-1", "list_price": 12.5}}
		case method == "create":
			f.created = append(f.created, req.Params.Args[5].([]interface{})[0].(map[string]interface{}))
			result = 99
		case method == "write":
			f.written++
			result = true
		}
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func setup(t *testing.T) (*Service, *gorm.DB, *testutil.Tenant, tenant.Context, *fakeOdoo) {
	t.Helper()
	fake := &fakeOdoo{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "odoo@acme.test", 0)
	require.NoError(t, db.Model(&tn.Company).Updates(map[string]interface{}{
		"odoo_url": srv.URL, "odoo_db": "prod", "odoo_username": "admin", "odoo_password": "secret",
	}).Error)

	tc := tenant.Context{PrincipalID: tn.Owner.ID, OwnerID: tn.Owner.ID, CompanyID: tn.Company.ID, Role: model.RoleOwner}
	return NewService(db, time.Second, zap.NewNop()), db, tn, tc, fake
}

func TestImportContactsIsIdempotent(t *testing.T) {
	svc, db, _, tc, _ := setup(t)
	ctx := context.Background()

	res, err := svc.ImportContacts(ctx, tc)
	require.NoError(t, err)
	require.Equal(t, &Result{Created: 2}, res)

	res, err = svc.ImportContacts(ctx, tc)
	require.NoError(t, err)
	require.Equal(t, &Result{Updated: 2}, res)

	var contacts []model.Contact
	require.NoError(t, db.Order("odoo_id").Find(&contacts).Error)
	require.Len(t, contacts, 2)
	require.Equal(t, "Acme", contacts[0].Name)
	require.Equal(t, "", contacts[0].Phone)
	require.Equal(t, tc.OwnerID, contacts[0].UserID)
	require.EqualValues(t, 11, *contacts[1].OdooID)
}

func TestImportProducts(t *testing.T) {
	svc, db, tn, tc, _ := setup(t)

	res, err := svc.ImportProducts(context.Background(), tc)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)

	var p model.Product
	require.NoError(t, db.Where("company_id = ?", tn.Company.ID).First(&p).Error)
	require.Equal(t, "W-1", p.SKU)
	require.True(t, p.Price.Equal(decimal.RequireFromString("12.5")))
}

func TestExportContact(t *testing.T) {
	svc, db, tn, tc, fake := setup(t)
	ctx := context.Background()
	contact := model.Contact{UserID: tn.Owner.ID, Name: "Initech", Email: "hi@initech.test"}
	require.NoError(t, db.Create(&contact).Error)
	shared := []uint{tn.Owner.ID}

	out, err := svc.ExportContact(ctx, tc, shared, contact.ID)
	require.NoError(t, err)
	require.EqualValues(t, 99, *out.OdooID)
	require.Len(t, fake.created, 1)
	require.Equal(t, "Initech", fake.created[0]["name"])

	// second export updates the existing partner
	_, err = svc.ExportContact(ctx, tc, shared, contact.ID)
	require.NoError(t, err)
	require.Len(t, fake.created, 1)
	require.Equal(t, 1, fake.written)

	_, err = svc.ExportContact(ctx, tc, []uint{9999}, contact.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestNotConfigured(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "plain@acme.test", 0)
	tc := tenant.Context{PrincipalID: tn.Owner.ID, OwnerID: tn.Owner.ID, CompanyID: tn.Company.ID, Role: model.RoleOwner}

	_, err := NewService(db, time.Second, zap.NewNop()).ImportContacts(context.Background(), tc)
	require.True(t, apperr.Is(err, apperr.KindInvalidRequest))
}
