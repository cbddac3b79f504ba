package odoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOdoo struct {
	calls []rpcParams
}

func (f *fakeOdoo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.calls = append(f.calls, req.Params)

	var result interface{}
	switch req.Params.Method {
	case "login":
		if req.Params.Args[2] != "secret" {
			result = false
			break
		}
		result = 7
	case "execute_kw":
		switch req.Params.Args[4] {
		case "search_read":
			result = []map[string]interface{}{{"id": 1, "name": "Acme"}, {"id": 2, "name": "Globex"}}
		case "create":
			result = 42
		case "unlink":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]interface{}{"code": 200, "message": "Odoo Server Error", "data": map[string]interface{}{"message": "Access Denied"}},
			})
			return
		}
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(&fakeOdoo{})
	defer srv.Close()

	c := NewClient(srv.URL+"/", "prod", "admin", "secret", time.Second, zap.NewNop())
	uid, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 7, uid)

	bad := NewClient(srv.URL, "prod", "admin", "wrong", time.Second, zap.NewNop())
	_, err = bad.Authenticate(context.Background())
	require.Error(t, err)
}

func TestSearchReadAuthenticatesLazily(t *testing.T) {
	fake := &fakeOdoo{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewClient(srv.URL, "prod", "admin", "secret", time.Second, zap.NewNop())
	records, err := c.SearchRead(context.Background(), "res.partner", nil, []string{"name"}, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Globex", records[1]["name"])

	require.Len(t, fake.calls, 2)
	require.Equal(t, "login", fake.calls[0].Method)
	require.Equal(t, "object", fake.calls[1].Service)
	require.Equal(t, "res.partner", fake.calls[1].Args[3])
}

func TestCreate(t *testing.T) {
	srv := httptest.NewServer(&fakeOdoo{})
	defer srv.Close()

	c := NewClient(srv.URL, "prod", "admin", "secret", time.Second, zap.NewNop())
	id, err := c.Create(context.Background(), "res.partner", map[string]interface{}{"name": "New"})
	require.NoError(t, err)
	require.EqualValues(t, 42, id)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(&fakeOdoo{})
	defer srv.Close()

	c := NewClient(srv.URL, "prod", "admin", "secret", time.Second, zap.NewNop())
	err := c.executeKw(context.Background(), "res.partner", "unlink", []interface{}{[]int64{1}}, nil, nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.Contains(t, err.Error(), "Access Denied")
}

func TestNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "prod", "admin", "secret", time.Second, zap.NewNop())
	_, err := c.Authenticate(context.Background())
	require.ErrorContains(t, err, "502")
}
