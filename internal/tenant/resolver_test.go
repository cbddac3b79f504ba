package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/internal/testutil"
)

func TestResolveOwnerIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "owner@acme.test", 2)
	r := tenant.NewResolver(db)
	ctx := context.Background()

	fromMember, err := r.ResolveOwner(ctx, tn.Members[0].ID)
	require.NoError(t, err)
	fromOwner, err := r.ResolveOwner(ctx, tn.Owner.ID)
	require.NoError(t, err)
	again, err := r.ResolveOwner(ctx, tn.Members[0].ID)
	require.NoError(t, err)

	require.Equal(t, tn.Owner.ID, fromMember)
	require.Equal(t, tn.Owner.ID, fromOwner)
	require.Equal(t, fromMember, again)
}

func TestResolveOwnerUnknownPrincipal(t *testing.T) {
	db := testutil.NewDB(t)
	r := tenant.NewResolver(db)

	_, err := r.ResolveOwner(context.Background(), 4242)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestResolveSharedIDsSameFromEveryPrincipal(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "owner@acme.test", 2)
	other := testutil.SeedTenant(t, db, "owner@other.test", 1)
	r := tenant.NewResolver(db)

	want := []uint{tn.Owner.ID, tn.Members[0].ID, tn.Members[1].ID}
	for _, id := range want {
		got, err := r.ResolveSharedIDs(context.Background(), id)
		require.NoError(t, err)
		require.ElementsMatch(t, want, got)
		require.NotContains(t, got, other.Owner.ID)
	}
}

func TestResolveSharedIDsOwnerWithoutMembers(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "solo@acme.test", 0)

	got, err := tenant.NewResolver(db).ResolveSharedIDs(context.Background(), tn.Owner.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{tn.Owner.ID}, got)
}

func TestResolveContext(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "owner@acme.test", 1)
	other := testutil.SeedTenant(t, db, "owner@other.test", 0)
	second := model.Company{OwnerID: tn.Owner.ID, Name: "Second"}
	require.NoError(t, db.Create(&second).Error)
	r := tenant.NewResolver(db)
	ctx := context.Background()

	t.Run("default company", func(t *testing.T) {
		tc, err := r.Resolve(ctx, tn.Members[0].ID, 0)
		require.NoError(t, err)
		require.Equal(t, tenant.Context{
			PrincipalID: tn.Members[0].ID,
			OwnerID:     tn.Owner.ID,
			CompanyID:   tn.Company.ID,
			Role:        model.RoleMember,
		}, tc)
		require.False(t, tc.IsAdmin())
	})

	t.Run("explicit company", func(t *testing.T) {
		tc, err := r.Resolve(ctx, tn.Owner.ID, second.ID)
		require.NoError(t, err)
		require.Equal(t, second.ID, tc.CompanyID)
		require.True(t, tc.IsAdmin())
	})

	t.Run("foreign company", func(t *testing.T) {
		_, err := r.Resolve(ctx, tn.Owner.ID, other.Company.ID)
		require.True(t, apperr.Is(err, apperr.KindInvalidReference))
	})

	t.Run("disabled principal", func(t *testing.T) {
		require.NoError(t, db.Model(&model.User{}).Where("id = ?", tn.Members[0].ID).Update("active", false).Error)
		_, err := r.Resolve(ctx, tn.Members[0].ID, 0)
		require.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})
}
