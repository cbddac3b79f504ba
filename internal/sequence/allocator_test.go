package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/testutil"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "PAY-0007", Format("PAY", 7))
	require.Equal(t, "SAL-0001", Format("SAL", 1))
	require.Equal(t, "ENT-9999", Format("ENT", 9999))
	require.Equal(t, "ENT-12345", Format("ENT", 12345))
}

func TestAllocateSequential(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "seq@acme.test", 0)
	ctx := context.Background()

	var got []string
	for i := 0; i < 5; i++ {
		n, err := Allocate(ctx, db, tn.Company.ID, model.PaymentSalida)
		require.NoError(t, err)
		got = append(got, n)
	}
	require.Equal(t, []string{"SAL-0001", "SAL-0002", "SAL-0003", "SAL-0004", "SAL-0005"}, got)

	// counters are independent per type
	n, err := Allocate(ctx, db, tn.Company.ID, model.PaymentEntrada)
	require.NoError(t, err)
	require.Equal(t, "ENT-0001", n)

	var company model.Company
	require.NoError(t, db.First(&company, tn.Company.ID).Error)
	require.EqualValues(t, 6, company.PaymentSalidaNextNumber)
	require.EqualValues(t, 2, company.PaymentEntradaNextNumber)
}

func TestAllocateN(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "bulk@acme.test", 0)
	require.NoError(t, db.Model(&model.Company{}).Where("id = ?", tn.Company.ID).
		Updates(map[string]interface{}{"payment_entrada_prefix": "PAY", "payment_entrada_next_number": 7}).Error)

	got, err := AllocateN(context.Background(), db, tn.Company.ID, model.PaymentEntrada, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"PAY-0007", "PAY-0008", "PAY-0009"}, got)

	var company model.Company
	require.NoError(t, db.First(&company, tn.Company.ID).Error)
	require.EqualValues(t, 10, company.PaymentEntradaNextNumber)
}

func TestAllocateErrors(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.SeedTenant(t, db, "err@acme.test", 0)
	ctx := context.Background()

	_, err := Allocate(ctx, db, 9999, model.PaymentSalida)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = Allocate(ctx, db, tn.Company.ID, model.PaymentType("REFUND"))
	require.True(t, apperr.Is(err, apperr.KindInvalidRequest))

	_, err = AllocateN(ctx, db, tn.Company.ID, model.PaymentSalida, 0)
	require.True(t, apperr.Is(err, apperr.KindInvalidRequest))
}

func TestAllocateConcurrentIsUnique(t *testing.T) {
	db := testutil.NewFileDB(t)
	tn := testutil.SeedTenant(t, db, "race@acme.test", 0)

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{})
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := Allocate(context.Background(), db, tn.Company.ID, model.PaymentSalida)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[n] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, workers)
	for i := int64(1); i <= workers; i++ {
		require.Contains(t, numbers, Format("SAL", i))
	}
}
