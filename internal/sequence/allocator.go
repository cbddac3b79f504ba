// Package sequence issues per-company document numbers.
package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/prometheus"
	"gorm.io/gorm"
)

type columns struct {
	prefix  string
	counter string
}

var counters = map[model.PaymentType]columns{
	model.PaymentEntrada: {prefix: "payment_entrada_prefix", counter: "payment_entrada_next_number"},
	model.PaymentSalida:  {prefix: "payment_salida_prefix", counter: "payment_salida_next_number"},
}

// Format renders a document number, zero padded to four digits
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// Allocate issues the next number of docType for the company. Pass the
// transaction that creates the document so both commit or roll back together.
func Allocate(ctx context.Context, tx *gorm.DB, companyID uint, docType model.PaymentType) (string, error) {
	numbers, err := AllocateN(ctx, tx, companyID, docType, 1)
	if err != nil {
		return "", err
	}
	return numbers[0], nil
}

// AllocateN issues n consecutive numbers with a single increment of the
// company counter. The increment happens before the read so the row stays
// locked against concurrent allocators until the transaction ends.
func AllocateN(ctx context.Context, tx *gorm.DB, companyID uint, docType model.PaymentType, n int) ([]string, error) {
	cols, ok := counters[docType]
	if !ok {
		return nil, apperr.InvalidRequest("unknown document type %q", docType)
	}
	if n < 1 {
		return nil, apperr.InvalidRequest("at least one number must be allocated")
	}

	var numbers []string
	err := tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Company{}).
			Where("id = ?", companyID).
			UpdateColumn(cols.counter, gorm.Expr(cols.counter+" + ?", n))
		if res.Error != nil {
			return apperr.Internal(res.Error, "failed to advance %s counter", docType)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("company %d not found", companyID)
		}

		var row struct {
			Prefix     string
			NextNumber int64
		}
		err := tx.Model(&model.Company{}).
			Select(cols.prefix + " AS prefix, " + cols.counter + " AS next_number").
			Where("id = ?", companyID).
			Take(&row).Error
		if err != nil {
			return apperr.Internal(err, "failed to read %s counter", docType)
		}

		first := row.NextNumber - int64(n)
		numbers = make([]string, 0, n)
		for i := int64(0); i < int64(n); i++ {
			numbers = append(numbers, Format(row.Prefix, first+i))
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Internal(err, "failed to allocate %s number", docType)
	}

	prometheus.NumbersAllocatedCounter.WithLabelValues(string(docType)).Add(float64(n))
	return numbers, nil
}
