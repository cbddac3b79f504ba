package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/suteetoe/erp/internal/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ListQuery holds equality filters and pagination
type ListQuery struct {
	Filters map[string]string
	Limit   int
	Skip    int
}

// Page is a list response
type Page struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Limit int         `json:"limit"`
	Skip  int         `json:"skip"`
}

// Repository exposes CRUD over a single entity kind
type Repository interface {
	List(ctx context.Context, q ListQuery) (*Page, error)
	Get(ctx context.Context, id uint) (interface{}, error)
	Create(ctx context.Context, body []byte) (interface{}, error)
	Update(ctx context.Context, id uint, body []byte) (interface{}, error)
	Delete(ctx context.Context, id uint) error
}

type gormRepository[T any] struct {
	db   *gorm.DB
	kind Kind

	once   sync.Once
	schema *schema.Schema
	err    error
}

func newRepository[T any](db *gorm.DB, kind Kind) *gormRepository[T] {
	return &gormRepository[T]{db: db, kind: kind}
}

func (r *gormRepository[T]) parse() (*schema.Schema, error) {
	r.once.Do(func() {
		r.schema, r.err = schema.Parse(new(T), &sync.Map{}, r.db.NamingStrategy)
	})
	return r.schema, r.err
}

// column maps a filter key (json name, Go name or column name) to a column
func (r *gormRepository[T]) column(key string) (string, *schema.Field, error) {
	if !identifier.MatchString(key) {
		return "", nil, apperr.InvalidRequest("invalid filter %q", key)
	}
	sch, err := r.parse()
	if err != nil {
		return "", nil, storageError(err)
	}
	for _, f := range sch.Fields {
		jsonName := strings.Split(f.Tag.Get("json"), ",")[0]
		if f.DBName == "" {
			continue
		}
		if key == jsonName || key == f.Name || key == f.DBName {
			if jsonName == "-" {
				return "", nil, apperr.InvalidRequest("field %q cannot be filtered", key)
			}
			return f.DBName, f, nil
		}
	}
	return "", nil, apperr.InvalidRequest("unknown filter %q", key)
}

// storageError reports a storage failure with the driver's own message
func storageError(err error) error {
	return apperr.Internal(err, "%s", err.Error())
}

func convert(f *schema.Field, v string) interface{} {
	switch f.DataType {
	case schema.Bool:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	case schema.Int:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case schema.Uint:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	case schema.Float:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return v
}

func (r *gormRepository[T]) List(ctx context.Context, q ListQuery) (*Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	skip := q.Skip
	if skip < 0 {
		skip = 0
	}

	conds := make(map[string]interface{}, len(q.Filters))
	for key, value := range q.Filters {
		col, field, err := r.column(key)
		if err != nil {
			return nil, err
		}
		conds[col] = convert(field, value)
	}

	db := r.db.WithContext(ctx).Model(new(T))
	if len(conds) > 0 {
		db = db.Where(conds)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, storageError(err)
	}

	items := make([]T, 0)
	if err := db.Order("created_at desc").Limit(limit).Offset(skip).Find(&items).Error; err != nil {
		return nil, storageError(err)
	}
	return &Page{Data: items, Total: total, Limit: limit, Skip: skip}, nil
}

func (r *gormRepository[T]) Get(ctx context.Context, id uint) (interface{}, error) {
	var item T
	err := r.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("%s %d not found", r.kind, id)
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &item, nil
}

func (r *gormRepository[T]) Create(ctx context.Context, body []byte) (interface{}, error) {
	item := new(T)
	if err := json.Unmarshal(body, item); err != nil {
		return nil, storageError(err)
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, storageError(err)
	}
	return item, nil
}

// Update overlays the body on the stored record and saves it
func (r *gormRepository[T]) Update(ctx context.Context, id uint, body []byte) (interface{}, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item := existing.(*T)
	if err := json.Unmarshal(body, item); err != nil {
		return nil, storageError(err)
	}
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, storageError(err)
	}
	return item, nil
}

func (r *gormRepository[T]) Delete(ctx context.Context, id uint) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(new(T), id).Error; err != nil {
		return storageError(err)
	}
	return nil
}
