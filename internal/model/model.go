// Package model holds the gorm-mapped entities of the service.
package model

// All returns every model for AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&Company{},
		&Payment{},
		&Property{},
		&Attendance{},
		&Project{},
		&Task{},
		&Contact{},
		&Product{},
		&Invoice{},
		&InvoiceItem{},
		&VerificationCode{},
	}
}
