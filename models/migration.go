package models

import (
	"log"

	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) {
	err := db.AutoMigrate(
		&Account{},
		&Journal{},
		&Tax{},
		&Country{},
		&Contact{},
		&ContactTag{},
		&ProductCategory{},
		&Product{},
		&AccountMove{},
		&AccountMoveLine{},
		&PartialReconcile{},
		&SyncLog{},
	)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}
