package database

import (
	"fmt"
	"log"
	"time"

	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/internal/pkg/env"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// PrimaryDSN builds the connection string for the shared primary database
// from the environment.
func PrimaryDSN() string {
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
}

// OpenEndpoint opens a GORM handle against an arbitrary endpoint DSN. Used
// for tenant branches; the primary connection goes through SetupDatabase.
func OpenEndpoint(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.New(mysql.Config{
		DSN:                       dsn,   // data source name
		DefaultStringSize:         256,   // default size for string fields
		DisableDatetimePrecision:  true,  // disable datetime precision, which not supported before MySQL 5.6
		DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
		DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
		SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
	}), &gorm.Config{})
}

func SetupDatabase() {
	var err error
	dsn := PrimaryDSN()

	for i := 0; i < maxRetries; i++ {
		DB, err = OpenEndpoint(dsn)
		if err == nil {
			DB.AutoMigrate(
				&models.Tenant{},
				&models.BranchMapping{},
				&models.Setting{},
				&models.TenantAdminGrant{},
				&models.Profile{},
				&models.Post{},
			)

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retry number %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// GetDB returns the primary database handle
func GetDB() *gorm.DB {
	return DB
}
