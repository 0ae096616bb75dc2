package database

import (
	"fmt"
	"math"
	"strings"
	"time"

	"wine_shop/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Open connects with the configured driver. SQLite gets a single connection
// and immediate transactions so that checkouts serialize on the write lock;
// it has no row-level locks. lockWait bounds how long a transaction waits on
// a locked row (MySQL) or on the database write lock (SQLite).
func Open(driver, dsn string, lockWait time.Duration) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(sqliteDSN(dsn, lockWait)), gormCfg)
	case DriverMySQL:
		db, err = gorm.Open(mysql.Open(mysqlDSN(dsn, lockWait)), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// Migrate creates or updates every table the shop owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Wine{},
		&models.InventoryBatch{},
		&models.Cart{},
		&models.CartLine{},
		&models.Promotion{},
		&models.Order{},
		&models.OrderLine{},
	)
}

func sqliteDSN(dsn string, lockWait time.Duration) string {
	params := fmt.Sprintf("_busy_timeout=%d&_txlock=immediate&_foreign_keys=1", lockWait.Milliseconds())
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

// mysqlDSN sets parseTime and, unless the DSN already carries one, an
// innodb_lock_wait_timeout that the driver applies to every new connection.
func mysqlDSN(dsn string, lockWait time.Duration) string {
	var params []string
	if !strings.Contains(dsn, "parseTime=") {
		params = append(params, "parseTime=true")
	}
	if lockWait > 0 && !strings.Contains(dsn, "innodb_lock_wait_timeout=") {
		seconds := int(math.Ceil(lockWait.Seconds()))
		params = append(params, fmt.Sprintf("innodb_lock_wait_timeout=%d", seconds))
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
