package datastore

import (
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/logger"
)

const (
	mysqlConnectTimeout = 5 * time.Second
	mysqlMaxOpenConns   = 10
	mysqlConnMaxLife    = 30 * time.Minute
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

// mysqlDSN builds the DSN through mysql.Config so credentials are escaped
func mysqlDSN(settings *conf.MySQLSettings) string {
	cfg := mysql.NewConfig()
	cfg.User = settings.Username
	cfg.Passwd = settings.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(settings.Host, settings.Port)
	cfg.DBName = settings.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Timeout = mysqlConnectTimeout
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Open sets up the MySQL connection and migrates the schema
func (store *MySQLStore) Open() error {
	settings := &store.Settings.Output.MySQL

	db, err := gorm.Open(gormmysql.Open(mysqlDSN(settings)), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return dbError(err, "open_mysql",
			"host", settings.Host,
			"port", settings.Port,
			"database", settings.Database)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "open_mysql")
	}
	sqlDB.SetMaxOpenConns(mysqlMaxOpenConns)
	sqlDB.SetConnMaxLifetime(mysqlConnMaxLife)

	store.DB = db
	if err := performAutoMigration(db, "MySQL"); err != nil {
		return err
	}

	GetLogger().Info("MySQL database opened",
		logger.String("host", settings.Host),
		logger.String("database", settings.Database))
	return nil
}

// Close releases the MySQL connection pool
func (store *MySQLStore) Close() error {
	return store.closeDB()
}
