package server

import (
	"github.com/xiaoyuanzhu-com/todo-api/config"
	"github.com/xiaoyuanzhu-com/todo-api/db"
)

// DBConfig converts application config to database config
func DBConfig(cfg *config.Config) db.Config {
	return db.Config{
		URL:             cfg.DatabaseURL,
		ConnectAttempts: cfg.DBConnectRetries,
		ConnectDelay:    cfg.DBConnectDelay,
		ConnectTimeout:  cfg.DBConnectTimeout,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		AutoMigrate:     cfg.DBAutoMigrate,
		LogQueries:      cfg.DBLogQueries,
	}
}
