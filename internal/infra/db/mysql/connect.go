package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the analyses table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const q = `
CREATE TABLE IF NOT EXISTS image_analyses (
  id           VARCHAR(64)  NOT NULL PRIMARY KEY,
  capability   VARCHAR(64)  NOT NULL,
  image_key    VARCHAR(255) NOT NULL DEFAULT '',
  image_url    VARCHAR(512) NOT NULL DEFAULT '',
  width        INT          NOT NULL DEFAULT 0,
  height       INT          NOT NULL DEFAULT 0,
  result       MEDIUMTEXT,
  failed       TINYINT(1)   NOT NULL DEFAULT 0,
  source       VARCHAR(64)  NOT NULL DEFAULT '',
  duration_ms  BIGINT       NOT NULL DEFAULT 0,
  created_at   TIMESTAMP(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
  INDEX idx_analyses_created (created_at),
  INDEX idx_analyses_capability (capability)
);`
	_, err := db.ExecContext(ctx, q)
	return err
}
