package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the user_records table when it does not exist.
// The unique key on topic_id enforces that no two users ever share a
// topic. topic_id stays NULL until a forum topic is created for the
// user; the flags default to false.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS user_records (
            user_id    BIGINT NOT NULL PRIMARY KEY,
            topic_id   BIGINT NULL,
            banned     TINYINT(1) NOT NULL DEFAULT 0,
            archived   TINYINT(1) NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE KEY uq_user_records_topic_id (topic_id)
        )`
	_, err := db.ExecContext(ctx, ddl)
	return err
}
