package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

const mysqlTableOptions = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"

// mysql error: Duplicate key name
const mysqlDuplicateKeyName = 1061

var tables = []string{
	`CREATE TABLE IF NOT EXISTS videos (
		id VARCHAR(50) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		category VARCHAR(100) NOT NULL,
		tags TEXT,
		filename VARCHAR(500) NOT NULL,
		original_name VARCHAR(255) NOT NULL DEFAULT '',
		file_size BIGINT NOT NULL DEFAULT 0,
		mime_type VARCHAR(100) NOT NULL DEFAULT 'video/mp4',
		checksum VARCHAR(64) NOT NULL DEFAULT '',
		thumbnail VARCHAR(500) NOT NULL DEFAULT '',
		thumbnail_mime VARCHAR(100) NOT NULL DEFAULT '',
		uploaded_by VARCHAR(100) NOT NULL,
		channel_name VARCHAR(100) NOT NULL,
		views BIGINT NOT NULL DEFAULT 0,
		likes BIGINT NOT NULL DEFAULT 0,
		is_approved INT NOT NULL DEFAULT 0,
		spiritual_content INT NOT NULL DEFAULT 1,
		created_at VARCHAR(50) NOT NULL DEFAULT '',
		updated_at VARCHAR(50) NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS live_streams (
		id VARCHAR(50) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		category VARCHAR(100) NOT NULL,
		stream_key_hash VARCHAR(255) NOT NULL,
		streamer_name VARCHAR(100) NOT NULL,
		channel_name VARCHAR(100) NOT NULL,
		is_live INT NOT NULL DEFAULT 1,
		viewers INT NOT NULL DEFAULT 0,
		start_time VARCHAR(50) NOT NULL DEFAULT '',
		end_time VARCHAR(50) NOT NULL DEFAULT '',
		is_approved INT NOT NULL DEFAULT 0,
		created_at VARCHAR(50) NOT NULL DEFAULT '',
		updated_at VARCHAR(50) NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS challenges (
		id VARCHAR(50) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		difficulty VARCHAR(20) NOT NULL,
		description TEXT,
		moral_twist TEXT,
		example TEXT,
		solution TEXT,
		scripture VARCHAR(100) NOT NULL DEFAULT '',
		verse TEXT,
		lesson TEXT,
		is_active INT NOT NULL DEFAULT 1,
		created_at VARCHAR(50) NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS challenge_submissions (
		id VARCHAR(50) PRIMARY KEY,
		challenge_id VARCHAR(50) NOT NULL,
		user_id VARCHAR(100) NOT NULL,
		language VARCHAR(50) NOT NULL DEFAULT '',
		code TEXT,
		status VARCHAR(20) NOT NULL,
		created_at VARCHAR(50) NOT NULL DEFAULT '',
		FOREIGN KEY (challenge_id) REFERENCES challenges(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS purchases (
		id VARCHAR(50) PRIMARY KEY,
		user_id VARCHAR(100) NOT NULL,
		title VARCHAR(255) NOT NULL,
		author VARCHAR(255) NOT NULL,
		price DOUBLE NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'completed',
		image VARCHAR(255) NOT NULL DEFAULT '',
		category VARCHAR(20) NOT NULL,
		created_at VARCHAR(50) NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS achievements (
		id VARCHAR(50) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		icon VARCHAR(32) NOT NULL DEFAULT '',
		category VARCHAR(50) NOT NULL,
		points INT NOT NULL DEFAULT 0,
		requirement VARCHAR(255) NOT NULL DEFAULT '',
		is_active INT NOT NULL DEFAULT 1,
		sort_order INT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS user_achievements (
		id VARCHAR(50) PRIMARY KEY,
		user_id VARCHAR(100) NOT NULL,
		achievement_id VARCHAR(50) NOT NULL,
		progress INT NOT NULL DEFAULT 0,
		unlocked INT NOT NULL DEFAULT 0,
		unlocked_at VARCHAR(50) NOT NULL DEFAULT '',
		updated_at VARCHAR(50) NOT NULL DEFAULT '',
		UNIQUE (user_id, achievement_id),
		FOREIGN KEY (achievement_id) REFERENCES achievements(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS activity_logs (
		id VARCHAR(50) PRIMARY KEY,
		actor_id VARCHAR(100) NOT NULL,
		actor_name VARCHAR(100) NOT NULL DEFAULT '',
		action VARCHAR(100) NOT NULL,
		details TEXT,
		created_at VARCHAR(50) NOT NULL DEFAULT ''
	)`,
}

var indexes = []struct {
	name, table, columns string
}{
	{"idx_videos_approved", "videos", "is_approved, created_at"},
	{"idx_live_streams_live", "live_streams", "is_live, is_approved"},
	{"idx_submissions_challenge", "challenge_submissions", "challenge_id"},
	{"idx_purchases_user", "purchases", "user_id"},
	{"idx_user_achievements_user", "user_achievements", "user_id"},
	{"idx_activity_logs_created", "activity_logs", "created_at"},
}

// Migrate creates every table and index. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	for _, ddl := range tables {
		if driver == "mysql" {
			ddl += mysqlTableOptions
		}
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to execute SQL: %w", err)
		}
	}

	for _, idx := range indexes {
		var stmt string
		if driver == "mysql" {
			stmt = fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		} else {
			stmt = fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		}

		if _, err := db.ExecContext(ctx, stmt); err != nil && !isDuplicateIndex(err) {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

func isDuplicateIndex(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateKeyName
}
