// Package dbtest opens an in-memory sqlite database carrying the workflow
// tables, for repository and service tests.
package dbtest

import (
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT,
		phone TEXT,
		company TEXT,
		role TEXT NOT NULL DEFAULT 'customer',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE quotations (
		id TEXT PRIMARY KEY,
		quotation_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		product_url TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		image_urls TEXT NOT NULL DEFAULT '{}',
		image_url TEXT,
		destination_country TEXT NOT NULL,
		destination_city TEXT NOT NULL,
		shipping_method TEXT NOT NULL,
		service_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		title_option1 TEXT, total_price_option1 TEXT, delivery_time_option1 TEXT, description_option1 TEXT, image_option1 TEXT,
		title_option2 TEXT, total_price_option2 TEXT, delivery_time_option2 TEXT, description_option2 TEXT, image_option2 TEXT,
		title_option3 TEXT, total_price_option3 TEXT, delivery_time_option3 TEXT, description_option3 TEXT, image_option3 TEXT,
		selected_option INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE user_selections (
		id TEXT PRIMARY KEY,
		quotation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		selected_option_id TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (quotation_id, user_id)
	)`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		quotation_ids TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reference_number TEXT NOT NULL UNIQUE,
		proof_url TEXT,
		failure_reason TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE shipping (
		id TEXT PRIMARY KEY,
		quotation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'waiting',
		location TEXT,
		media_urls TEXT NOT NULL DEFAULT '{}',
		receiver_name TEXT,
		receiver_phone TEXT,
		receiver_address TEXT,
		receiver_email TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE shipping_receivers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		shipment_id TEXT,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		address TEXT NOT NULL,
		email TEXT,
		is_default BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_shipping_receivers_default ON shipping_receivers (user_id) WHERE is_default`,
	`CREATE TABLE media (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		owner_id TEXT,
		kind TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		object_key TEXT NOT NULL UNIQUE,
		file_name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		url TEXT,
		attached_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// New returns a fresh database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// A shared-cache memory database lives while one connection is open.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}
