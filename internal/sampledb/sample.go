// Package sampledb seeds a small demo dataset so the agent can be tried
// without an existing database.
package sampledb

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		country TEXT,
		signup_date DATE
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id INTEGER PRIMARY KEY,
		customer_id INTEGER,
		order_date DATE,
		total_amount REAL,
		status TEXT,
		FOREIGN KEY (customer_id) REFERENCES customers (customer_id)
	)`,
	`INSERT OR IGNORE INTO customers VALUES
		(1, 'John Smith', 'john@example.com', 'USA', '2023-01-15'),
		(2, 'Maria Garcia', 'maria@example.com', 'Spain', '2023-02-20'),
		(3, 'Li Wei', 'li@example.com', 'China', '2023-03-10'),
		(4, 'Aisha Khan', 'aisha@example.com', 'India', '2023-01-25'),
		(5, 'Carlos Rodriguez', 'carlos@example.com', 'Mexico', '2023-04-05')`,
	`INSERT OR IGNORE INTO orders VALUES
		(101, 1, '2023-02-01', 150.75, 'Delivered'),
		(102, 2, '2023-03-15', 89.99, 'Shipped'),
		(103, 3, '2023-03-20', 245.50, 'Processing'),
		(104, 1, '2023-04-10', 45.25, 'Delivered'),
		(105, 4, '2023-04-12', 199.99, 'Shipped'),
		(106, 5, '2023-04-15', 120.00, 'Processing'),
		(107, 2, '2023-04-20', 65.50, 'Processing')`,
}

// Setup creates the demo tables and seed rows. It is idempotent and targets
// SQLite syntax.
func Setup(ctx context.Context, db *sql.DB) error {
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("seed sample database: %w", err)
		}
	}
	return nil
}
