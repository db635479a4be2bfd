package main

import (
	"context"
	"fmt"
	"os"

	"table-booking/internal/config"

	"github.com/jackc/pgx/v5"
)

// Connects with the same DB_* settings as the API and reports row counts for
// the workflow tables.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	err = conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n", dbName)

	tables := []string{"products", "carts", "cart_items", "orders", "order_items", "bookings", "booking_verifications"}

	fmt.Println("\nWorkflow tables:")
	for _, table := range tables {
		var exists bool
		err := conn.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Lookup of %s failed: %v\n", table, err)
			os.Exit(1)
		}
		if !exists {
			fmt.Printf("  - %-22s missing (start the API with DB_AUTO_MIGRATE=true)\n", table)
			continue
		}

		var count int64
		if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&count); err != nil {
			fmt.Fprintf(os.Stderr, "Count of %s failed: %v\n", table, err)
			os.Exit(1)
		}
		fmt.Printf("  - %-22s %d rows\n", table, count)
	}

	var pending int64
	err = conn.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE status = 'pending_payment'").Scan(&pending)
	if err == nil {
		fmt.Printf("\nOrders awaiting payment: %d\n", pending)
	}
}
