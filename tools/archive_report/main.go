package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/spf13/pflag"
)

func main() {
	dsn := pflag.String("dsn", os.Getenv("CLICKHOUSE_URL"), "ClickHouse DSN")
	limit := pflag.IntP("limit", "n", 10, "rows per section")
	pflag.Parse()

	if *dsn == "" {
		log.Fatal("no DSN: pass --dsn or set CLICKHOUSE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts, err := clickhouse.ParseDSN(*dsn)
	if err != nil {
		log.Fatalf("invalid DSN: %v", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	var games, rounds uint64
	err = conn.QueryRow(ctx, `
		SELECT uniqExact(match_id), count() FROM bullseye_rounds FINAL
	`).Scan(&games, &rounds)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Archived games: %d, rounds: %d\n\n", games, rounds)

	fmt.Println("Map popularity")
	rows, err := conn.Query(ctx, `
		SELECT map_name, uniqExact(match_id) AS games
		FROM bullseye_rounds FINAL
		GROUP BY map_name
		ORDER BY games DESC
		LIMIT ?
	`, *limit)
	if err != nil {
		log.Fatal(err)
	}
	for rows.Next() {
		var name string
		var count uint64
		if err := rows.Scan(&name, &count); err != nil {
			log.Fatal(err)
		}
		if name == "" {
			name = "(unknown)"
		}
		fmt.Printf("  %-32s %d\n", name, count)
	}
	rows.Close()

	fmt.Println("\nCountries by average round points")
	rows, err = conn.Query(ctx, `
		SELECT country_code, count() AS rounds, avg(points) AS average
		FROM bullseye_rounds FINAL
		WHERE country_code != ''
		GROUP BY country_code
		ORDER BY average DESC, country_code
		LIMIT ?
	`, *limit)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var count uint64
		var avg float64
		if err := rows.Scan(&code, &count, &avg); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  %-4s %6d rounds  avg %.1f\n", code, count, avg)
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}
}
