package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticketbooking/internal/events"
	"ticketbooking/internal/migrations"
	"ticketbooking/internal/shared/config"
	"ticketbooking/internal/shared/database"

	"github.com/shopspring/decimal"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Ticket Booking Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := migrations.Migrate(db.GetPostgreSQL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedEvents(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (bookings
// reference events)
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"bookings",
		"events",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedEvents inserts demo events with the full capacity available.
func (s *Seeder) SeedEvents() error {
	ctx := context.Background()

	eventService := events.NewService(events.NewRepository(s.db.GetPostgreSQL()), nil)

	demo := []events.CreateEventRequest{
		{
			Name:        "Summer Rock Festival",
			Description: "Three headliners, one open-air stage.",
			Venue:       "Riverside Amphitheatre",
			DateTime:    time.Now().AddDate(0, 1, 0),
			TotalSeats:  500,
			BasePrice:   decimal.NewFromFloat(45.00),
		},
		{
			Name:        "Chamber Orchestra Evening",
			Description: "A night of Brahms and Dvořák.",
			Venue:       "City Concert Hall",
			DateTime:    time.Now().AddDate(0, 0, 14),
			TotalSeats:  120,
			BasePrice:   decimal.NewFromFloat(32.50),
		},
		{
			Name:        "Stand-up Comedy Showcase",
			Description: "Five comedians, one open mic.",
			Venue:       "The Basement Club",
			DateTime:    time.Now().AddDate(0, 0, 7),
			TotalSeats:  80,
			BasePrice:   decimal.NewFromFloat(18.00),
		},
		{
			Name:        "Tech Conference Keynote",
			Description: "Opening keynote and panel discussion.",
			Venue:       "Convention Centre Hall A",
			DateTime:    time.Now().AddDate(0, 2, 0),
			TotalSeats:  1000,
			BasePrice:   decimal.NewFromFloat(120.00),
		},
		{
			Name:        "Intimate Jazz Session",
			Description: "Late-night trio set. Very limited seating.",
			Venue:       "Blue Note Cellar",
			DateTime:    time.Now().AddDate(0, 0, 3),
			TotalSeats:  5,
			BasePrice:   decimal.NewFromFloat(20.00),
		},
	}

	for _, req := range demo {
		created, err := eventService.CreateEvent(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to seed event %q: %w", req.Name, err)
		}
		fmt.Printf("  Seeded event: %s (%s, %d seats)\n", created.Name, created.ID, created.TotalSeats)
	}

	return nil
}
