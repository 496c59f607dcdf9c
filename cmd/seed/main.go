package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/models"
)

func main() {
	dbPath := os.Getenv("FAIRWAY_DB_PATH")
	if dbPath == "" {
		dbPath = "./data/fairway.db"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventRegistration{},
		&models.Announcement{},
		&models.Transaction{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Println("✓ Database migrated successfully")

	adminID := seedAdmin(db)

	// Seed Events
	nextSaturday := upcoming(time.Saturday, 9)
	monthlyMedal := upcoming(time.Sunday, 8).AddDate(0, 0, 14)
	deadline := nextSaturday.Add(-24 * time.Hour)
	saturdayEnd := nextSaturday.Add(6 * time.Hour)
	medalEnd := monthlyMedal.Add(7 * time.Hour)

	events := []models.Event{
		{
			ID:                   uuid.NewString(),
			Title:                "Saturday Stableford",
			Description:          "Weekly 18-hole stableford competition. Tee times from the pro shop.",
			Location:             "Main Course",
			StartsAt:             nextSaturday,
			EndsAt:               &saturdayEnd,
			RegistrationDeadline: &deadline,
			Capacity:             40,
			FeeCents:             1500,
			Status:               models.EventStatusPublished,
			CreatedBy:            adminID,
		},
		{
			ID:          uuid.NewString(),
			Title:       "Monthly Medal",
			Description: "Strokeplay medal round, full handicap allowance.",
			Location:    "Main Course",
			StartsAt:    monthlyMedal,
			EndsAt:      &medalEnd,
			Capacity:    0, // unlimited
			FeeCents:    2000,
			Status:      models.EventStatusDraft,
			CreatedBy:   adminID,
		},
	}

	for _, event := range events {
		result := db.Where("title = ? AND starts_at = ?", event.Title, event.StartsAt).FirstOrCreate(&event)
		if result.Error != nil {
			log.Printf("Failed to seed event %s: %v", event.Title, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created event: %s (%s)\n", event.Title, event.StartsAt.Format("Mon 2 Jan"))
		} else {
			fmt.Printf("  Event already exists: %s\n", event.Title)
		}
	}

	// Seed Announcements
	now := time.Now()
	announcements := []models.Announcement{
		{
			ID:          uuid.NewString(),
			Title:       "Course maintenance week",
			Body:        "Greens will be hollow-tined Monday through Wednesday. Temporary greens in play.",
			Category:    "course",
			Pinned:      true,
			PublishedAt: &now,
			AuthorID:    adminID,
		},
		{
			ID:       uuid.NewString(),
			Title:    "New season fixtures",
			Body:     "Draft fixture list for the coming season. Feedback welcome before publication.",
			Category: "competitions",
			AuthorID: adminID,
		},
	}

	for _, announcement := range announcements {
		result := db.Where("title = ?", announcement.Title).FirstOrCreate(&announcement)
		if result.Error != nil {
			log.Printf("Failed to seed announcement %s: %v", announcement.Title, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created announcement: %s\n", announcement.Title)
		} else {
			fmt.Printf("  Announcement already exists: %s\n", announcement.Title)
		}
	}

	// Seed Transactions
	transactions := []models.Transaction{
		{
			ID:          uuid.NewString(),
			Kind:        models.TransactionIncome,
			Category:    "membership",
			AmountCents: 45000,
			OccurredOn:  now.AddDate(0, 0, -10),
			Description: "Annual membership renewal",
			RecordedBy:  adminID,
		},
		{
			ID:          uuid.NewString(),
			Kind:        models.TransactionExpense,
			Category:    "greenkeeping",
			AmountCents: 12500,
			OccurredOn:  now.AddDate(0, 0, -3),
			Description: "Fertilizer and seed order",
			RecordedBy:  adminID,
		},
	}

	for _, txn := range transactions {
		result := db.Where("description = ? AND amount_cents = ?", txn.Description, txn.AmountCents).FirstOrCreate(&txn)
		if result.Error != nil {
			log.Printf("Failed to seed transaction %s: %v", txn.Description, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created transaction: %s (%d cents)\n", txn.Description, txn.AmountCents)
		} else {
			fmt.Printf("  Transaction already exists: %s\n", txn.Description)
		}
	}

	fmt.Println("\n✓ Database seeding completed successfully!")
	fmt.Println("  You can now start the application and see sample data.")
}

// seedAdmin ensures a default admin account exists and returns its id.
func seedAdmin(db *gorm.DB) string {
	email := os.Getenv("FAIRWAY_DEFAULT_ADMIN_EMAIL")
	if email == "" {
		email = "admin@localhost"
	}
	password := os.Getenv("FAIRWAY_DEFAULT_ADMIN_PASSWORD")

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("  User already exists: %s\n", existing.Email)
		return existing.ID
	}

	user := models.User{
		ID:      uuid.NewString(),
		Email:   email,
		Name:    "Club Secretary",
		Role:    models.RoleAdmin,
		Enabled: true,
	}

	if password != "" {
		if err := user.SetPassword(password); err != nil {
			log.Printf("Failed to hash default admin password: %v", err)
		}
	} else {
		// Placeholder hash, not loginable until reset-password is run
		user.PasswordHash = "$2a$10$example_hashed_password"
	}

	if err := db.Create(&user).Error; err != nil {
		log.Printf("Failed to seed user: %v", err)
	} else {
		fmt.Printf("✓ Created default user: %s\n", user.Email)
	}
	return user.ID
}

// upcoming returns the next occurrence of the given weekday at the given hour.
func upcoming(day time.Weekday, hour int) time.Time {
	t := time.Now()
	t = time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, time.Local)
	for t.Weekday() != day || t.Before(time.Now()) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
