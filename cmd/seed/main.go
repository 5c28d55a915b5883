package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/learnloop/api/config"
	"github.com/learnloop/api/database"
	"github.com/learnloop/api/model"
	"github.com/learnloop/api/services"
	"gorm.io/gorm"
)

// Seeds the catalog with demo courses and generates a month of synthetic
// analytics traffic. Intended for local development only.
func main() {
	if err := config.LoadENV(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	db := store.GetDB().(*gorm.DB)
	ctx := context.Background()

	courses := []model.Course{
		{Slug: "intro-data-analysis", Title: "Introduction to Data Analysis", Category: "data", PriceCents: 4900, Published: true, DurationHours: 12},
		{Slug: "project-management-101", Title: "Project Management Fundamentals", Category: "business", PriceCents: 5900, Published: true, DurationHours: 16},
		{Slug: "clinical-ethics-refresher", Title: "Clinical Ethics Refresher", Category: "healthcare", PriceCents: 3900, Published: true, DurationHours: 8},
	}
	for i := range courses {
		if err := db.Where("slug = ?", courses[i].Slug).FirstOrCreate(&courses[i]).Error; err != nil {
			log.Fatalf("failed to seed course %s: %v", courses[i].Slug, err)
		}
	}
	log.Printf("seeded %d courses", len(courses))

	analyticsStore := services.NewGormAnalyticsStore(db)
	tracking := services.NewTrackingService(analyticsStore)

	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	for day := 30; day >= 0; day-- {
		date := now.AddDate(0, 0, -day)
		for i := 0; i < 3+rng.Intn(8); i++ {
			userID := fmt.Sprintf("demo-user-%d", rng.Intn(40))
			course := courses[rng.Intn(len(courses))]

			start := date.Add(time.Duration(rng.Intn(86400)) * time.Second)
			end := start.Add(time.Duration(300+rng.Intn(3600)) * time.Second)
			if _, err := tracking.TrackSession(ctx, services.SessionInput{
				UserID:       userID,
				SessionStart: &start,
				SessionEnd:   &end,
				PageViews:    1 + rng.Intn(20),
				DeviceType:   model.DeviceTypeDesktop,
				Browser:      "Chrome",
			}); err != nil {
				log.Fatalf("failed to seed session: %v", err)
			}

			if rng.Intn(4) == 0 {
				if _, err := tracking.TrackRevenue(ctx, services.RevenueInput{
					UserID:        userID,
					CourseID:      course.Slug,
					Amount:        float64(course.PriceCents) / 100,
					PaymentMethod: "card",
					Status:        model.TransactionStatusCompleted,
					CompletedAt:   &start,
				}); err != nil {
					log.Fatalf("failed to seed transaction: %v", err)
				}
			}

			progress := rng.Intn(101)
			if _, err := tracking.TrackProgress(ctx, services.ProgressInput{
				UserID:    userID,
				CourseID:  course.Slug,
				Progress:  progress,
				TimeSpent: 60 + rng.Intn(1800),
			}); err != nil {
				log.Fatalf("failed to seed progress: %v", err)
			}

			played := rng.Intn(101)
			if _, err := tracking.TrackInteraction(ctx, services.InteractionInput{
				UserID:          userID,
				CourseID:        course.Slug,
				InteractionType: model.InteractionTypeVideoPlay,
				Timestamp:       &start,
				Progress:        &played,
			}); err != nil {
				log.Fatalf("failed to seed interaction: %v", err)
			}
		}
	}

	log.Println("seeded synthetic analytics traffic for the trailing 30 days")
}
