// Command seed populates the challenge and reward catalogs with the demo
// data set. Safe to run against an existing database: it only inserts, and
// challenge IDs are fixed so re-running fails fast instead of duplicating.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ecomove/ecomove/internal/model"
	"github.com/ecomove/ecomove/internal/repository/sqlite"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "ecomove.db"
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	repos := db.Repos()
	ctx := context.Background()

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	challenges := []model.Challenge{
		{
			ID:          "monthly-distance",
			Title:       "Sustainable Commuter",
			Description: "Cover 50 km using sustainable transport this month",
			Goal:        model.GoalDistance,
			Target:      50,
			Reward:      500,
			StartsAt:    monthStart,
			EndsAt:      monthEnd,
			Active:      true,
		},
		{
			ID:          "monthly-trips",
			Title:       "Frequent Traveller",
			Description: "Log 20 sustainable trips this month",
			Goal:        model.GoalTripCount,
			Target:      20,
			Reward:      400,
			StartsAt:    monthStart,
			EndsAt:      monthEnd,
			Active:      true,
		},
		{
			ID:          "monthly-co2",
			Title:       "Carbon Cutter",
			Description: "Save 10 kg of CO2 this month",
			Goal:        model.GoalCO2,
			Target:      10,
			Reward:      600,
			StartsAt:    monthStart,
			EndsAt:      monthEnd,
			Active:      true,
		},
		{
			ID:           "monthly-cycling",
			Title:        "Pedal Power",
			Description:  "Complete 10 bike trips this month",
			Goal:         model.GoalModeSpecific,
			Target:       10,
			Reward:       450,
			RequiredMode: model.ModeBike,
			StartsAt:     monthStart,
			EndsAt:       monthEnd,
			Active:       true,
		},
	}

	for i := range challenges {
		if err := repos.Challenges.Create(ctx, &challenges[i]); err != nil {
			logger.Error("failed to seed challenge",
				slog.String("id", challenges[i].ID),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("seeded challenge", slog.String("id", challenges[i].ID))
	}

	rewards := []model.Reward{
		{Name: "Transit Pass (1 month)", Description: "Unlimited public transit for a month", Cost: 2500, Category: model.CategoryProduct, Stock: 20, Active: true},
		{Name: "Bike Lights Set", Description: "USB rechargeable front and rear lights", Cost: 800, Category: model.CategoryProduct, Stock: 50, Active: true},
		{Name: "Wireless Earbuds", Description: "For podcast-powered commutes", Cost: 5000, Category: model.CategoryTechnology, Stock: 10, Active: true},
		{Name: "Game Console", Description: "Top-tier prize for top-tier commuters", Cost: 50000, Category: model.CategoryConsole, Stock: 2, Active: true},
		{Name: "€10 Cash Card", Description: "Prepaid card, spend it anywhere", Cost: 3000, Category: model.CategoryCash, Stock: 30, Active: true},
	}

	for i := range rewards {
		if err := repos.Rewards.Create(ctx, &rewards[i]); err != nil {
			logger.Error("failed to seed reward",
				slog.String("name", rewards[i].Name),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("seeded reward", slog.String("id", rewards[i].ID))
	}

	logger.Info("seeding complete",
		slog.Int("challenges", len(challenges)),
		slog.Int("rewards", len(rewards)))
}
