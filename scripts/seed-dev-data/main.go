// seed-dev-data inserts a batch of sample decisions so the search and filter
// UI has something to show during development. Idempotent in spirit: run it
// against a scratch database, not production.
//
// Usage: go run ./scripts/seed-dev-data
//
// Database connection: uses the standard PG* environment variables.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hindsightlog/hindsight/pkg/config"
	"github.com/hindsightlog/hindsight/pkg/database"
	"github.com/hindsightlog/hindsight/pkg/models"
	"github.com/hindsightlog/hindsight/pkg/repositories"
)

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func main() {
	cfg, err := config.Load("dev")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repositories.NewDecisionRepository(db)

	decisions := []*models.Decision{
		{
			Title:          "Adopt pgx over database/sql for the main store",
			Context:        "The service is PostgreSQL-only and needs array and tsvector support.",
			Reasoning:      "pgx exposes PostgreSQL types natively and benchmarks faster than lib/pq.",
			OutcomeNotes:   "No driver-related incidents after six months.",
			Category:       models.CategoryArchitecture,
			ProjectName:    "backend",
			Tags:           []string{"go", "database", "postgres"},
			Confidence:     intPtr(9),
			OutcomeSuccess: boolPtr(true),
		},
		{
			Title:      "Weekly decision review meeting",
			Context:    "Decisions were being made in DMs and lost.",
			Reasoning:  "A standing 30-minute slot forces decisions into the log.",
			Category:   models.CategoryProcess,
			Tags:       []string{"meetings"},
			Confidence: intPtr(6),
		},
		{
			Title:            "Switch CI from Jenkins to GitHub Actions",
			Context:          "Jenkins maintenance was eating a day per sprint.",
			Reasoning:        "Actions is hosted and the workflows live next to the code.",
			OutcomeNotes:     "Build times doubled on the free runners.",
			Category:         models.CategoryTooling,
			ProjectName:      "infrastructure",
			Tags:             []string{"ci", "github"},
			Confidence:       intPtr(7),
			OutcomeSuccess:   boolPtr(false),
			FlaggedForReview: true,
		},
		{
			Title:      "Pair new hires with a buddy for the first month",
			Context:    "Onboarding feedback said the first weeks felt unstructured.",
			Reasoning:  "A named buddy lowers the bar for asking small questions.",
			Category:   models.CategoryTeam,
			Tags:       []string{"onboarding"},
			Confidence: intPtr(8),
		},
		{
			Title:       "Drop the public API rate limit from 100 to 60 rpm",
			Context:     "A handful of integrations were saturating the search endpoint.",
			Reasoning:   "60 rpm covers every legitimate client we measured.",
			Category:    models.CategoryProduct,
			ProjectName: "api",
			Tags:        []string{"rate-limiting", "api"},
			Confidence:  intPtr(5),
		},
		{
			Title:     "Keep the monolith for now",
			Context:   "Recurring pressure to split services at 4 engineers.",
			Reasoning: "Team size does not support the operational overhead yet.",
			Category:  models.CategoryOther,
			Tags:      []string{"architecture"},
		},
	}

	for _, d := range decisions {
		if err := repo.Create(ctx, d); err != nil {
			fmt.Fprintf(os.Stderr, "failed to insert %q: %v\n", d.Title, err)
			os.Exit(1)
		}
		fmt.Printf("seeded %s  %s\n", d.ID, d.Title)
	}

	fmt.Printf("seeded %d decisions\n", len(decisions))
}
