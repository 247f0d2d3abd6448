package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
	"github.com/osse101/RentalsLedger_Go/internal/validation"
)

// PlanSeed is the plan catalog file
type PlanSeed struct {
	Version     string        `json:"version"`
	Description string        `json:"description"`
	Plans       []PlanSeedDef `json:"plans"`
}

// PlanSeedDef is one catalog entry. Plans are matched to existing rows by name.
type PlanSeedDef struct {
	Name          string `json:"name"`
	PriceCents    int64  `json:"price_cents"`
	DurationDays  int    `json:"duration_days"`
	ListingQuota  int    `json:"listing_quota"`
	FeaturedQuota int    `json:"featured_quota"`
	Suspended     bool   `json:"suspended,omitempty"`
}

func (d PlanSeedDef) input() domain.PlanInput {
	return domain.PlanInput{
		Name:          d.Name,
		PriceCents:    d.PriceCents,
		DurationDays:  d.DurationDays,
		ListingQuota:  d.ListingQuota,
		FeaturedQuota: d.FeaturedQuota,
	}
}

// SeedResult counts what a sync changed
type SeedResult struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// PlanLoader reads the catalog seed and upserts it into the plan repository
type PlanLoader struct {
	schemaPath string
	schemas    validation.SchemaValidator
}

// NewPlanLoader creates a loader that validates seed files against schemaPath
func NewPlanLoader(schemaPath string) *PlanLoader {
	return &PlanLoader{schemaPath: schemaPath, schemas: validation.NewSchemaValidator()}
}

// Load reads, schema-checks and parses a seed file
func (l *PlanLoader) Load(path string) (*PlanSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgReadSeed, err)
	}
	if err := l.schemas.ValidateBytes(data, l.schemaPath); err != nil {
		return nil, fmt.Errorf("%s %s: %w", ErrMsgInvalidSeed, path, err)
	}

	var seed PlanSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgParseSeed, err)
	}
	if err := validateSeed(&seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

// validateSeed checks what the schema cannot: unique names and the same rules the admin API applies
func validateSeed(seed *PlanSeed) error {
	seen := make(map[string]bool, len(seed.Plans))
	for i, def := range seed.Plans {
		key := strings.ToLower(strings.TrimSpace(def.Name))
		if seen[key] {
			return domain.NewError(domain.ErrorKindInvalidInput, fmt.Sprintf("duplicate plan name %q in seed", def.Name))
		}
		seen[key] = true
		if err := validatePlanInput(def.input()); err != nil {
			return fmt.Errorf("plan at index %d: %w", i, err)
		}
	}
	return nil
}

// Sync upserts every seeded plan by name. Plans missing from the seed are left alone so admin
// edits made through the API survive restarts.
func (l *PlanLoader) Sync(ctx context.Context, seed *PlanSeed, plans repository.Plan) (*SeedResult, error) {
	result := &SeedResult{}
	for _, def := range seed.Plans {
		changed, created, err := syncPlan(ctx, plans, def)
		if err != nil {
			return nil, fmt.Errorf("sync plan %q: %w", def.Name, err)
		}
		switch {
		case created:
			result.Inserted++
		case changed:
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	logger.FromContext(ctx).Info(LogMsgPlansSeeded,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged)
	return result, nil
}

func syncPlan(ctx context.Context, plans repository.Plan, def PlanSeedDef) (changed, created bool, err error) {
	in := def.input()
	existing, err := plans.GetPlanByName(ctx, def.Name)
	switch {
	case domain.KindOf(err) == domain.ErrorKindNotFound:
		plan := planFromInput(in)
		plan.IsActive = !def.Suspended
		if err := plans.CreatePlan(ctx, &plan); err != nil {
			return false, false, err
		}
		return true, true, nil
	case err != nil:
		return false, false, err
	}

	if existing.PriceCents != in.PriceCents || existing.DurationDays != in.DurationDays ||
		existing.ListingQuota != in.ListingQuota || existing.FeaturedQuota != in.FeaturedQuota {
		plan := planFromInput(in)
		plan.ID = existing.ID
		if err := plans.UpdatePlan(ctx, &plan); err != nil {
			return false, false, err
		}
		changed = true
	}
	if existing.IsActive == def.Suspended {
		if err := plans.SetPlanActive(ctx, existing.ID, !def.Suspended); err != nil {
			return false, false, err
		}
		changed = true
	}
	return changed, false, nil
}
