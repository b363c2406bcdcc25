package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/condokit/pkg/money"
)

// Plan is a priced subscription plan.
type Plan struct {
	Slug            string      `json:"slug"`
	Name            string      `json:"name"`
	MonthlyPrice    money.Money `json:"monthly_price"`
	ExternalPlanRef string      `json:"external_plan_ref,omitempty"`
}

// DisplayName returns Name, falling back to the slug.
func (p Plan) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Slug
}

// PlanSource loads the plan table.
type PlanSource interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// DefaultPlans is the built-in plan table, prices in BRL.
func DefaultPlans() []Plan {
	return []Plan{
		{Slug: "gratuito", Name: "Gratuito", MonthlyPrice: money.New(0, "BRL")},
		{Slug: "essencial", Name: "Essencial", MonthlyPrice: money.New(4990, "BRL")},
		{Slug: "profissional", Name: "Profissional", MonthlyPrice: money.New(9990, "BRL")},
		{Slug: "corporativo", Name: "Corporativo", MonthlyPrice: money.New(19990, "BRL")},
	}
}

type inMemPlanSource struct {
	plans map[string]Plan
}

// NewInMemPlanSource returns a PlanSource over a copy of plans.
func NewInMemPlanSource(plans ...Plan) PlanSource {
	m := make(map[string]Plan, len(plans))
	for _, p := range plans {
		m[p.Slug] = p
	}
	return &inMemPlanSource{plans: m}
}

func (s *inMemPlanSource) Load(context.Context) (map[string]Plan, error) {
	return maps.Clone(s.plans), nil
}

type yamlPlanFile struct {
	Plans []struct {
		Slug            string `yaml:"slug"`
		Name            string `yaml:"name"`
		MonthlyPrice    string `yaml:"monthly_price"`
		Currency        string `yaml:"currency"`
		ExternalPlanRef string `yaml:"external_plan_ref"`
	} `yaml:"plans"`
}

// NewYAMLPlanSource parses a YAML plan table.
func NewYAMLPlanSource(r io.Reader, defaultCurrency string) (PlanSource, error) {
	var file yamlPlanFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(file.Plans) == 0 {
		return nil, fmt.Errorf("%w: no plans defined", ErrInvalidPlan)
	}

	plans := make([]Plan, 0, len(file.Plans))
	for i, p := range file.Plans {
		slug := strings.TrimSpace(p.Slug)
		if slug == "" {
			return nil, fmt.Errorf("%w: plan #%d has no slug", ErrInvalidPlan, i+1)
		}
		cur := p.Currency
		if cur == "" {
			cur = defaultCurrency
		}
		price := money.New(0, cur)
		if p.MonthlyPrice != "" {
			var err error
			if price, err = money.Parse(p.MonthlyPrice, cur); err != nil {
				return nil, fmt.Errorf("%w: plan %q: %w", ErrInvalidPlan, slug, err)
			}
		}
		if price.Amount < 0 {
			return nil, fmt.Errorf("%w: plan %q has a negative price", ErrInvalidPlan, slug)
		}
		plans = append(plans, Plan{
			Slug:            slug,
			Name:            p.Name,
			MonthlyPrice:    price,
			ExternalPlanRef: p.ExternalPlanRef,
		})
	}
	return NewInMemPlanSource(plans...), nil
}

// LoadYAMLPlanFile reads a YAML plan table from path.
func LoadYAMLPlanFile(path, defaultCurrency string) (PlanSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	defer func() { _ = f.Close() }()
	return NewYAMLPlanSource(f, defaultCurrency)
}

// PriceTable resolves plan prices by slug. The table is loaded once, lazily.
type PriceTable struct {
	source PlanSource
	once   sync.Once
	plans  map[string]Plan
	err    error
}

func NewPriceTable(source PlanSource) *PriceTable {
	return &PriceTable{source: source}
}

func (t *PriceTable) load(ctx context.Context) error {
	t.once.Do(func() {
		plans, err := t.source.Load(ctx)
		if err != nil {
			t.err = errors.Join(ErrFailedToLoadPlans, err)
			return
		}
		t.plans = plans
	})
	return t.err
}

// Plan returns the plan for slug. Unknown slugs return a zero-priced plan
// named after the slug and false.
func (t *PriceTable) Plan(ctx context.Context, slug string) (Plan, bool, error) {
	if err := t.load(ctx); err != nil {
		return Plan{}, false, err
	}
	if p, ok := t.plans[slug]; ok {
		return p, true, nil
	}
	return Plan{Slug: slug, Name: slug, MonthlyPrice: money.New(0, "")}, false, nil
}

// Price returns the monthly price for slug, zero when the plan is unknown.
func (t *PriceTable) Price(ctx context.Context, slug string) (money.Money, error) {
	p, _, err := t.Plan(ctx, slug)
	if err != nil {
		return money.Money{}, err
	}
	return p.MonthlyPrice, nil
}
