// Package rescue proposes alternative plans for goals that are not on track.
package rescue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/idhash"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/pv"
)

// Simulator runs a Monte Carlo simulation. Satisfied by *montecarlo.Engine.
type Simulator interface {
	Simulate(ctx context.Context, p montecarlo.Params, opts montecarlo.Options) (*montecarlo.Outcome, error)
}

// Request describes the goal state to rescue.
type Request struct {
	Goal              *domain.Goal
	CurrentAllocation float64
	Status            domain.Status
	// Seed, when set, is shared by every archetype. Otherwise each archetype
	// derives its seed from the goal parameters and its name.
	Seed *uint64
}

// archetype is one alternative plan: an optional new mix and extra years.
type archetype struct {
	name       string
	mix        *Mix
	extraYears float64
}

// Generator evaluates the rescue archetypes for a goal.
type Generator struct {
	sim    Simulator
	policy Policy
}

// NewGenerator creates a Generator.
func NewGenerator(sim Simulator, policy Policy) *Generator {
	return &Generator{sim: sim, policy: policy}
}

// Policy returns the policy in use.
func (g *Generator) Policy() Policy {
	return g.policy
}

// Generate returns the rescue strategies for req, sorted by ascending
// volatility and then by archetype order. An ON_TRACK goal gets an empty list.
//
// Archetypes are evaluated concurrently; any failure aborts the whole set.
func (g *Generator) Generate(ctx context.Context, req Request) ([]domain.RescueStrategy, error) {
	if req.Goal == nil {
		return nil, domain.NewValidationError("goal", "must not be nil")
	}
	if req.Status == domain.StatusOnTrack {
		return []domain.RescueStrategy{}, nil
	}
	if err := req.Goal.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateNonNegative("current_allocation", req.CurrentAllocation); err != nil {
		return nil, err
	}

	archetypes := g.archetypes()
	paramsHash := idhash.ComputeParamsHash(
		req.Goal.TargetAmount,
		req.Goal.YearsUntilDue,
		req.Goal.ExpectedReturn,
		req.Goal.Volatility,
		req.Goal.MonthlyContribution,
	)

	results := make([]domain.RescueStrategy, len(archetypes))
	eg, egctx := errgroup.WithContext(ctx)
	for i, a := range archetypes {
		seed := idhash.DeriveSeed(paramsHash, strconv.FormatFloat(req.CurrentAllocation, 'g', -1, 64), a.name)
		if req.Seed != nil {
			seed = *req.Seed
		}
		eg.Go(func() error {
			s, err := g.evaluate(egctx, req, a, seed)
			if err != nil {
				return fmt.Errorf("rescue %s: %w", a.name, err)
			}
			results[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// results is in archetype order; a stable sort keeps it for equal volatility.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].NewVolatility < results[j].NewVolatility
	})
	return results, nil
}

func (g *Generator) archetypes() []archetype {
	out := []archetype{{name: "Increase SIP"}}
	for i := range g.policy.Mixes {
		m := g.policy.Mixes[i]
		out = append(out, archetype{name: m.Name, mix: &m})
	}
	if g.policy.AllowExtend {
		out = append(out, archetype{name: "Extend Horizon", extraYears: g.policy.ExtendYears})
	}
	return out
}

func (g *Generator) evaluate(ctx context.Context, req Request, a archetype, seed uint64) (domain.RescueStrategy, error) {
	goal := req.Goal
	ret, vol := goal.ExpectedReturn, goal.Volatility
	if a.mix != nil {
		ret, vol = a.mix.ExpectedReturn, a.mix.Volatility
	}
	years := goal.YearsUntilDue + a.extraYears

	feasible := true
	sip, err := pv.RequiredMonthlyContribution(goal.TargetAmount, years, ret, req.CurrentAllocation)
	contribution := sip
	if errors.Is(err, domain.ErrInfeasible) {
		feasible = false
		sip = 0
		contribution = goal.MonthlyContribution
	} else if err != nil {
		return domain.RescueStrategy{}, err
	}

	out, err := g.sim.Simulate(ctx, montecarlo.Params{
		CurrentAllocation:   req.CurrentAllocation,
		MonthlyContribution: contribution,
		Years:               years,
		ExpectedReturn:      ret,
		Volatility:          vol,
		TargetAmount:        goal.TargetAmount,
		NumPaths:            g.policy.NumPaths,
	}, montecarlo.Options{Seed: &seed})
	if err != nil {
		return domain.RescueStrategy{}, err
	}

	return domain.RescueStrategy{
		Name:               a.name,
		RiskLevel:          g.policy.RiskLevel(vol),
		NewExpectedReturn:  ret,
		NewVolatility:      vol,
		YearsUntilDue:      years,
		RequiredMonthlySIP: sip,
		Feasible:           feasible,
		SuccessProbability: out.SuccessProbability,
		Description:        describe(a, ret, vol, years, sip, feasible),
	}, nil
}

func describe(a archetype, ret, vol, years, sip float64, feasible bool) string {
	if !feasible {
		return fmt.Sprintf("%s is not achievable: no contribution months remain.", a.name)
	}
	switch {
	case a.mix != nil:
		return fmt.Sprintf("Switch to the %s allocation (%.1f%% return, %.1f%% volatility) and invest %.2f per month.",
			a.name, ret*100, vol*100, sip)
	case a.extraYears > 0:
		return fmt.Sprintf("Extend the due date by %g years to %g years and invest %.2f per month.",
			a.extraYears, years, sip)
	default:
		return fmt.Sprintf("Raise the monthly SIP to %.2f at the current %.1f%% return, %.1f%% volatility mix.",
			sip, ret*100, vol*100)
	}
}
