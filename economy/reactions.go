package economy

// Rule is one plain data record in the reaction rule table. Dispatch is a
// scan in priority order; rule kinds are never modeled as a subtype
// hierarchy — distinctions belong in Requirements.
type Rule struct {
	Name     string
	Inputs   map[string]float32 // resource -> amount consumed at rate 1
	Outputs  map[string]float32 // inventory key -> amount produced at rate 1
	Rate     float32
	Priority int
	LaborCost float32

	Requirements Requirements
}

// Requirements gates whether a rule may fire in a cell.
type Requirements struct {
	MinLabor         float32
	BuildingPresent  bool
	MinPopulation    float32
	FieldThreshold   map[string]float32 // resource -> minimum value required
}

// CellState is the read-only view of one cell's economy-relevant state
// that rules are evaluated against.
type CellState struct {
	Resources     map[string]float32
	Population    float32
	BuildingHere  bool
	Labor         float32
}

// Delta is the net effect of one rule firing in a cell; the engine never
// mutates external state directly, so callers apply deltas themselves.
type Delta struct {
	Rule           string
	ResourceDeltas map[string]float32 // resource -> signed change (consumed is negative)
	InventoryGains map[string]float32 // inventory key -> amount produced
	LaborSpent     float32
}

// ReactionEngine holds an ordered rule table and evaluates it against one
// cell's state, stopping once the cell's labor budget is exhausted.
type ReactionEngine struct {
	Rules []Rule
}

// NewReactionEngine builds an engine from rules already sorted, or not —
// Run sorts a local copy by priority ascending before walking it.
func NewReactionEngine(rules []Rule) *ReactionEngine {
	return &ReactionEngine{Rules: rules}
}

func satisfiesInputs(rule Rule, res map[string]float32) bool {
	for resource, amount := range rule.Inputs {
		if res[resource] < amount*rule.Rate {
			return false
		}
	}
	return true
}

func satisfiesRequirements(req Requirements, cell CellState) bool {
	if cell.Labor < req.MinLabor {
		return false
	}
	if req.BuildingPresent && !cell.BuildingHere {
		return false
	}
	if cell.Population < req.MinPopulation {
		return false
	}
	for resource, threshold := range req.FieldThreshold {
		if cell.Resources[resource] < threshold {
			return false
		}
	}
	return true
}

// Run walks the rule table in (priority asc, declaration order) and
// applies every rule whose inputs and requirements are satisfied against
// a running local copy of the cell's resources and labor, stopping once
// labor is exhausted. It returns the accumulated deltas; cell itself is
// never mutated.
func (e *ReactionEngine) Run(cell CellState) []Delta {
	ordered := make([]Rule, len(e.Rules))
	copy(ordered, e.Rules)
	sortRulesByPriority(ordered)

	res := make(map[string]float32, len(cell.Resources))
	for k, v := range cell.Resources {
		res[k] = v
	}
	laborRemaining := cell.Labor

	var deltas []Delta
	for _, rule := range ordered {
		if laborRemaining <= 0 {
			break
		}
		working := cell
		working.Resources = res
		working.Labor = laborRemaining

		if !satisfiesInputs(rule, res) || !satisfiesRequirements(rule.Requirements, working) {
			continue
		}
		if rule.LaborCost > laborRemaining {
			continue
		}

		resourceDeltas := make(map[string]float32, len(rule.Inputs))
		for resource, amount := range rule.Inputs {
			consumed := amount * rule.Rate
			res[resource] -= consumed
			resourceDeltas[resource] = -consumed
		}
		inventoryGains := make(map[string]float32, len(rule.Outputs))
		for key, amount := range rule.Outputs {
			produced := amount * rule.Rate
			inventoryGains[key] = produced
		}
		laborRemaining -= rule.LaborCost

		deltas = append(deltas, Delta{
			Rule:           rule.Name,
			ResourceDeltas: resourceDeltas,
			InventoryGains: inventoryGains,
			LaborSpent:     rule.LaborCost,
		})
	}
	return deltas
}

// sortRulesByPriority is a plain insertion sort: rule tables are small
// (tens of entries at most), so this avoids pulling in sort for a
// stability guarantee sort.Slice doesn't make on its own.
func sortRulesByPriority(rules []Rule) {
	for i := 1; i < len(rules); i++ {
		j := i
		for j > 0 && rules[j-1].Priority > rules[j].Priority {
			rules[j-1], rules[j] = rules[j], rules[j-1]
			j--
		}
	}
}

// GatherFoodRule is the default food-gathering rule, grounded on the
// concrete scenario: consumes 0.2 field food, produces 0.15 inventory
// food at a labor cost of 0.01 (conservative output <= consumed*efficiency,
// per the adopted open-question policy).
func GatherFoodRule() Rule {
	return Rule{
		Name:      "gather_food",
		Inputs:    map[string]float32{"food": 0.2},
		Outputs:   map[string]float32{"food": 0.15},
		Rate:      1,
		Priority:  0,
		LaborCost: 0.01,
		Requirements: Requirements{
			FieldThreshold: map[string]float32{"food": 0.2},
		},
	}
}
