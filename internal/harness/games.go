package harness

import (
	"fmt"
	"sort"

	"github.com/roach88/turnstile/internal/ruleset/skirmish"
)

// Factory builds a Runner from a scenario's rule-set options.
type Factory func(options map[string]int) (Runner, error)

var builtin = map[string]Factory{
	skirmish.Name: Skirmish,
}

// RuleSets lists the rule-sets scenarios can name.
func RuleSets() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes a scenario against the rule-set it names.
func Run(scenario *Scenario) (*Result, error) {
	factory, ok := builtin[scenario.RuleSet]
	if !ok {
		return nil, fmt.Errorf("unknown ruleset %q (known: %v)", scenario.RuleSet, RuleSets())
	}
	runner, err := factory(scenario.Options)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", scenario.RuleSet, err)
	}
	return runner.Run(scenario)
}

// Skirmish builds the skirmish runner. Options: target, hand_limit.
func Skirmish(options map[string]int) (Runner, error) {
	var opts []skirmish.Option
	for key, v := range options {
		switch key {
		case "target":
			opts = append(opts, skirmish.WithTarget(v))
		case "hand_limit":
			opts = append(opts, skirmish.WithHandLimit(v))
		default:
			return nil, fmt.Errorf("unknown option %q", key)
		}
	}

	rules := skirmish.New(opts...)
	cfg, err := rules.Config()
	if err != nil {
		return nil, err
	}
	return Game[skirmish.State]{
		Config:   cfg,
		Registry: rules.Registry(),
		Options:  rules.CurrentOptions,
		Score:    rules.Score,
	}, nil
}
