package generator

import (
	"fmt"
	"sort"
)

// StageGraph orders stages so every stage runs after the stages whose
// tables it reads.
type StageGraph struct {
	deps  map[string][]string
	order []string
}

func NewStageGraph() *StageGraph {
	return &StageGraph{
		deps: make(map[string][]string),
	}
}

func (g *StageGraph) AddStage(name string, dependencies ...string) {
	g.deps[name] = dependencies
}

// BuildOrder returns a topological order. Ties are broken by name so the
// result does not depend on map iteration.
func (g *StageGraph) BuildOrder() ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(name string) error {
		if temp[name] {
			return fmt.Errorf("circular dependency detected involving stage: %s", name)
		}
		if visited[name] {
			return nil
		}
		deps, ok := g.deps[name]
		if !ok {
			return fmt.Errorf("unknown stage: %s", name)
		}

		temp[name] = true
		for _, dep := range deps {
			if dep == name {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		temp[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(g.deps))
	for name := range g.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	g.order = order
	return order, nil
}

func (g *StageGraph) GetOrder() []string {
	return g.order
}
