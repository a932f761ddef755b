package seeder

import "fmt"

// DependencyGraph orders the seeding stages so every stage runs after the
// stages whose identifiers it consumes. Stages without a mutual dependency
// keep the order they were added in, so the resulting order is stable.
type DependencyGraph struct {
	stages map[string]*Stage
	names  []string
	order  []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		stages: make(map[string]*Stage),
	}
}

func (g *DependencyGraph) AddStage(stage *Stage) {
	if _, exists := g.stages[stage.Name]; !exists {
		g.names = append(g.names, stage.Name)
	}
	g.stages[stage.Name] = stage
}

func (g *DependencyGraph) Stage(name string) *Stage {
	return g.stages[name]
}

func (g *DependencyGraph) BuildInsertionOrder() ([]string, error) {
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

		temp[name] = true
		for _, dep := range g.stages[name].Dependencies {
			if dep == name {
				continue
			}
			if _, ok := g.stages[dep]; !ok {
				return fmt.Errorf("stage %s depends on unknown stage %s", name, dep)
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

	for _, name := range g.names {
		if !visited[name] {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	g.order = order
	return order, nil
}

func (g *DependencyGraph) GetOrder() []string {
	return g.order
}

// ReverseOrder is the teardown order: dependents before what they depend on.
func (g *DependencyGraph) ReverseOrder() []string {
	reversed := make([]string, len(g.order))
	for i, name := range g.order {
		reversed[len(g.order)-1-i] = name
	}
	return reversed
}
