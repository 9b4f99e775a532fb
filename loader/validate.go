package loader

import "fmt"

// validate checks a compiled pack for internal consistency.
func validate(p *Pack) error {
	if len(p.Tasks) == 0 {
		return fmt.Errorf("pack %q defines no tasks", p.Profile.Name)
	}
	for _, t := range p.Tasks {
		if t.Key == "" {
			return fmt.Errorf("task with empty key")
		}
		if t.Description == "" {
			return fmt.Errorf("task %q has no description", t.Key)
		}
	}
	if initial := p.Profile.InitialTask; initial != "" {
		if _, ok := p.byKey[initial]; !ok {
			return fmt.Errorf("initial_task %q is not a defined task", initial)
		}
	}
	return nil
}
