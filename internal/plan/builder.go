package plan

// Builder is a fluent assembler for a Plan, following the same
// AddX/Build shape used throughout this module's plan-definition
// lineage.
type Builder struct {
	p Plan
}

// NewBuilder starts an empty Plan under the given domain.
func NewBuilder(name, domainName string) *Builder {
	return &Builder{p: Plan{Name: name, Domain: domainName}}
}

func (b *Builder) Description(desc string) *Builder {
	b.p.Description = desc
	return b
}

func (b *Builder) AddStep(step Step) *Builder {
	b.p.Steps = append(b.p.Steps, step)
	return b
}

func (b *Builder) Build() Plan {
	return b.p
}

// StepBuilder assembles one Step.
type StepBuilder struct {
	s Step
}

func NewStepBuilder(label, command string) *StepBuilder {
	return &StepBuilder{s: Step{Label: label, Command: command}}
}

func (b *StepBuilder) Args(args ...string) *StepBuilder {
	b.s.Args = args
	return b
}

func (b *StepBuilder) DependsOn(labels ...string) *StepBuilder {
	b.s.DependsOn = labels
	return b
}

func (b *StepBuilder) Description(desc string) *StepBuilder {
	b.s.Description = desc
	return b
}

func (b *StepBuilder) Build() Step {
	return b.s
}
