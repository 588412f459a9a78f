// Package registry holds the pattern catalog: for each playground
// pattern, its display metadata, ordered execution steps, and the
// actions it supports. The catalog is seeded with built-in definitions
// and can be overlaid from a YAML file.
package registry

import (
	"sync"

	"github.com/patternlab/patternlab/internal/simulator"
)

// StepStatus annotates an execution step in a dispatch response.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
)

// ExecutionStep is one pedagogical step in a pattern's walkthrough.
// Status is filled in per response; the registry stores steps with
// StepPending.
type ExecutionStep struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Explanation string     `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	CodeLines   []int      `json:"codeLines,omitempty" yaml:"codeLines,omitempty"`
	Status      StepStatus `json:"status" yaml:"-"`
}

// ActionInfo describes one action a pattern supports and how far the
// step animation advances when it runs. The progression is cosmetic
// pacing for the UI, not an execution state machine.
type ActionInfo struct {
	Name           string `json:"name" yaml:"name"`
	Label          string `json:"label,omitempty" yaml:"label,omitempty"`
	CompletedSteps int    `json:"completedSteps" yaml:"completedSteps"`
}

// PatternInfo holds everything the playground knows about one pattern.
type PatternInfo struct {
	Category    string          `json:"category" yaml:"category"`
	Slug        string          `json:"slug" yaml:"slug"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description"`
	Kind        simulator.Kind  `json:"kind" yaml:"kind"`
	Steps       []ExecutionStep `json:"steps" yaml:"steps"`
	Actions     []ActionInfo    `json:"actions" yaml:"actions"`
	Code        string          `json:"code,omitempty" yaml:"code,omitempty"`
}

// Key returns the pattern's catalog key.
func (p *PatternInfo) Key() string {
	return p.Category + "/" + p.Slug
}

// Action looks an action definition up by name.
func (p *PatternInfo) Action(name string) (ActionInfo, bool) {
	for _, a := range p.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return ActionInfo{}, false
}

// AnnotatedSteps returns a copy of the pattern's steps with the first
// completed steps marked StepCompleted and the rest StepPending.
func (p *PatternInfo) AnnotatedSteps(completed int) []ExecutionStep {
	steps := make([]ExecutionStep, len(p.Steps))
	copy(steps, p.Steps)
	for i := range steps {
		if i < completed {
			steps[i].Status = StepCompleted
		} else {
			steps[i].Status = StepPending
		}
	}
	return steps
}

// PatternRegistry is the thread-safe pattern catalog.
type PatternRegistry struct {
	mutex    sync.RWMutex
	patterns map[string]*PatternInfo
	order    []string
}

// NewPatternRegistry creates a catalog seeded with the built-in
// pattern definitions.
func NewPatternRegistry() *PatternRegistry {
	r := &PatternRegistry{patterns: make(map[string]*PatternInfo)}
	for _, p := range builtinPatterns() {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a pattern definition.
func (r *PatternRegistry) Register(pattern *PatternInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range pattern.Steps {
		if pattern.Steps[i].Status == "" {
			pattern.Steps[i].Status = StepPending
		}
	}

	key := pattern.Key()
	if _, exists := r.patterns[key]; !exists {
		r.order = append(r.order, key)
	}
	r.patterns[key] = pattern
}

// Get retrieves a pattern by category and slug.
func (r *PatternRegistry) Get(category, slug string) (*PatternInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	pattern, exists := r.patterns[category+"/"+slug]
	return pattern, exists
}

// GetAll returns every registered pattern in registration order.
func (r *PatternRegistry) GetAll() []*PatternInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*PatternInfo, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.patterns[key])
	}
	return result
}

// Count returns the number of registered patterns.
func (r *PatternRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.patterns)
}
