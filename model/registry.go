package model

import (
	"fmt"
	"sort"
	"sync"

	"github.com/project-flogo/workflow/util"
)

// registry holds the process models a definition can name. Every registered
// model is also exposed to the definition loader as a model validator; the
// default model answers for definitions that name no model.
type registry struct {
	mu        sync.RWMutex
	byName    map[string]*ProcessModel
	defaultPM *ProcessModel
}

var models = &registry{byName: make(map[string]*ProcessModel)}

func (r *registry) add(pm *ProcessModel) error {
	if pm == nil {
		return fmt.Errorf("process model cannot be nil")
	}
	if existing, dup := r.byName[pm.Name()]; dup && existing != pm {
		return fmt.Errorf("process model '%s' already registered", pm.Name())
	}

	r.byName[pm.Name()] = pm
	util.RegisterModelValidator(pm.Name(), pm)
	return nil
}

// Register registers a process model under its name
func Register(pm *ProcessModel) error {
	models.mu.Lock()
	defer models.mu.Unlock()
	return models.add(pm)
}

// RegisterDefault registers a process model, if needed, and makes it the
// model of definitions that do not name one
func RegisterDefault(pm *ProcessModel) error {
	models.mu.Lock()
	defer models.mu.Unlock()

	if err := models.add(pm); err != nil {
		return err
	}
	models.defaultPM = pm
	util.RegisterModelValidator("", pm)
	return nil
}

// Registered returns the names of the registered process models, sorted
func Registered() []string {
	models.mu.RLock()
	defer models.mu.RUnlock()

	names := make([]string, 0, len(models.byName))
	for name := range models.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named process model, "" returns the default model
func Get(name string) (*ProcessModel, error) {
	models.mu.RLock()
	defer models.mu.RUnlock()

	if name == "" {
		if models.defaultPM == nil {
			return nil, fmt.Errorf("no default process model registered")
		}
		return models.defaultPM, nil
	}

	pm, ok := models.byName[name]
	if !ok {
		return nil, fmt.Errorf("process model '%s' not registered", name)
	}
	return pm, nil
}

// Default returns the default process model, nil if none is registered
func Default() *ProcessModel {
	models.mu.RLock()
	defer models.mu.RUnlock()
	return models.defaultPM
}
