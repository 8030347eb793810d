package util

import "sync"

var (
	validatorsMu    sync.RWMutex
	modelValidators = make(map[string]ModelValidator)
)

func RegisterModelValidator(modelName string, validator ModelValidator) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	modelValidators[modelName] = validator
}

// ModelValidator checks that a process model has behaviors for the join and split types a definition uses
type ModelValidator interface {
	SupportsJoin(joinType string) bool
	SupportsSplit(splitType string) bool
}

func GetModelValidator(modelName string) ModelValidator {
	validatorsMu.RLock()
	defer validatorsMu.RUnlock()
	return modelValidators[modelName]
}

// IsValidModel returns true if a model with the specified name has been registered
func IsValidModel(modelName string) bool {
	return GetModelValidator(modelName) != nil
}
