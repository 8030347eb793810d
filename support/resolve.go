package support

import (
	"fmt"

	"github.com/project-flogo/core/data"
	"github.com/project-flogo/core/data/path"
	"github.com/project-flogo/core/data/resolve"
)

var caseResolver = resolve.NewCompositeResolver(map[string]resolve.Resolver{
	".":      &resolve.ScopeResolver{},
	"env":    &resolve.EnvResolver{},
	"case":   &CaseResolver{},
	"output": &OutputResolver{},
})

// GetCaseResolver returns the resolver used by predicate expressions evaluated over case variables
func GetCaseResolver() resolve.CompositeResolver {
	return caseResolver
}

var resolverInfo = resolve.NewResolverInfo(false, false)

// CaseResolver resolves a case variable: $case.name
type CaseResolver struct {
}

func (r *CaseResolver) GetResolverInfo() *resolve.ResolverInfo {
	return resolverInfo
}

func (r *CaseResolver) Resolve(scope data.Scope, itemName, valueName string) (interface{}, error) {
	value, exists := scope.GetValue(valueName)
	if !exists {
		return nil, fmt.Errorf("failed to resolve case variable: '%s', not found in case", valueName)
	}
	return value, nil
}

var dynamicItemResolver = resolve.NewResolverInfo(false, true)

// OutputResolver resolves the joined outputs of a multi-instance task stored
// under the task id: $output[task] or $output[task].path
type OutputResolver struct {
}

func (r *OutputResolver) GetResolverInfo() *resolve.ResolverInfo {
	return dynamicItemResolver
}

func (r *OutputResolver) Resolve(scope data.Scope, itemName, valueName string) (interface{}, error) {
	value, exists := scope.GetValue(itemName)
	if !exists {
		return nil, fmt.Errorf("failed to resolve outputs of task '%s', not found in case", itemName)
	}
	if valueName == "" {
		return value, nil
	}
	return path.GetValue(value, "."+valueName)
}
