package support

import (
	"testing"

	"github.com/project-flogo/core/data"
	"github.com/stretchr/testify/assert"
)

func TestCaseResolver(t *testing.T) {
	scope := data.NewSimpleScope(map[string]interface{}{"key": "value"}, nil)
	caseResolver := &CaseResolver{}

	assert.NotNil(t, caseResolver.GetResolverInfo())
	val, err := caseResolver.Resolve(scope, "", "key")
	assert.Nil(t, err)
	assert.Equal(t, "value", val.(string))

	_, err = caseResolver.Resolve(scope, "", "missing")
	assert.NotNil(t, err)
}

func TestOutputResolver(t *testing.T) {
	outputs := map[string]interface{}{"total": 3}
	scope := data.NewSimpleScope(map[string]interface{}{"Review": outputs}, nil)

	outputResolver := &OutputResolver{}
	assert.NotNil(t, outputResolver.GetResolverInfo())

	val, err := outputResolver.Resolve(scope, "Review", "")
	assert.Nil(t, err)
	assert.Equal(t, outputs, val)

	val, err = outputResolver.Resolve(scope, "Review", "total")
	assert.Nil(t, err)
	assert.Equal(t, 3, val)

	_, err = outputResolver.Resolve(scope, "Approve", "")
	assert.NotNil(t, err)
}

func TestGetCaseResolver(t *testing.T) {
	t.Setenv("WORKFLOW_REGION", "eu")
	scope := data.NewSimpleScope(map[string]interface{}{"key": "value"}, nil)

	val, err := GetCaseResolver().Resolve("$case.key", scope)
	assert.Nil(t, err)
	assert.Equal(t, "value", val)

	val, err = GetCaseResolver().Resolve("$.key", scope)
	assert.Nil(t, err)
	assert.Equal(t, "value", val)

	val, err = GetCaseResolver().Resolve("$env[WORKFLOW_REGION]", scope)
	assert.Nil(t, err)
	assert.Equal(t, "eu", val)

	_, err = GetCaseResolver().Resolve("$property[name]", scope)
	assert.NotNil(t, err, "app properties are not resolvable from a case")
}
