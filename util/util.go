package util

import (
	"github.com/mohae/deepcopy"
	"github.com/project-flogo/core/data/coerce"
)

func DeepCopy(data interface{}) interface{} {
	return deepcopy.Copy(data)
}

// DeepCopyMap returns a deep copy of the specified map, nil for a nil map
func DeepCopyMap(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	copiedData := deepcopy.Copy(data)
	copiedMap, _ := coerce.ToObject(copiedData)
	return copiedMap
}
