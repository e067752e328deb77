package render

import (
	"fmt"
	"reflect"
)

// PluginNotRegisteredError is returned when a plugin is dispatched whose
// runtime type was never registered. It signals a wiring bug in the calling
// application; dispatch surfaces it immediately instead of silently dropping
// the content block.
type PluginNotRegisteredError struct {
	PluginType reflect.Type
}

func (e *PluginNotRegisteredError) Error() string {
	return fmt.Sprintf("render: plugin %s is not registered", typeLabel(e.PluginType))
}

func typeLabel(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
