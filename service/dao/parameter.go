package dao

// Parameter is a named filter value passed to Service.List, e.g. to scope a
// listing to a particular tensor name or device.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter builds a Parameter; a single value is stored bare, multiple
// values as a slice.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
