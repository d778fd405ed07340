package tool

import (
	"fmt"
	"reflect"

	"github.com/casualjim/swekit/pkg/reflectx"
	"github.com/casualjim/swekit/pkg/stdx"
	"github.com/casualjim/swekit/types"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition describes a function an agent may call.
//
// Parameters maps positional keys ("param0", "param1", ...) to the names the model
// sees. Positions count only the arguments the model supplies: context.Context and
// types.ContextVars parameters are filled in by the executor and are skipped.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Function    any
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema returns the tool name and the JSON schema of its arguments object.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	return td.Name, argumentsSchema(&functionReflector, td)
}

// IsInjected reports whether a parameter of this type is supplied by the runtime
// rather than by the model.
func IsInjected(paramType reflect.Type) bool {
	return reflectx.IsContext(paramType) || reflectx.IsRefinedType[types.ContextVars](paramType)
}

// ArgumentNames lists the argument names the model provides, in call order.
func (td Definition) ArgumentNames() []string {
	typ := reflect.TypeOf(td.Function)
	if typ == nil || typ.Kind() != reflect.Func {
		return nil
	}

	var names []string
	for i := 0; i < typ.NumIn(); i++ {
		if IsInjected(typ.In(i)) {
			continue
		}
		key := fmt.Sprintf("param%d", len(names))
		if p, ok := td.Parameters[key]; ok {
			key = p
		}
		names = append(names, key)
	}
	return names
}

func argumentsSchema(reflector *jsonschema.Reflector, f Definition) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	typ := reflect.TypeOf(f.Function)
	if typ == nil || typ.Kind() != reflect.Func {
		return schema
	}

	names := f.ArgumentNames()
	var idx int
	for i := 0; i < typ.NumIn(); i++ {
		paramType := typ.In(i)
		if IsInjected(paramType) {
			continue
		}

		propSchema := reflector.ReflectFromType(paramType)
		propSchema.Version = ""
		schema.Properties.Set(names[idx], propSchema)
		idx++
	}
	if len(names) > 0 {
		schema.Required = names
	}
	return schema
}

// Option configures a Definition.
type Option = opts.Option[Definition]

// Must is New that panics on error.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New creates a Definition for f. Without a Name option the name is derived
// from the function.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

// Name sets the tool name.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the description shown to the model.
var Description = opts.ForName[Definition, string]("Description")

// Parameters names the model supplied arguments in order.
func Parameters(parameters ...string) opts.Option[Definition] {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}
