package aspect

import (
	"fmt"

	"able/aspect-go/pkg/runtime"
)

// ParameterDescriptor is one parameter of a call with the value bound to it.
// Variadic parameters expand into one descriptor per actual element: positional
// extras are named "1. argument", "2. argument", ... and keyword extras carry
// their keyword.
type ParameterDescriptor struct {
	Name       string
	Kind       runtime.ParamKind
	HasDefault bool
	Default    any
	Type       string
	Value      any
}

// BindArguments maps positional and keyword actuals onto sig, the way the
// callable itself would: positional arguments fill positional parameters in
// order, surplus ones go to the variadic positional parameter, keywords fill
// the parameter of that name or the variadic keyword parameter, and missing
// parameters take their defaults. name labels errors.
func BindArguments(name string, sig *runtime.Signature, args []any, kwargs *runtime.Kwargs) ([]ParameterDescriptor, error) {
	var params []runtime.Parameter
	if sig != nil {
		params = sig.Params
	}
	values := make([]any, len(params))
	bound := make([]bool, len(params))
	var (
		extraArgs   []any
		extraKwargs *runtime.Kwargs
		varKwargsAt = -1
	)

	next := 0
	positionalSlots := 0
	for i, p := range params {
		switch p.Kind {
		case runtime.ParamPositional:
			positionalSlots++
			if next < len(args) {
				values[i] = args[next]
				bound[i] = true
				next++
			}
		case runtime.ParamVarPositional:
			if next < len(args) {
				extraArgs = append(extraArgs, args[next:]...)
				next = len(args)
			}
		case runtime.ParamVarKeyword:
			varKwargsAt = i
		}
	}
	if next < len(args) {
		return nil, &BindingError{
			Function: name,
			Reason:   fmt.Sprintf("takes %d positional argument%s but %d were given", positionalSlots, plural(positionalSlots), len(args)),
		}
	}

	var kwErr error
	kwargs.Each(func(key string, value any) {
		if kwErr != nil {
			return
		}
		if p, idx, ok := sig.Lookup(key); ok && (p.Kind == runtime.ParamPositional || p.Kind == runtime.ParamKeyword) {
			if bound[idx] {
				kwErr = &BindingError{Function: name, Reason: fmt.Sprintf("got multiple values for argument '%s'", key)}
				return
			}
			values[idx] = value
			bound[idx] = true
			return
		}
		if varKwargsAt < 0 {
			kwErr = &BindingError{Function: name, Reason: fmt.Sprintf("got an unexpected keyword argument '%s'", key)}
			return
		}
		if extraKwargs == nil {
			extraKwargs = runtime.NewKwargs()
		}
		extraKwargs.Set(key, value)
	})
	if kwErr != nil {
		return nil, kwErr
	}

	descriptors := make([]ParameterDescriptor, 0, len(params)+len(extraArgs)+extraKwargs.Len())
	for i, p := range params {
		switch p.Kind {
		case runtime.ParamVarPositional:
			for k, v := range extraArgs {
				descriptors = append(descriptors, ParameterDescriptor{
					Name:  fmt.Sprintf("%d. argument", k+1),
					Kind:  p.Kind,
					Type:  p.Type,
					Value: v,
				})
			}
		case runtime.ParamVarKeyword:
			extraKwargs.Each(func(key string, v any) {
				descriptors = append(descriptors, ParameterDescriptor{
					Name:  key,
					Kind:  p.Kind,
					Type:  p.Type,
					Value: v,
				})
			})
		default:
			value := values[i]
			if !bound[i] {
				if !p.HasDefault {
					return nil, &BindingError{Function: name, Reason: fmt.Sprintf("missing required argument '%s'", p.Name)}
				}
				value = p.Default
			}
			descriptors = append(descriptors, ParameterDescriptor{
				Name:       p.Name,
				Kind:       p.Kind,
				HasDefault: p.HasDefault,
				Default:    p.Default,
				Type:       p.Type,
				Value:      value,
			})
		}
	}
	return descriptors, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
