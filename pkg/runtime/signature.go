package runtime

import (
	"fmt"
	"strings"
)

// ParamKind classifies how a parameter accepts arguments.
type ParamKind int

const (
	// ParamPositional accepts a value by position or by name.
	ParamPositional ParamKind = iota
	// ParamKeyword accepts a value by name only.
	ParamKeyword
	// ParamVarPositional collects surplus positional arguments.
	ParamVarPositional
	// ParamVarKeyword collects surplus keyword arguments.
	ParamVarKeyword
)

// rank is the declaration position a kind must respect in a signature.
func (k ParamKind) rank() int {
	switch k {
	case ParamPositional:
		return 0
	case ParamVarPositional:
		return 1
	case ParamKeyword:
		return 2
	case ParamVarKeyword:
		return 3
	default:
		return -1
	}
}

func (k ParamKind) String() string {
	switch k {
	case ParamPositional:
		return "positional"
	case ParamKeyword:
		return "keyword"
	case ParamVarPositional:
		return "var_positional"
	case ParamVarKeyword:
		return "var_keyword"
	default:
		return fmt.Sprintf("unknown_param_kind_%d", int(k))
	}
}

// Parameter is the static description of one declared parameter.
type Parameter struct {
	Name       string
	Kind       ParamKind
	HasDefault bool
	Default    any
	Type       string
}

// Param declares a positional-or-keyword parameter.
func Param(name string) Parameter { return Parameter{Name: name, Kind: ParamPositional} }

// KeywordParam declares a keyword-only parameter.
func KeywordParam(name string) Parameter { return Parameter{Name: name, Kind: ParamKeyword} }

// VarArgs declares the variadic positional parameter.
func VarArgs(name string) Parameter { return Parameter{Name: name, Kind: ParamVarPositional} }

// VarKwargs declares the variadic keyword parameter.
func VarKwargs(name string) Parameter { return Parameter{Name: name, Kind: ParamVarKeyword} }

// WithDefault returns a copy of p carrying a default value.
func (p Parameter) WithDefault(v any) Parameter {
	p.HasDefault = true
	p.Default = v
	return p
}

// Typed returns a copy of p carrying a declared type name.
func (p Parameter) Typed(typ string) Parameter {
	p.Type = typ
	return p
}

func (p Parameter) String() string {
	var b strings.Builder
	switch p.Kind {
	case ParamVarPositional:
		b.WriteString("*")
	case ParamVarKeyword:
		b.WriteString("**")
	}
	b.WriteString(p.Name)
	if p.Type != "" {
		b.WriteString(": ")
		b.WriteString(p.Type)
	}
	if p.HasDefault {
		fmt.Fprintf(&b, " = %v", p.Default)
	}
	return b.String()
}

// Signature is the ordered parameter list of a callable.
type Signature struct {
	Params []Parameter
}

var emptySignature = &Signature{}

// NewSignature validates parameter order: positional parameters, then the
// optional variadic positional, then keyword-only parameters, then the optional
// variadic keyword. Names must be unique and a positional parameter without a
// default may not follow one with a default.
func NewSignature(params ...Parameter) (*Signature, error) {
	seen := make(map[string]struct{}, len(params))
	last := -1
	sawDefault := false
	for i, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("signature: parameter %d has no name", i)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("signature: duplicate parameter '%s'", p.Name)
		}
		seen[p.Name] = struct{}{}
		rank := p.Kind.rank()
		if rank < 0 {
			return nil, fmt.Errorf("signature: parameter '%s' has unknown kind %d", p.Name, int(p.Kind))
		}
		variadic := p.Kind == ParamVarPositional || p.Kind == ParamVarKeyword
		if rank < last || (variadic && rank == last) {
			return nil, fmt.Errorf("signature: %s parameter '%s' out of order", p.Kind, p.Name)
		}
		last = rank
		if variadic && p.HasDefault {
			return nil, fmt.Errorf("signature: variadic parameter '%s' cannot have a default", p.Name)
		}
		if p.Kind == ParamPositional {
			if p.HasDefault {
				sawDefault = true
			} else if sawDefault {
				return nil, fmt.Errorf("signature: parameter '%s' without default follows parameter with default", p.Name)
			}
		}
	}
	out := make([]Parameter, len(params))
	copy(out, params)
	return &Signature{Params: out}, nil
}

// MustSignature is NewSignature for static declarations; it panics on error.
func MustSignature(params ...Parameter) *Signature {
	sig, err := NewSignature(params...)
	if err != nil {
		panic(err)
	}
	return sig
}

// Len reports the number of declared parameters.
func (s *Signature) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Params)
}

// Lookup finds a parameter by name.
func (s *Signature) Lookup(name string) (Parameter, int, bool) {
	if s == nil {
		return Parameter{}, -1, false
	}
	for i, p := range s.Params {
		if p.Name == name {
			return p, i, true
		}
	}
	return Parameter{}, -1, false
}

// WithoutReceiver drops a leading positional parameter, the slot an implicit
// self or cls fills. A signature whose first parameter is variadic or
// keyword-only is returned as is, since the receiver lands in the variadic.
func (s *Signature) WithoutReceiver() *Signature {
	if s == nil || len(s.Params) == 0 || s.Params[0].Kind != ParamPositional {
		return s
	}
	rest := make([]Parameter, len(s.Params)-1)
	copy(rest, s.Params[1:])
	return &Signature{Params: rest}
}

func (s *Signature) String() string {
	if s == nil {
		return "()"
	}
	parts := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		parts = append(parts, p.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
