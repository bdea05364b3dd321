package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"able/aspect-go/pkg/aspect"
	"able/aspect-go/pkg/runtime"
)

// demoFunctions are the callables `weave call` can exercise a manifest
// against.
func demoFunctions() map[string]*runtime.FunctionValue {
	fns := []*runtime.FunctionValue{
		{
			Module: "demo",
			Name:   "add",
			Params: runtime.MustSignature(runtime.Param("a").Typed("int"), runtime.Param("b").Typed("int")),
			Impl: func(args []any, _ *runtime.Kwargs) (any, error) {
				a, okA := args[0].(int)
				b, okB := args[1].(int)
				if !okA || !okB {
					return nil, fmt.Errorf("add expects integers, got %v and %v", args[0], args[1])
				}
				return a + b, nil
			},
		},
		{
			Module: "demo",
			Name:   "greet",
			Params: runtime.MustSignature(runtime.Param("name"), runtime.Param("title").WithDefault(runtime.None)),
			Impl: func(args []any, kwargs *runtime.Kwargs) (any, error) {
				name := fmt.Sprint(args[0])
				title, ok := kwargs.Get("title")
				if len(args) > 1 {
					title, ok = args[1], true
				}
				if ok && !runtime.IsNone(title) {
					name = fmt.Sprint(title) + " " + name
				}
				return "hello " + name, nil
			},
		},
		{
			Module: "demo",
			Name:   "join",
			Params: runtime.MustSignature(runtime.VarArgs("parts"), runtime.KeywordParam("sep").WithDefault(" ")),
			Impl: func(args []any, kwargs *runtime.Kwargs) (any, error) {
				sep := " "
				if v, ok := kwargs.Get("sep"); ok {
					sep = fmt.Sprint(v)
				}
				parts := make([]string, len(args))
				for i, a := range args {
					parts[i] = fmt.Sprint(a)
				}
				return strings.Join(parts, sep), nil
			},
		},
	}
	out := make(map[string]*runtime.FunctionValue, len(fns))
	for _, fn := range fns {
		out[fn.QualifiedName()] = fn
	}
	return out
}

func runCall(args []string, flags globalFlags) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "weave call expects a manifest path and a function name")
		return 1
	}
	fns := demoFunctions()
	fn, ok := fns[args[1]]
	if !ok {
		names := make([]string, 0, len(fns))
		for name := range fns {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(os.Stderr, "unknown function %q (available: %s)\n", args[1], strings.Join(names, ", "))
		return 1
	}
	s, err := openSession(args[0], flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer s.close()

	positional, kwargs := parseCallArgs(args[2:])
	jp := aspect.Wrap(fn, aspect.WithRegistry(s.registry), aspect.WithLogger(s.log))
	result, err := jp.Call(positional, kwargs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintln(os.Stdout, formatValue(result))
	return 0
}

func parseCallArgs(args []string) ([]any, *runtime.Kwargs) {
	positional := make([]any, 0, len(args))
	kwargs := runtime.NewKwargs()
	for _, arg := range args {
		if name, value, ok := strings.Cut(arg, "="); ok && name != "" {
			kwargs.Set(name, parseScalar(value))
			continue
		}
		positional = append(positional, parseScalar(arg))
	}
	return positional, kwargs
}

func parseScalar(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if strings.EqualFold(raw, "none") {
		return runtime.None
	}
	return raw
}

func formatValue(v any) string {
	if runtime.IsNone(v) {
		return "None"
	}
	return fmt.Sprint(v)
}
