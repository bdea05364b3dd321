package main

import (
	"fmt"
	"strconv"
	"strings"
)

type globalFlags struct {
	optimized    bool
	optimizedSet bool
	cache        string
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			remaining = append(remaining, args[i+1:]...)
			break
		}
		switch {
		case arg == "--optimized":
			flags.optimized = true
			flags.optimizedSet = true
		case strings.HasPrefix(arg, "--optimized="):
			value := strings.TrimPrefix(arg, "--optimized=")
			on, err := strconv.ParseBool(value)
			if err != nil {
				return flags, nil, fmt.Errorf("unknown --optimized value '%s' (expected true or false)", value)
			}
			flags.optimized = on
			flags.optimizedSet = true
		case arg == "--cache":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("--cache expects a directory")
			}
			flags.cache = args[i+1]
			i++
		case strings.HasPrefix(arg, "--cache="):
			flags.cache = strings.TrimPrefix(arg, "--cache=")
			if flags.cache == "" {
				return flags, nil, fmt.Errorf("--cache expects a directory")
			}
		default:
			remaining = append(remaining, arg)
		}
	}
	return flags, remaining, nil
}
