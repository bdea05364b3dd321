package main

import (
	"fmt"
	"os"
	"strings"
)

func runMatch(args []string, flags globalFlags) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "weave match expects a manifest path and at least one qualified name")
		return 1
	}
	s, err := openSession(args[0], flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer s.close()

	if s.config.Optimized {
		fmt.Fprintln(os.Stderr, "note: optimized mode is on; matched advice will not run")
	}
	for _, name := range args[1:] {
		matched := s.registry.Matching(name)
		labels := make([]string, 0, len(matched))
		for _, a := range matched {
			labels = append(labels, a.String())
		}
		if len(labels) == 0 {
			fmt.Fprintf(os.Stdout, "%s: no aspects\n", name)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: %s\n", name, strings.Join(labels, ", "))
	}
	return 0
}
