package main

import (
	"fmt"
	"os"
	"strings"
)

func runCheck(args []string, flags globalFlags) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "weave check expects exactly one manifest path")
		return 1
	}
	s, err := openSession(args[0], flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer s.close()

	for i, a := range s.aspects {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("aspects[%d]", i)
		}
		spec := s.specs[i]
		uses := make([]string, 0, len(spec.Advice))
		for _, adv := range spec.Advice {
			label := adv.Event + ":" + adv.Use
			if adv.Arg != "" {
				label += "(" + adv.Arg + ")"
			}
			uses = append(uses, label)
		}
		fmt.Fprintf(os.Stdout, "%-16s %-24s %s\n", name, a.Pattern(), strings.Join(uses, " "))
	}
	fmt.Fprintf(os.Stdout, "ok: %d aspect(s), %d source(s) (%d loaded), optimized=%t\n",
		len(s.aspects), len(s.manifest.Sources), len(s.sources), s.config.Optimized)
	return 0
}
