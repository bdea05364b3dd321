package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  weave [--optimized] [--cache <dir>] check <aspects.yml>")
	fmt.Fprintln(os.Stderr, "  weave [--optimized] [--cache <dir>] match <aspects.yml> <qualified.name> ...")
	fmt.Fprintln(os.Stderr, "  weave [--optimized] [--cache <dir>] call <aspects.yml> <demo.function> [arg ...] [name=value ...]")
	fmt.Fprintln(os.Stderr, "  weave [--cache <dir>] fetch <aspects.yml>")
	fmt.Fprintln(os.Stderr, "  weave --version")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "The cache defaults to $"+cacheEnvVar+", then the user cache directory.")
}
