// Command zeta reads a source file and evaluates it, printing the value
// of its final expression. The CLI itself is outside this core's scope
//; this is the thinnest possible driver that satisfies the
// "source loader" collaborator: a complete source text
// and a display name.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/iankronquist/zeta/internal/vm"
)

func main() {
	if len(os.Args) == 1 {
		startREPL(vm.New())
		return
	}
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [source-file]\n", os.Args[0])
		os.Exit(1)
	}

	path := os.Args[1]
	src, err := os.ReadFile(path)
	if err != nil {
		log.Printf("reading %s: %v", path, err)
		os.Exit(1)
	}

	v := vm.New()
	val, err := v.Run(src, path)
	if err != nil {
		log.Printf("%s: %v", path, err)
		os.Exit(1)
	}

	fmt.Println(v.Format(val))
}
