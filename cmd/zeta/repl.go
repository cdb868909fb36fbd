package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/iankronquist/zeta/internal/vm"
)

// startREPL runs a line-at-a-time read-eval-print loop against a single
// VM instance. Each line is evaluated as its own top-level unit, so only global bindings
// persist across lines, not locals -- the CLI is explicitly outside this
// core's scope, so this is a convenience driver, not a
// contract.
func startREPL(v *vm.VM) {
	fmt.Println("zeta | type 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}

		val, err := v.Run([]byte(line), "repl")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println(v.Format(val))
	}
}
