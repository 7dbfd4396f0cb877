// cmd/velac is the CLI driver spec.md §6 summarizes: "build / run with
// flags for target triple, optimization level, target directory, and lib
// name; exit code 0 on success, non-zero otherwise." Grounded on the
// teacher's cmd/sentra/main.go: a hand-rolled os.Args switch with a
// command-alias map, no flag-parsing library, plain fmt/log output.
package main

import (
	"fmt"
	"log"
	"os"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"b": "build",
	"r": "run",
	"l": "lex",
	"v": "version",
	"h": "help",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}
	rest := args[1:]

	var err error
	switch cmd {
	case "build":
		err = buildCommand(rest)
	case "run":
		err = runCommand(rest)
	case "lex":
		err = lexCommand(rest)
	case "version", "--version", "-v":
		fmt.Println("velac", version)
		return
	case "help", "--help", "-h":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "velac: unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Printf("velac: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`velac — layout lexer, type inferencer, and MIR lowering

Usage:
  velac build [dir] [--target triple] [--opt level] [--lib name] [--dump-tokens]
  velac run   [dir] [--target triple] [--opt level] [--lib name]
  velac lex   <file>
  velac version
  velac help

Aliases: b=build, r=run, l=lex, v=version, h=help`)
}
