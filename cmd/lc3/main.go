// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"go.starlark.net/starlark"

	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/emulator"
	"github.com/ezrec/lc3/internal"
	lcio "github.com/ezrec/lc3/io"
	"github.com/ezrec/lc3/script"
)

func main() {
	var compile string
	var binary string
	var object string
	var save bool
	var input string
	var output string
	var verbose bool
	var dump bool
	var maxTicks int
	var scriptFile string
	var defines bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&binary, "b", "", ".obj file to load")
	flag.StringVar(&object, "o", "", ".obj file to write")
	flag.BoolVar(&save, "s", false, "Save object only, do not execute")
	flag.StringVar(&input, "i", "-", "Console input")
	flag.StringVar(&output, "t", "-", "Console output")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&dump, "d", false, "Dump registers at exit")
	flag.IntVar(&maxTicks, "m", 0, "Maximum instructions to execute")
	flag.StringVar(&scriptFile, "x", "", ".star script to execute")
	flag.BoolVar(&defines, "D", false, "List assembler defines")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(scriptFile) != 0 {
		runScript(scriptFile, verbose)
		return
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.MaxTicks = maxTicks

	if defines {
		for key, value := range internal.IterSeq2Sorted(emu.Defines()) {
			fmt.Printf("%v=%v\n", key, value)
		}
		return
	}

	if len(compile) != 0 && len(binary) != 0 {
		log.Fatalf("%v: -c and -b are exclusive", os.Args[0])
	}

	// Assemble a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	// Load an object file.
	if len(binary) != 0 {
		inf, err := os.Open(binary)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
		defer inf.Close()

		emu.Object, err = lcio.ReadObject(inf)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
	}

	if len(emu.Object) == 0 && emu.Program.Len() == 0 {
		log.Fatalf("%v: nothing to execute, use -c or -b", os.Args[0])
	}

	if len(object) != 0 {
		words := emu.Object
		if len(words) == 0 {
			words = emu.Program.Binary()
		}

		ouf, err := os.Create(object)
		if err != nil {
			log.Fatalf("%v: %v", object, err)
		}
		err = lcio.WriteObject(ouf, words)
		if err == nil {
			err = ouf.Close()
		}
		if err != nil {
			log.Fatalf("%v: %v", object, err)
		}
	}

	if save {
		return
	}

	restore := func() {}
	if input == "-" {
		var err error
		restore, err = rawTerm(os.Stdin)
		if err != nil {
			log.Fatalf("stdin: %v", err)
		}
		emu.Tape.Input = os.Stdin
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Tape.Input = inf
	}

	if output == "-" {
		emu.Tape.Output = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Tape.Output = ouf
	}

	err := emu.Reset()
	if err != nil {
		restore()
		log.Fatal(err)
	}

	for done, err := emu.Tick(); !done; done, err = emu.Tick() {
		if err != nil {
			restore()
			if dump {
				fmt.Fprint(os.Stderr, emu.Cpu.String())
			}
			log.Fatal(err)
		}
	}

	restore()

	if dump {
		fmt.Print(emu.Cpu.String())
	}
}

// runScript executes a Starlark script against a fresh machine.
func runScript(path string, verbose bool) {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	machine := script.NewMachine()
	machine.Print = os.Stdout
	machine.Emulator.Verbose = verbose
	machine.Emulator.Tape.Input = os.Stdin
	machine.Emulator.Tape.Output = os.Stdout

	_, err = machine.Exec(path, src)
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			log.Fatal(evalErr.Backtrace())
		}
		log.Fatalf("%v: %v", path, err)
	}
}
