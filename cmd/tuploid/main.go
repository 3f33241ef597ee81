// tuploid - inspect and manage stored tuple bindings
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/tuploid/compiler"
	"github.com/chazu/tuploid/manifest"
	"github.com/chazu/tuploid/store"
	"github.com/chazu/tuploid/vm"
	"github.com/chazu/tuploid/vm/dist"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is the state a subcommand runs against.
type session struct {
	manifest *manifest.Manifest
	engine   *vm.Engine
	store    *store.Store
	out      io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tuploid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("C", ".", "Project directory (searched upward for tuploid.toml)")
	verbose := fs.Int("v", 0, "Extra log verbosity")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tuploid [options] <command> [args]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  list                 List stored bindings\n")
		fmt.Fprintf(stderr, "  show <name>          Print a binding's value\n")
		fmt.Fprintf(stderr, "  drop <name>          Delete a binding\n")
		fmt.Fprintf(stderr, "  export <name> <file> Write a binding's wire form to file\n")
		fmt.Fprintf(stderr, "  import <file> <name> Store a wire-form value under name\n")
		fmt.Fprintf(stderr, "  demo                 Store a few example bindings\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return fmt.Errorf("no command given")
	}

	m, err := manifest.FindAndLoad(*dir)
	if err != nil {
		return err
	}
	if m == nil {
		m = manifest.Default(*dir)
	}
	m.ConfigureLogging(*verbose)

	engine := vm.NewEngine(m.EngineOptions())
	st, err := store.Open(m.StorePath(), engine.Symbols)
	if err != nil {
		return err
	}
	defer st.Close()

	s := &session{manifest: m, engine: engine, store: st, out: stdout}
	cmd, cargs := rest[0], rest[1:]
	switch cmd {
	case "list":
		return s.list()
	case "show":
		if len(cargs) != 1 {
			return fmt.Errorf("usage: show <name>")
		}
		return s.show(cargs[0])
	case "drop":
		if len(cargs) != 1 {
			return fmt.Errorf("usage: drop <name>")
		}
		return st.Delete(cargs[0])
	case "export":
		if len(cargs) != 2 {
			return fmt.Errorf("usage: export <name> <file>")
		}
		return s.export(cargs[0], cargs[1])
	case "import":
		if len(cargs) != 2 {
			return fmt.Errorf("usage: import <file> <name>")
		}
		return s.importFile(cargs[0], cargs[1])
	case "demo":
		return s.demo()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (s *session) list() error {
	bindings, err := s.store.List()
	if err != nil {
		return err
	}
	for _, b := range bindings {
		fmt.Fprintf(s.out, "%s\t%s\n", b.Name, b.Shape)
	}
	return nil
}

func (s *session) show(name string) error {
	v, err := s.store.Load(name)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, s.engine.Format(v))
	return nil
}

func (s *session) export(name, path string) error {
	data, err := s.store.Raw(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *session) importFile(path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	v, err := dist.UnmarshalValue(s.engine.Symbols, data)
	if err != nil {
		return err
	}
	return s.store.Save(name, v)
}

// demo defines the example types, builds values through the four
// assignment rules and stores them.
func (s *session) demo() error {
	aliases := compiler.NewAliasTable(s.engine.Symbols)
	triple, err := aliases.DefineTuple("Triple", compiler.Tuple(
		compiler.Field("", compiler.Prim("i8")),
		compiler.Field("second", compiler.Prim("i16")),
		compiler.Field("", compiler.Prim("i32")),
	))
	if err != nil {
		return err
	}
	tup, err := vm.NewTuple(triple, []vm.Value{vm.FromInt8(3), vm.FromInt16(4), vm.FromInt32(5)})
	if err != nil {
		return err
	}
	tripleVal := vm.FromTuple(tup)
	if err := s.engine.Set(tup, vm.ByName(s.engine.Intern("second")), vm.FromInt16(8)); err != nil {
		return err
	}

	bag, err := aliases.Define("Bag", compiler.DynTuple())
	if err != nil {
		return err
	}
	bagVal := s.engine.Default(bag)
	if err := s.engine.Assign(&bagVal, bag, tripleVal); err != nil {
		return err
	}
	if err := s.engine.Set(bagVal.Tuple(), vm.ByName(s.engine.Intern("note")), s.engine.Symbols.StringValue("merged")); err != nil {
		return err
	}

	for _, b := range []struct {
		name string
		v    vm.Value
	}{{"triple", tripleVal}, {"bag", bagVal}} {
		if err := s.store.Save(b.name, b.v); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s = %s\n", b.name, s.engine.Format(b.v))
	}
	return nil
}
