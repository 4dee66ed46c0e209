package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/txtar"

	"github.com/origadmin/classpath/internal/classfile"
	"github.com/origadmin/classpath/internal/classpath"
	"github.com/origadmin/classpath/internal/config"
	"github.com/origadmin/classpath/internal/fixture"
	"github.com/origadmin/classpath/internal/loader"
	"github.com/origadmin/classpath/internal/member"
)

type command struct {
	name  string
	args  string
	help  string
	min   int
	exec  func(s *session, args []string) error
	plain bool // runs without a session
}

var commands = []command{
	{name: "packages", help: "list every package on the classpath", exec: cmdPackages},
	{name: "list", args: "<package>", help: "list the types of a package", min: 1, exec: cmdList},
	{name: "which", args: "<type>...", help: "show where types resolve from", min: 1, exec: cmdWhich},
	{name: "resolve", args: "<simple-name>...", help: "qualify unqualified type names", min: 1, exec: cmdResolve},
	{name: "complete", args: "<prefix>", help: "complete a type name", min: 1, exec: cmdComplete},
	{name: "method", args: "<type> <name> [argtype...]", help: "resolve a method call", min: 2, exec: cmdMethod},
	{name: "new", args: "<type> [argtype...]", help: "resolve a constructor call", min: 1, exec: cmdNew},
	{name: "field", args: "<type> <name>", help: "resolve a field", min: 2, exec: cmdField},
	{name: "reload", args: "<type>...", help: "reload types as one batch", min: 1, exec: cmdReload},
	{name: "reload-package", args: "<package>", help: "reload every type of a package", min: 1, exec: cmdReloadPackage},
	{name: "diff", args: "<classpath> <classpath>", help: "diff the types of two classpaths", min: 2, exec: cmdDiff, plain: true},
	{name: "materialize", args: "<archive.txtar> <dir>", help: "write a txtar class tree to dir", min: 2, exec: cmdMaterialize, plain: true},
	{name: "version", help: "print version information"},
}

func run(cfg *config.Config, w io.Writer, name string, args []string) error {
	for _, c := range commands {
		if c.name != name || c.exec == nil {
			continue
		}
		if len(args) < c.min {
			return fmt.Errorf("usage: %s %s %s", config.Application, c.name, c.args)
		}
		s := &session{cfg: cfg, w: w}
		if !c.plain {
			if err := s.open(); err != nil {
				return err
			}
			defer s.close()
		}
		return c.exec(s, args)
	}
	return fmt.Errorf("unknown command %q", name)
}

// session wires the configured classpath, type manager and member resolver.
type session struct {
	cfg      *config.Config
	w        io.Writer
	system   *classpath.Index
	view     *classpath.Index
	manager  *loader.Manager
	resolver *member.Resolver
}

func (s *session) open() error {
	env, err := s.cfg.Environment()
	if err != nil {
		return err
	}
	s.system, err = classpath.NewSystemIndex(env)
	if err != nil {
		return err
	}
	s.manager, err = loader.New(s.cfg.ManagerOptions(s.system))
	if err != nil {
		return err
	}
	s.resolver, err = member.NewResolver(s.manager, member.WithAccessibility(s.cfg.Accessible), member.WithCacheSize(s.cfg.CacheSize))
	if err != nil {
		return err
	}

	s.view = classpath.NewIndex(nil, classpath.WithName("view"))
	if base := s.manager.BaseIndex(); base != nil {
		if err := s.view.AddComponent(base); err != nil {
			return err
		}
	}
	return s.view.AddComponent(s.system)
}

func (s *session) close() {
	if s.resolver != nil {
		s.resolver.Close()
	}
	if s.manager != nil {
		s.manager.Close()
	}
	if s.view != nil {
		s.view.Close()
	}
}

func cmdPackages(s *session, _ []string) error {
	for _, p := range s.view.Packages() {
		fmt.Fprintln(s.w, p)
	}
	return nil
}

func cmdList(s *session, args []string) error {
	names := s.view.TypesInPackage(args[0])
	if len(names) == 0 {
		return &classpath.Error{Op: "list", Name: args[0], Err: classpath.ErrNothingKnown}
	}
	for _, n := range names {
		fmt.Fprintln(s.w, n)
	}
	return nil
}

func cmdWhich(s *session, args []string) error {
	var errs []error
	for _, name := range args {
		t, err := s.manager.Resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		src := "runtime"
		if t.Source() != nil {
			src = t.Source().String()
		}
		fmt.Fprintf(s.w, "%s\t%s\t%s\n", name, t.Loader().ID(), src)
		for _, h := range s.manager.Handles(name) {
			fmt.Fprintf(s.w, "  %s\n", h)
		}
	}
	return errors.Join(errs...)
}

func cmdResolve(s *session, args []string) error {
	var errs []error
	for _, simple := range args {
		name, err := s.view.ResolveUnqualified(simple)
		var amb *classpath.AmbiguousNameError
		switch {
		case errors.As(err, &amb):
			fmt.Fprintf(s.w, "%s\tambiguous: %s\n", simple, strings.Join(amb.Candidates, ", "))
			errs = append(errs, err)
		case err != nil:
			errs = append(errs, err)
		default:
			fmt.Fprintf(s.w, "%s\t%s\n", simple, name)
		}
	}
	return errors.Join(errs...)
}

func cmdComplete(s *session, args []string) error {
	for _, n := range s.view.NameIndex().Complete(args[0]) {
		fmt.Fprintln(s.w, n)
	}
	return nil
}

func argTypes(specs []string) []classfile.Desc {
	out := make([]classfile.Desc, len(specs))
	for i, a := range specs {
		out[i] = classfile.TypeOf(a)
	}
	return out
}

func cmdMethod(s *session, args []string) error {
	t, err := s.manager.Resolve(args[0])
	if err != nil {
		return err
	}
	m, err := s.resolver.ResolveMethod(t, args[1], argTypes(args[2:]), false)
	if err != nil {
		return err
	}
	printMember(s.w, m)
	return nil
}

func cmdNew(s *session, args []string) error {
	t, err := s.manager.Resolve(args[0])
	if err != nil {
		return err
	}
	m, err := s.resolver.ResolveConstructor(t, argTypes(args[1:]))
	if err != nil {
		return err
	}
	printMember(s.w, m)
	return nil
}

func cmdField(s *session, args []string) error {
	t, err := s.manager.Resolve(args[0])
	if err != nil {
		return err
	}
	m, err := s.resolver.ResolveField(t, args[1], false)
	if err != nil {
		return err
	}
	printMember(s.w, m)
	return nil
}

func printMember(w io.Writer, m *member.Member) {
	fmt.Fprintln(w, m)
	if m.Kind != member.KindField {
		fmt.Fprintf(w, "  round: %s\n", m.Round)
	}
	if m.Accessible {
		fmt.Fprintln(w, "  accessibility relaxed")
	}
}

func cmdReload(s *session, args []string) error {
	if err := s.manager.Reload(args...); err != nil {
		return err
	}
	return cmdWhich(s, args)
}

func cmdReloadPackage(s *session, args []string) error {
	if err := s.manager.ReloadPackage(args[0]); err != nil {
		return err
	}
	for _, name := range s.view.TypesInPackage(args[0]) {
		if dl, ok := s.manager.Overlay(name); ok {
			fmt.Fprintf(s.w, "%s\t%s\n", name, dl.ID())
		}
	}
	return nil
}

func cmdDiff(s *session, args []string) error {
	listings := make([][]string, 2)
	var g errgroup.Group
	for i, path := range args[:2] {
		g.Go(func() error {
			entries := classpath.ParsePath(path)
			if len(entries) == 0 {
				return fmt.Errorf("empty classpath %q", path)
			}
			ix := classpath.NewIndex(entries, classpath.WithName(path))
			for _, n := range ix.AllTypes() {
				listings[i] = append(listings[i], n+"\n")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        listings[0],
		B:        listings[1],
		FromFile: args[0],
		ToFile:   args[1],
		Context:  0,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(s.w, diff)
	return err
}

func cmdMaterialize(s *session, args []string) error {
	ar, err := txtar.ParseFile(args[0])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(args[1], 0o755); err != nil {
		return err
	}
	if err := fixture.Materialize(args[1], ar); err != nil {
		return err
	}
	fmt.Fprintf(s.w, "wrote %d files to %s\n", len(ar.Files), args[1])
	return nil
}
