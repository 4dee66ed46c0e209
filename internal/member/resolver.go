package member

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/origadmin/classpath/internal/classfile"
	"github.com/origadmin/classpath/internal/classpath"
	"github.com/origadmin/classpath/internal/interfaces"
	"github.com/origadmin/classpath/internal/loader"
)

// DefaultCacheSize bounds the resolution cache.
const DefaultCacheSize = 2048

// Option configures a Resolver.
type Option func(*Resolver)

// WithAccessibility lets non-public members be returned, marked Accessible,
// when no public member matches.
func WithAccessibility(on bool) Option {
	return func(r *Resolver) { r.accessible = on }
}

// WithCacheSize sets the number of resolutions kept.
func WithCacheSize(n int) Option {
	return func(r *Resolver) { r.cacheSize = n }
}

type cacheKey struct {
	class  *loader.Type
	kind   Kind
	name   string
	args   string
	static bool
}

// Resolver finds the member a reference denotes. Successful resolutions are
// cached per declaring type, so a reload that yields new types never hits a
// stale entry; the cache is still purged when the type source reports a
// change so it does not pin replaced types.
type Resolver struct {
	types      interfaces.TypeResolver
	accessible bool
	cacheSize  int
	cache      *lru.Cache[cacheKey, *Member]
	unwatch    func()
}

// NewResolver returns a Resolver that looks up supertypes through types. If
// types is an interfaces.ChangeSource the Resolver subscribes to it.
func NewResolver(types interfaces.TypeResolver, opts ...Option) (*Resolver, error) {
	r := &Resolver{types: types, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(r)
	}
	cache, err := lru.New[cacheKey, *Member](r.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("member: resolution cache: %w", err)
	}
	r.cache = cache
	if cs, ok := types.(interfaces.ChangeSource); ok {
		r.unwatch = classpath.Watch(cs.Listeners(), r)
	}
	return r, nil
}

// ClassPathChanged purges the cache.
func (r *Resolver) ClassPathChanged() {
	r.cache.Purge()
}

// Cached returns the number of cached resolutions.
func (r *Resolver) Cached() int { return r.cache.Len() }

// Close unsubscribes from the type source.
func (r *Resolver) Close() {
	if r.unwatch != nil {
		r.unwatch()
		r.unwatch = nil
	}
}

// ResolveMethod finds the most specific method name of class applicable to
// args. With staticOnly a match on an instance method is a
// StaticAccessError rather than a miss.
func (r *Resolver) ResolveMethod(class *loader.Type, name string, args []classfile.Desc, staticOnly bool) (*Member, error) {
	key := cacheKey{class: class, kind: KindMethod, name: name, args: argKey(args), static: staticOnly}
	if m, ok := r.cache.Get(key); ok {
		return m, nil
	}
	pub, hidden := r.gatherMethods(class, name, len(args))
	m, err := r.pick(KindMethod, class, name, pub, hidden, args)
	if err != nil {
		return nil, err
	}
	if staticOnly && !m.IsStatic() {
		return nil, &StaticAccessError{Member: m}
	}
	r.cache.Add(key, m)
	return m, nil
}

// ResolveConstructor finds the most specific constructor of class
// applicable to args. Constructors are never inherited.
func (r *Resolver) ResolveConstructor(class *loader.Type, args []classfile.Desc) (*Member, error) {
	key := cacheKey{class: class, kind: KindConstructor, args: argKey(args)}
	if m, ok := r.cache.Get(key); ok {
		return m, nil
	}
	var pub, hidden []candidate
	for _, meth := range class.Methods() {
		if !meth.IsConstructor() || !arityMatches(meth, len(args)) {
			continue
		}
		c := candidate{owner: class, method: meth}
		if class.IsPublic() && meth.Flags.IsPublic() {
			pub = append(pub, c)
		} else {
			hidden = append(hidden, c)
		}
	}
	m, err := r.pick(KindConstructor, class, class.Name(), pub, hidden, args)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, m)
	return m, nil
}

// ResolveField finds field name of class, searching the class, then its
// interfaces, then its superclasses.
func (r *Resolver) ResolveField(class *loader.Type, name string, staticOnly bool) (*Member, error) {
	key := cacheKey{class: class, kind: KindField, name: name, static: staticOnly}
	if m, ok := r.cache.Get(key); ok {
		return m, nil
	}

	var found, hidden *Member
	r.walk(class, func(t *loader.Type) bool {
		for _, f := range t.Fields() {
			if f.Name != name {
				continue
			}
			m := &Member{Kind: KindField, Declaring: t, Name: f.Name, Type: f.Type, Flags: f.Flags}
			if f.Flags.IsPublic() && (t.IsPublic() || t.IsInterface()) {
				found = m
				return false
			}
			if hidden == nil {
				hidden = m
			}
		}
		return true
	})
	if found == nil && r.accessible && hidden != nil {
		hidden.Accessible = true
		found = hidden
	}
	if found == nil {
		return nil, &NotFoundError{Kind: KindField, Class: class.Name(), Signature: name}
	}
	if staticOnly && !found.IsStatic() {
		return nil, &StaticAccessError{Member: found}
	}
	r.cache.Add(key, found)
	return found, nil
}

func (r *Resolver) pick(kind Kind, class *loader.Type, name string, pub, hidden []candidate, args []classfile.Desc) (*Member, error) {
	if c, round, ok := r.search(pub, args); ok {
		return c.member(kind, round, false), nil
	}
	if r.accessible {
		if c, round, ok := r.search(hidden, args); ok {
			slog.Debug("Resolved non-public member", "class", class.Name(), "member", c.method.Name, "round", round)
			return c.member(kind, round, true), nil
		}
	}
	return nil, &NotFoundError{Kind: kind, Class: class.Name(), Signature: Signature(name, args)}
}

// search runs the rounds over pool and returns the first round's most
// specific applicable candidate. Rounds are not merged.
func (r *Resolver) search(pool []candidate, args []classfile.Desc) (candidate, Round, bool) {
	for _, round := range rounds {
		var (
			best       candidate
			bestParams []classfile.Desc
			found      bool
		)
		for _, c := range pool {
			params := c.method.Params
			if round == RoundVarArgs {
				if !c.method.Flags.IsVarArgs() {
					continue
				}
				params = expand(params, len(args))
				if params == nil {
					continue
				}
			}
			if !r.applicable(params, args, round) {
				continue
			}
			if !found || r.moreSpecific(params, bestParams) {
				best, bestParams, found = c, params, true
			}
		}
		if found {
			return best, round, true
		}
	}
	return candidate{}, 0, false
}
