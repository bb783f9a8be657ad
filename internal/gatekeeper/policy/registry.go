package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownPolicy = errors.New("policy: unknown policy")
	ErrPolicyArity   = errors.New("policy: wrong number of arguments")
	ErrDuplicate     = errors.New("policy: duplicate definition")
)

// EvalFunc evalúa una hoja. Retorna ok y, si falla, la razón.
type EvalFunc func(c *Context, args []string) (ok bool, reason string)

// Definition describe un predicado hoja registrable.
type Definition struct {
	Name  string
	Arity int
	Eval  EvalFunc
}

// Registry es la tabla cerrada de hojas disponibles.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry crea un registro con las hojas del gatekeeper más extra.
func NewRegistry(extra ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition)}
	for _, d := range append(builtins(), extra...) {
		if d.Name == "" || d.Eval == nil || d.Arity < 0 {
			return nil, fmt.Errorf("policy: invalid definition %q", d.Name)
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, d.Name)
		}
		r.defs[d.Name] = d
	}
	return r, nil
}

// Names lista las hojas registradas en orden.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for n := range r.defs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Assert construye una hoja. Nombres desconocidos o aridad incorrecta se
// rechazan acá, no al evaluar.
func (r *Registry) Assert(name string, args ...string) (Policy, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
	if len(args) != d.Arity {
		return nil, fmt.Errorf("%w: %s expects %d, got %d", ErrPolicyArity, name, d.Arity, len(args))
	}
	return &leaf{def: d, args: append([]string(nil), args...)}, nil
}

// MustAssert es Assert para tablas estáticas; entra en pánico si falla.
func (r *Registry) MustAssert(name string, args ...string) Policy {
	p, err := r.Assert(name, args...)
	if err != nil {
		panic(err)
	}
	return p
}

type leaf struct {
	def  Definition
	args []string
}

func (l *leaf) Name() string {
	if len(l.args) == 0 {
		return l.def.Name
	}
	return l.def.Name + "(" + strings.Join(l.args, ",") + ")"
}

func (l *leaf) Evaluate(c *Context) Decision {
	// sin token toda hoja falla cerrada
	if c == nil || c.Token == nil {
		return deny(l.Name() + ": unauthenticated")
	}
	ok, reason := l.def.Eval(c, l.args)
	if ok {
		return allow
	}
	if reason == "" {
		reason = "denied"
	}
	return deny(l.Name() + ": " + reason)
}
