// Package policy implementa el motor de políticas del gatekeeper: un
// registro cerrado de predicados hoja y los combinadores Any/All.
//
// Las políticas se construyen una vez al arrancar y son valores inmutables;
// Evaluate es puro y determinista dado el contexto.
package policy

import (
	"strings"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
)

// ParamAccountID es el parámetro de ruta que identifica la cuenta recurso.
const ParamAccountID = "accountId"

// Me es el alias de la cuenta del principal.
const Me = "me"

// Context es lo que ve una política: el token verificado (nil si el request
// no trae uno) y los parámetros del recurso.
type Context struct {
	Token  *token.Context
	Params map[string]string
}

// Param retorna el parámetro de recurso o "".
func (c *Context) Param(name string) string {
	if c == nil || c.Params == nil {
		return ""
	}
	return c.Params[name]
}

// Decision es el resultado de evaluar una política.
type Decision struct {
	Allowed bool
	// Reason resume la falla (vacío si Allowed).
	Reason string
	// Reasons lista las fallas de cada rama evaluada.
	Reasons []string
}

// Policy es un predicado evaluable.
type Policy interface {
	Name() string
	Evaluate(c *Context) Decision
}

// Evaluate evalúa p sobre c. Sin token o sin política el resultado es deny.
func Evaluate(p Policy, c *Context) Decision {
	if p == nil {
		return deny("no policy")
	}
	if c == nil || c.Token == nil {
		return deny("unauthenticated")
	}
	return p.Evaluate(c)
}

func deny(reason string) Decision {
	return Decision{Reason: reason, Reasons: []string{reason}}
}

var allow = Decision{Allowed: true}

type anyOf struct{ children []Policy }

// Any es OR en el orden dado: corta en el primer éxito y, si todas fallan,
// junta las razones de cada rama. Sin hijos niega.
func Any(ps ...Policy) Policy { return &anyOf{children: ps} }

func (a *anyOf) Name() string { return "any(" + joinNames(a.children) + ")" }

func (a *anyOf) Evaluate(c *Context) Decision {
	if len(a.children) == 0 {
		return deny("any: no policies")
	}
	var reasons []string
	for _, p := range a.children {
		d := p.Evaluate(c)
		if d.Allowed {
			return allow
		}
		reasons = append(reasons, d.Reasons...)
	}
	return Decision{Reason: strings.Join(reasons, "; "), Reasons: reasons}
}

type allOf struct{ children []Policy }

// All es AND en el orden dado: corta en la primera falla. Sin hijos niega.
func All(ps ...Policy) Policy { return &allOf{children: ps} }

func (a *allOf) Name() string { return "all(" + joinNames(a.children) + ")" }

func (a *allOf) Evaluate(c *Context) Decision {
	if len(a.children) == 0 {
		return deny("all: no policies")
	}
	for _, p := range a.children {
		if d := p.Evaluate(c); !d.Allowed {
			return d
		}
	}
	return allow
}

func joinNames(ps []Policy) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name())
	}
	return strings.Join(names, ",")
}
