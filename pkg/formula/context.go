package formula

import (
	"sort"
	"strconv"
	"strings"
)

// Reserved variable names exposed to every formula.
const (
	VarRaw       = "raw"
	VarRawMax    = "rawMax"
	VarTotalMax  = "totalMax"
	VarSubScores = "subScores"
)

// SubCriterion carries one sub-criterion's declared maximum and the score recorded against it.
type SubCriterion struct {
	Name     string
	MaxScore float64
	Score    float64
}

// Context is the named-variable environment a formula is evaluated against.
type Context struct {
	Raw       float64
	RawMax    float64
	TotalMax  float64
	SubScores []float64
	// Aliases maps sub<N> and slugified sub-criterion names to their scores.
	Aliases map[string]float64
}

// NewContext builds a context for a component's raw score and its ordered sub-criteria.
func NewContext(raw, rawMax float64, subCriteria []SubCriterion) Context {
	ctx := Context{
		Raw:       raw,
		RawMax:    rawMax,
		SubScores: make([]float64, 0, len(subCriteria)),
		Aliases:   make(map[string]float64, len(subCriteria)*2),
	}
	for i, sc := range subCriteria {
		ctx.TotalMax += sc.MaxScore
		ctx.SubScores = append(ctx.SubScores, sc.Score)
		ctx.setAlias("sub"+strconv.Itoa(i+1), sc.Score)
		ctx.setAlias(Slugify(sc.Name), sc.Score)
	}
	return ctx
}

func (c *Context) setAlias(name string, value float64) {
	if name == "" || isReserved(name) {
		return
	}
	c.Aliases[name] = value
}

func (c Context) env() map[string]interface{} {
	subScores := c.SubScores
	if subScores == nil {
		subScores = []float64{}
	}
	env := make(map[string]interface{}, len(c.Aliases)+4)
	for name, value := range c.Aliases {
		if isReserved(name) {
			continue
		}
		env[name] = value
	}
	env[VarRaw] = c.Raw
	env[VarRawMax] = c.RawMax
	env[VarTotalMax] = c.TotalMax
	env[VarSubScores] = subScores
	return env
}

// Names returns the sorted identifiers a formula may reference in this context.
func (c Context) Names() []string {
	env := c.env()
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Slugify lowercases a sub-criterion name and collapses every run of
// non-alphanumeric characters into a single underscore.
func Slugify(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	return b.String()
}

func isReserved(name string) bool {
	switch name {
	case VarRaw, VarRawMax, VarTotalMax, VarSubScores:
		return true
	}
	_, isFunc := builtins[name]
	return isFunc
}
