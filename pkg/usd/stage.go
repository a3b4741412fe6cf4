// Package usd implements an in-memory USD stage with time-sampled
// attributes and usda text serialization.
package usd

import (
	"errors"
	"fmt"
	"strings"
)

// Stage errors.
var (
	ErrInvalidPath       = errors.New("invalid prim path")
	ErrDuplicatePrim     = errors.New("prim already defined")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Formats accepted by Stage.Export and Exporter.SaveScene.
var exportFormats = map[string]bool{
	"usd":  true,
	"usda": true,
	"usdc": true,
}

// ValidFormat reports whether ext names an accepted export format.
func ValidFormat(ext string) bool { return exportFormats[ext] }

// Stage is an in-memory scene-graph document.
type Stage struct {
	root        *Prim // pseudo-root, not serialized
	prims       map[string]*Prim
	defaultPrim *Prim

	upAxis             string
	startTime, endTime float64
	timeCodesPerSec    float64
	metersPerUnit      float64
}

// NewStage creates an empty stage with USD defaults (Y up, 24 time codes
// per second).
func NewStage() *Stage {
	root := &Prim{path: "/", attrIndex: map[string]*Attribute{}}
	return &Stage{
		root:            root,
		prims:           map[string]*Prim{},
		upAxis:          "Y",
		timeCodesPerSec: 24,
		metersPerUnit:   1,
	}
}

// SetUpAxis sets the stage up axis ("Y" or "Z").
func (s *Stage) SetUpAxis(axis string) { s.upAxis = axis }

// SetStartTimeCode sets the first time code of the stage's range.
func (s *Stage) SetStartTimeCode(t float64) { s.startTime = t }

// SetEndTimeCode sets the last time code of the stage's range.
func (s *Stage) SetEndTimeCode(t float64) { s.endTime = t }

// StartTimeCode returns the first time code.
func (s *Stage) StartTimeCode() float64 { return s.startTime }

// EndTimeCode returns the last time code.
func (s *Stage) EndTimeCode() float64 { return s.endTime }

// SetTimeCodesPerSecond sets the playback rate of the time-code range.
func (s *Stage) SetTimeCodesPerSecond(f float64) { s.timeCodesPerSec = f }

// SetDefaultPrim marks p as the stage's default prim.
func (s *Stage) SetDefaultPrim(p *Prim) { s.defaultPrim = p }

// DefinePrim creates a prim of the given schema at an absolute path.
// Missing ancestors are created as Xforms. Redefining an existing path
// fails with ErrDuplicatePrim.
func (s *Stage) DefinePrim(path, schema string) (*Prim, error) {
	if !strings.HasPrefix(path, "/") || path == "/" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if _, ok := s.prims[path]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePrim, path)
	}

	parts := strings.Split(path[1:], "/")
	parent := s.root
	cur := ""
	for i, name := range parts {
		if err := validateIdentifier(name); err != nil {
			return nil, err
		}
		cur += "/" + name
		p, ok := s.prims[cur]
		if !ok {
			sch := "Xform"
			if i == len(parts)-1 {
				sch = schema
			}
			p = &Prim{
				name:      name,
				path:      cur,
				schema:    sch,
				parent:    parent,
				attrIndex: map[string]*Attribute{},
			}
			parent.children = append(parent.children, p)
			s.prims[cur] = p
		}
		parent = p
	}
	return parent, nil
}

// Prim returns the prim at path, or nil.
func (s *Stage) Prim(path string) *Prim { return s.prims[path] }
