package usd

// TimeSample is one (time code, value) pair on an attribute.
type TimeSample struct {
	Time  float64
	Value Value
}

// Attribute is a typed, optionally time-sampled attribute on a prim.
type Attribute struct {
	Name     string
	TypeName string // usda type, e.g. "point3f[]", "double3", "token"
	Uniform  bool

	hasDefault bool
	defValue   Value
	samples    []TimeSample
	connect    string // target path for a .connect output
	interp     string // primvar interpolation metadata
}

// SetInterpolation attaches primvar interpolation metadata, e.g. "vertex".
func (a *Attribute) SetInterpolation(interp string) *Attribute {
	a.interp = interp
	return a
}

// Set assigns the attribute's default (untimed) value.
func (a *Attribute) Set(v Value) {
	a.defValue = v
	a.hasDefault = true
}

// SetTimeSample records a value at the given time code. Re-setting an
// existing time code overwrites its value.
func (a *Attribute) SetTimeSample(t float64, v Value) {
	for i := range a.samples {
		if a.samples[i].Time == t {
			a.samples[i].Value = v
			return
		}
	}
	// Samples arrive in increasing time order from the frame loop; keep
	// them sorted without a full sort for the common append case.
	i := len(a.samples)
	for i > 0 && a.samples[i-1].Time > t {
		i--
	}
	a.samples = append(a.samples, TimeSample{})
	copy(a.samples[i+1:], a.samples[i:])
	a.samples[i] = TimeSample{Time: t, Value: v}
}

// Samples returns the recorded time samples in time order.
func (a *Attribute) Samples() []TimeSample { return a.samples }

// Default returns the untimed value, if one was set.
func (a *Attribute) Default() (Value, bool) { return a.defValue, a.hasDefault }

// Relationship is a prim relationship, e.g. material:binding.
type Relationship struct {
	Name   string
	Target string
}

// Prim is one node of the stage hierarchy.
type Prim struct {
	name   string
	path   string
	schema string

	parent   *Prim
	children []*Prim

	attrs     []*Attribute
	attrIndex map[string]*Attribute
	rels      []Relationship
}

// Name returns the prim's leaf name.
func (p *Prim) Name() string { return p.name }

// Path returns the prim's absolute path, e.g. /World/box_id3_geom.
func (p *Prim) Path() string { return p.path }

// Schema returns the prim's schema type, e.g. Mesh.
func (p *Prim) Schema() string { return p.schema }

// Children returns the child prims in definition order.
func (p *Prim) Children() []*Prim { return p.children }

// Attribute returns the named attribute, creating it with the given usda
// type on first use.
func (p *Prim) Attribute(name, typeName string) *Attribute {
	if a, ok := p.attrIndex[name]; ok {
		return a
	}
	a := &Attribute{Name: name, TypeName: typeName}
	p.attrs = append(p.attrs, a)
	p.attrIndex[name] = a
	return a
}

// UniformAttribute returns the named attribute marked uniform.
func (p *Prim) UniformAttribute(name, typeName string) *Attribute {
	a := p.Attribute(name, typeName)
	a.Uniform = true
	return a
}

// ConnectAttribute declares name as a connection to the attribute at
// target, e.g. outputs:surface -> /path/shader.outputs:surface.
func (p *Prim) ConnectAttribute(name, typeName, target string) {
	a := p.Attribute(name, typeName)
	a.connect = target
}

// SetRelationship declares a relationship to another prim.
func (p *Prim) SetRelationship(name, target string) {
	for i := range p.rels {
		if p.rels[i].Name == name {
			p.rels[i].Target = target
			return
		}
	}
	p.rels = append(p.rels, Relationship{Name: name, Target: target})
}

// Xform op and visibility helpers. These mirror the small slice of the
// UsdGeom Xformable/Imageable APIs the exporter needs.

const (
	opTranslate = "xformOp:translate"
	opOrient    = "xformOp:orient"
	opScale     = "xformOp:scale"
)

// SetXformOpOrder declares the standard translate/orient/scale op order.
func (p *Prim) SetXformOpOrder() {
	p.UniformAttribute("xformOpOrder", "token[]").
		Set(TokenArray{opTranslate, opOrient, opScale})
}

// SetTranslateSample time-samples the prim's translation.
func (p *Prim) SetTranslateSample(t float64, v Vec3) {
	p.Attribute(opTranslate, "double3").SetTimeSample(t, v)
}

// SetOrientSample time-samples the prim's orientation.
func (p *Prim) SetOrientSample(t float64, q Quat) {
	p.Attribute(opOrient, "quatf").SetTimeSample(t, q)
}

// SetScaleSample time-samples the prim's scale.
func (p *Prim) SetScaleSample(t float64, v Vec3) {
	p.Attribute(opScale, "float3").SetTimeSample(t, v)
}

// SetScale sets a constant scale.
func (p *Prim) SetScale(v Vec3) {
	p.Attribute(opScale, "float3").Set(v)
}

// SetVisibilitySample time-samples the prim's visibility.
func (p *Prim) SetVisibilitySample(t float64, visible bool) {
	tok := Token("invisible")
	if visible {
		tok = Token("inherited")
	}
	p.Attribute("visibility", "token").SetTimeSample(t, tok)
}
