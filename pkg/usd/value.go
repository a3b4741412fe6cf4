package usd

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a typed attribute value that knows its usda text form.
type Value interface {
	usda() string
}

// Bool is a bool value.
type Bool bool

func (v Bool) usda() string { return strconv.FormatBool(bool(v)) }

// Int is an int value.
type Int int

func (v Int) usda() string { return strconv.Itoa(int(v)) }

// Float is a scalar float value (float or double typed attributes).
type Float float64

func (v Float) usda() string { return formatFloat(float64(v)) }

// String is a quoted string value.
type String string

func (v String) usda() string { return strconv.Quote(string(v)) }

// Token is a quoted token value.
type Token string

func (v Token) usda() string { return strconv.Quote(string(v)) }

// Asset is an asset path value, rendered as @path@.
type Asset string

func (v Asset) usda() string { return "@" + string(v) + "@" }

// Vec2 is a 2-component vector value.
type Vec2 [2]float64

func (v Vec2) usda() string {
	return "(" + formatFloat(v[0]) + ", " + formatFloat(v[1]) + ")"
}

// Vec3 is a 3-component vector value (point3f, float3, double3, color3f).
type Vec3 [3]float64

func (v Vec3) usda() string {
	return "(" + formatFloat(v[0]) + ", " + formatFloat(v[1]) + ", " + formatFloat(v[2]) + ")"
}

// Quat is a quaternion value rendered in usda (w, x, y, z) order.
type Quat struct {
	W, X, Y, Z float64
}

func (v Quat) usda() string {
	return "(" + formatFloat(v.W) + ", " + formatFloat(v.X) + ", " +
		formatFloat(v.Y) + ", " + formatFloat(v.Z) + ")"
}

// IntArray is an int[] value.
type IntArray []int

func (v IntArray) usda() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteByte(']')
	return b.String()
}

// Vec3Array is a point3f[]/float3[] value.
type Vec3Array []Vec3

func (v Vec3Array) usda() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.usda())
	}
	b.WriteByte(']')
	return b.String()
}

// Vec2Array is a texCoord2f[]/float2[] value.
type Vec2Array []Vec2

func (v Vec2Array) usda() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.usda())
	}
	b.WriteByte(']')
	return b.String()
}

// FloatArray is a float[] value.
type FloatArray []float64

func (v FloatArray) usda() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatFloat(f))
	}
	b.WriteByte(']')
	return b.String()
}

// TokenArray is a token[] value.
type TokenArray []string

func (v TokenArray) usda() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(s))
	}
	b.WriteByte(']')
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatTime(t float64) string {
	if t == float64(int64(t)) {
		return strconv.FormatInt(int64(t), 10)
	}
	return strconv.FormatFloat(t, 'g', -1, 64)
}

func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	for i, r := range name {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidPath, name)
		}
	}
	return nil
}

// MakeValidIdentifier maps an arbitrary name onto a legal prim identifier,
// replacing illegal characters with underscores.
func MakeValidIdentifier(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if ok {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
