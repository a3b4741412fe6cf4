package usd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Write serializes the stage as usda text.
func (s *Stage) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "#usda 1.0")
	fmt.Fprintln(bw, "(")
	if s.defaultPrim != nil {
		fmt.Fprintf(bw, "    defaultPrim = %q\n", s.defaultPrim.Name())
	}
	fmt.Fprintf(bw, "    endTimeCode = %s\n", formatTime(s.endTime))
	fmt.Fprintf(bw, "    metersPerUnit = %s\n", formatFloat(s.metersPerUnit))
	fmt.Fprintf(bw, "    startTimeCode = %s\n", formatTime(s.startTime))
	fmt.Fprintf(bw, "    timeCodesPerSecond = %s\n", formatFloat(s.timeCodesPerSec))
	fmt.Fprintf(bw, "    upAxis = %q\n", s.upAxis)
	fmt.Fprintln(bw, ")")

	for _, child := range s.root.children {
		fmt.Fprintln(bw)
		writePrim(bw, child, 0)
	}

	return bw.Flush()
}

// ExportToString returns the stage serialized as usda text.
func (s *Stage) ExportToString() (string, error) {
	var b strings.Builder
	if err := s.Write(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Export writes the stage to path. The extension selects the format and
// must be one of usd, usda or usdc; all three currently serialize the
// text layer.
func (s *Stage) Export(path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if !ValidFormat(ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := s.Write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func writePrim(w io.Writer, p *Prim, depth int) {
	ind := strings.Repeat("    ", depth)
	fmt.Fprintf(w, "%sdef %s %q\n", ind, p.schema, p.name)
	fmt.Fprintf(w, "%s{\n", ind)

	inner := ind + "    "
	for _, a := range p.attrs {
		writeAttribute(w, a, inner)
	}
	for _, r := range p.rels {
		fmt.Fprintf(w, "%srel %s = <%s>\n", inner, r.Name, r.Target)
	}

	for _, child := range p.children {
		fmt.Fprintln(w)
		writePrim(w, child, depth+1)
	}

	fmt.Fprintf(w, "%s}\n", ind)
}

func writeAttribute(w io.Writer, a *Attribute, ind string) {
	prefix := ""
	if a.Uniform {
		prefix = "uniform "
	}

	if a.connect != "" {
		fmt.Fprintf(w, "%s%s%s %s.connect = <%s>\n", ind, prefix, a.TypeName, a.Name, a.connect)
		return
	}
	if a.hasDefault {
		meta := ""
		if a.interp != "" {
			meta = fmt.Sprintf(" (\n%s    interpolation = %q\n%s)", ind, a.interp, ind)
		}
		fmt.Fprintf(w, "%s%s%s %s = %s%s\n", ind, prefix, a.TypeName, a.Name, a.defValue.usda(), meta)
	} else if len(a.samples) == 0 {
		// Bare declaration, e.g. a shader output.
		fmt.Fprintf(w, "%s%s%s %s\n", ind, prefix, a.TypeName, a.Name)
	}
	if len(a.samples) > 0 {
		fmt.Fprintf(w, "%s%s%s %s.timeSamples = {\n", ind, prefix, a.TypeName, a.Name)
		for _, ts := range a.samples {
			fmt.Fprintf(w, "%s    %s: %s,\n", ind, formatTime(ts.Time), ts.Value.usda())
		}
		fmt.Fprintf(w, "%s}\n", ind)
	}
}
