package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Define is one #define directive from a Marlin header. A define that is
// commented out ("//#define X") is kept with Enabled false.
type Define struct {
	Name        string `json:"name" yaml:"name"`
	Value       any    `json:"value" yaml:"value"` // bool | int64 | float64 | string | []float64
	Raw         string `json:"raw,omitempty" yaml:"raw,omitempty"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	File        string `json:"file" yaml:"file"`
	Line        int    `json:"line" yaml:"line"`
}

var defineRe = regexp.MustCompile(`^(\s*//\s*)?#define\s+([A-Za-z0-9_]+)\s*(.*)`)

// maxHeaderLine bounds a single header line; Marlin headers never come close.
const maxHeaderLine = 64 * 1024

// ParseMarlin reads #define directives from r. file is recorded on every
// Define for diagnostics.
func ParseMarlin(r io.Reader, file string) ([]Define, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxHeaderLine)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	var defs []Define
	inBlock := false
	for i, line := range lines {
		if inBlock {
			if strings.Contains(line, "*/") {
				inBlock = false
			}
			continue
		}
		if strings.HasPrefix(line, "/*") {
			inBlock = !strings.Contains(line, "*/")
			continue
		}
		m := defineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d := Define{
			Name:    m[2],
			Enabled: m[1] == "",
			File:    file,
			Line:    i + 1,
		}
		valuePart, comment := splitComment(m[3])
		d.Raw = valuePart
		switch {
		case valuePart == "":
			// a bare #define is a feature flag
			d.Value = d.Enabled
		default:
			d.Value = parseValue(valuePart)
		}
		d.Description = comment
		if d.Description == "" {
			d.Description = neighbourComment(lines, i)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// LoadHeaders parses every header in order. Later files override earlier
// ones when merged into a Registry.
func LoadHeaders(paths []string) ([]Define, error) {
	var all []Define
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open header: %w", err)
		}
		defs, err := ParseMarlin(f, filepath.Base(p))
		f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, defs...)
	}
	return all, nil
}

func splitComment(rest string) (value, comment string) {
	idx := len(rest)
	for _, marker := range []string{"//", "/*"} {
		if i := strings.Index(rest, marker); i >= 0 && i < idx {
			idx = i
		}
	}
	value = strings.TrimSpace(rest[:idx])
	if idx < len(rest) {
		comment = strings.TrimSpace(rest[idx+2:])
		comment = strings.TrimSpace(strings.TrimSuffix(comment, "*/"))
	}
	return value, comment
}

func neighbourComment(lines []string, i int) string {
	isComment := func(s string) bool {
		return strings.HasPrefix(s, "//") && !strings.Contains(s, "#define")
	}
	if i+1 < len(lines) && isComment(lines[i+1]) {
		return strings.TrimSpace(lines[i+1][2:])
	}
	if i > 0 && isComment(lines[i-1]) {
		return strings.TrimSpace(lines[i-1][2:])
	}
	return ""
}

// parseValue types a define value. Numbers stay numbers: TEMP_SENSOR_BED 1
// is sensor type 1, not "true".
func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		if arr, ok := parseArray(s[1 : len(s)-1]); ok {
			return arr
		}
	}
	return s
}

func parseArray(body string) ([]float64, bool) {
	parts := strings.Split(body, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// Float returns the numeric value of the define.
func (d Define) Float() (float64, bool) {
	switch v := d.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Int returns the value truncated to int.
func (d Define) Int() (int, bool) {
	f, ok := d.Float()
	return int(f), ok
}

// Bool reports whether an enabled define is truthy. Numbers are true when
// non-zero; any other value counts as set.
func (d Define) Bool() bool {
	if !d.Enabled {
		return false
	}
	switch v := d.Value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	return true
}

// String returns the value as text.
func (d Define) String() string {
	switch v := d.Value.(type) {
	case string:
		return v
	case nil:
		return ""
	}
	if d.Raw != "" {
		return d.Raw
	}
	return fmt.Sprint(d.Value)
}

// Floats returns a brace array value such as DEFAULT_AXIS_STEPS_PER_UNIT.
func (d Define) Floats() ([]float64, bool) {
	v, ok := d.Value.([]float64)
	return v, ok
}
