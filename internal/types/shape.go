package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Dim is one dimension of a shape: either a literal size or the symbol of a
// parameter whose value supplies the size at solve time.
type Dim struct {
	Size   int
	Symbol string
}

// IsSymbol reports whether the dimension references a parameter by name.
func (d Dim) IsSymbol() bool { return d.Symbol != "" }

func (d Dim) String() string {
	if d.IsSymbol() {
		return d.Symbol
	}
	return strconv.Itoa(d.Size)
}

func (d Dim) MarshalJSON() ([]byte, error) {
	if d.IsSymbol() {
		return json.Marshal(d.Symbol)
	}
	return json.Marshal(d.Size)
}

// UnmarshalJSON makes Dim accept either a number or a symbol string.
func (d *Dim) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Dim{Size: n}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*d = Dim{Size: int(f)}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("types: empty shape dimension")
		}
		if n, err := strconv.Atoi(s); err == nil {
			*d = Dim{Size: n}
			return nil
		}
		*d = Dim{Symbol: s}
		return nil
	}
	return fmt.Errorf("types: cannot interpret shape dimension %s", string(data))
}

// Shape is the dimension list of a parameter or variable. Empty means scalar.
type Shape []Dim

// UnmarshalJSON accepts both wire forms the models produce:
// 1) list: [3, "N"]
// 2) Python-style string literal: "[3, N]" (also "[]" for scalar)
func (s *Shape) UnmarshalJSON(data []byte) error {
	var dims []Dim
	if err := json.Unmarshal(data, &dims); err == nil {
		*s = dims
		return nil
	}
	var lit string
	if err := json.Unmarshal(data, &lit); err != nil {
		return fmt.Errorf("types: cannot interpret shape %s", string(data))
	}
	parsed, err := ParseShape(lit)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseShape parses a Python-style list literal like "[N, 3]" into a Shape.
func ParseShape(lit string) (Shape, error) {
	cleaned := strings.TrimSpace(lit)
	if !strings.HasPrefix(cleaned, "[") || !strings.HasSuffix(cleaned, "]") {
		return nil, fmt.Errorf("types: cannot interpret shape literal %q", lit)
	}
	inner := strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	if inner == "" {
		return Shape{}, nil
	}
	parts := strings.Split(inner, ",")
	out := make(Shape, 0, len(parts))
	for _, part := range parts {
		tok := strings.Trim(strings.TrimSpace(part), `'"`)
		if tok == "" {
			return nil, fmt.Errorf("types: empty dimension in shape literal %q", lit)
		}
		if n, err := strconv.Atoi(tok); err == nil {
			out = append(out, Dim{Size: n})
			continue
		}
		out = append(out, Dim{Symbol: tok})
	}
	return out, nil
}

func (s Shape) String() string {
	if len(s) == 0 {
		return "[]"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Scalar reports whether the shape has no dimensions.
func (s Shape) Scalar() bool { return len(s) == 0 }
