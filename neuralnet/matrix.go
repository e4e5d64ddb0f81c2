package neuralnet

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix. The data slice is shared with the
// gonum view returned by dense, so products write straight into it.
type Matrix struct {
	rows    int
	columns int
	data    []float64
}

// NewMatrix allocates a zeroed rows x columns matrix. A negative dimension is
// a programmer error and panics, like make; use NewMatrixFrom for shapes that
// come from input.
func NewMatrix(rows, columns int) *Matrix {
	if rows < 0 || columns < 0 {
		panic(fmt.Sprintf("neuralnet: negative matrix shape %dx%d", rows, columns))
	}
	return &Matrix{
		rows:    rows,
		columns: columns,
		data:    make([]float64, rows*columns),
	}
}

// NewMatrixFrom copies data into a new rows x columns matrix.
func NewMatrixFrom(rows, columns int, data []float64) (*Matrix, error) {
	if rows < 0 || columns < 0 || len(data) != rows*columns {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrShapeMismatch, len(data), rows, columns)
	}
	m := NewMatrix(rows, columns)
	copy(m.data, data)
	return m, nil
}

// FromFlat decodes the self-describing layout [rows, columns, data...].
func FromFlat(buf []float64) (*Matrix, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("%w: flat buffer of length %d has no header", ErrShapeMismatch, len(buf))
	}
	rows, columns := int(buf[0]), int(buf[1])
	if float64(rows) != buf[0] || float64(columns) != buf[1] {
		return nil, fmt.Errorf("%w: non-integral header %v", ErrShapeMismatch, buf[:2])
	}
	return NewMatrixFrom(rows, columns, buf[2:])
}

// Flat encodes m as [rows, columns, data...].
func (m *Matrix) Flat() []float64 {
	out := make([]float64, 2+len(m.data))
	out[0] = float64(m.rows)
	out[1] = float64(m.columns)
	copy(out[2:], m.data)
	return out
}

func (m *Matrix) Rows() int    { return m.rows }
func (m *Matrix) Columns() int { return m.columns }

// Len is the number of elements, rows*columns.
func (m *Matrix) Len() int { return len(m.data) }

// Data returns the backing slice.
func (m *Matrix) Data() []float64 { return m.data }

func (m *Matrix) At(row, column int) float64 {
	return m.data[row*m.columns+column]
}

func (m *Matrix) Set(row, column int, v float64) {
	m.data[row*m.columns+column] = v
}

// SameShape reports whether m and o have identical dimensions.
func (m *Matrix) SameShape(o *Matrix) bool {
	return o != nil && m.rows == o.rows && m.columns == o.columns
}

func (m *Matrix) Fill(v float64) {
	for i := range m.data {
		m.data[i] = v
	}
}

// CloneFrom copies src into m. Shapes must match.
func (m *Matrix) CloneFrom(src *Matrix) error {
	if !m.SameShape(src) {
		return fmt.Errorf("%w: clone %s into %s", ErrShapeMismatch, src.shape(), m.shape())
	}
	copy(m.data, src.data)
	return nil
}

func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.rows, m.columns)
	copy(c.data, m.data)
	return c
}

// First returns the first element.
func (m *Matrix) First() (float64, error) {
	if len(m.data) == 0 {
		return 0, fmt.Errorf("%w: first of empty matrix", ErrShapeMismatch)
	}
	return m.data[0], nil
}

// Argmax returns the flat position of the largest element. Ties resolve to
// the lowest position.
func (m *Matrix) Argmax() (int, error) {
	if len(m.data) == 0 {
		return 0, fmt.Errorf("%w: argmax of empty matrix", ErrShapeMismatch)
	}
	return floats.MaxIdx(m.data), nil
}

// dense wraps m for gonum without copying. Callers must not pass empty matrices.
func (m *Matrix) dense() *mat.Dense {
	return mat.NewDense(m.rows, m.columns, m.data)
}

func (m *Matrix) shape() string {
	if m == nil {
		return "nil"
	}
	return fmt.Sprintf("%dx%d", m.rows, m.columns)
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Matrix %s\n", m.shape()))
	for r := 0; r < m.rows; r++ {
		sb.WriteString(fmt.Sprintf("%v\n", m.data[r*m.columns:(r+1)*m.columns]))
	}
	return sb.String()
}

// product computes a·b into a new matrix.
func product(a, b *Matrix) (*Matrix, error) {
	if a.columns != b.rows {
		return nil, fmt.Errorf("%w: product %s x %s", ErrShapeMismatch, a.shape(), b.shape())
	}
	out := NewMatrix(a.rows, b.columns)
	if out.Len() == 0 || a.columns == 0 {
		return out, nil
	}
	out.dense().Mul(a.dense(), b.dense())
	return out, nil
}

// multiplyElements sets m[i] *= o[i].
func (m *Matrix) multiplyElements(o *Matrix) error {
	if !m.SameShape(o) {
		return fmt.Errorf("%w: elementwise %s and %s", ErrShapeMismatch, m.shape(), o.shape())
	}
	floats.Mul(m.data, o.data)
	return nil
}
