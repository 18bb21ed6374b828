package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	a, err := Parse("10.00000 TEST", "TEST")
	require.NoError(t, err)
	assert.Equal(t, "10.00000", a.String())
	assert.Equal(t, int64(1000000), a.MinorUnits())
}

func TestParseRejectsWrongSymbol(t *testing.T) {
	_, err := Parse("10.00000 XYZ", "TEST")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseRejectsWrongPrecision(t *testing.T) {
	_, err := Parse("10.0 TEST", "TEST")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestAddOverflow(t *testing.T) {
	max := Asset(1<<63 - 1)
	_, err := max.Add(Asset(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSubUnderflow(t *testing.T) {
	min := Asset(-(1 << 63))
	_, err := min.Sub(Asset(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMul(t *testing.T) {
	a, _ := Parse("3.00000 TEST", "TEST")
	b, _ := Parse("2.00000 TEST", "TEST")
	got, err := a.Mul(b)
	require.NoError(t, err)
	assert.Equal(t, "6.00000", got.String())
}

func TestDiv(t *testing.T) {
	a, _ := Parse("10.00000 TEST", "TEST")
	b, _ := Parse("4.00000 TEST", "TEST")
	got, err := a.Div(b)
	require.NoError(t, err)
	assert.Equal(t, "2.50000", got.String())
}

func TestDivByZero(t *testing.T) {
	a, _ := Parse("10.00000 TEST", "TEST")
	_, err := a.Div(Zero)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestPow(t *testing.T) {
	base, _ := Parse("2.00000 TEST", "TEST")
	got, err := base.Pow(3)
	require.NoError(t, err)
	assert.Equal(t, "8.00000", got.String())

	one, err := base.Pow(0)
	require.NoError(t, err)
	assert.Equal(t, "1.00000", one.String())
}

func TestCmp(t *testing.T) {
	a, _ := Parse("1.00000 TEST", "TEST")
	b, _ := Parse("2.00000 TEST", "TEST")
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
}
