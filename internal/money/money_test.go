package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "20", want: 20},
		{in: " 12.50 ", want: 12.5},
		{in: "$1,200.05", want: 1200.05},
		{in: "1,234,567.5", want: 1234567.5},
		{in: "12,50", wantErr: true},
		{in: "1,2345", wantErr: true},
		{in: ",100", wantErr: true},
		{in: "1,200,00", wantErr: true},
		{in: "0.01", want: 0.01},
		{in: "3.000", want: 3},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "10.00", Format(10))
	assert.Equal(t, "3.33", Format(10.0/3))
	assert.Equal(t, "0.10", Format(0.1))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(333), Cents(10.0/3))
	assert.Equal(t, int64(30), Cents(0.1+0.2))
	assert.Equal(t, int64(1000), Cents(10))
}
