package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	for _, p := range Periods {
		got, err := ParsePeriod(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParsePeriod("2m")
	assert.True(t, errors.Is(err, ErrInvalidPeriod))

	_, err = ParsePeriod("")
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
}

func TestPeriodValid(t *testing.T) {
	assert.True(t, Period4h.Valid())
	assert.False(t, Period("1w").Valid())
	assert.Len(t, Periods, 6)
}
