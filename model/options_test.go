package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetrieveOptions(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		o := DefaultRetrieveOptions()

		assert.Equal(t, "hybrid", o.Mode)
		assert.Equal(t, 5, o.RetrieveNb)
		assert.Equal(t, Duration(30*24*time.Hour), o.DecayScale, "Default decay scale should be 30 days")
		assert.Equal(t, Duration(0), o.DecayOffset)
		assert.Equal(t, 0.5, o.DecayRate)
	})

	t.Run("Can be modified after creation", func(t *testing.T) {
		o := DefaultRetrieveOptions()
		o.Mode = "dense"
		o.RetrieveNb = 10

		assert.Equal(t, "dense", o.Mode)
		assert.Equal(t, 10, o.RetrieveNb)
	})
}

func TestDurationText(t *testing.T) {
	t.Run("Unmarshal duration string", func(t *testing.T) {
		var d Duration
		err := d.UnmarshalText([]byte("720h"))
		require.NoError(t, err)
		assert.Equal(t, Duration(720*time.Hour), d)
	})

	t.Run("Unmarshal invalid duration", func(t *testing.T) {
		var d Duration
		assert.Error(t, d.UnmarshalText([]byte("thirty days")))
	})

	t.Run("Marshal duration", func(t *testing.T) {
		b, err := Duration(90 * time.Minute).MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "1h30m0s", string(b))
	})
}
