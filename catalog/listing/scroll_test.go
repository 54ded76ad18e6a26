package listing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/booklending/catalog/listing"
)

func Test_ScrollPosition_Ratio(t *testing.T) {
	testCases := []struct {
		name string
		pos  listing.ScrollPosition
		want float64
	}{
		{name: "top of long list", pos: listing.ScrollPosition{Top: 0, ClientHeight: 250, ScrollHeight: 1000}, want: 0.25},
		{name: "three quarters", pos: listing.ScrollPosition{Top: 500, ClientHeight: 250, ScrollHeight: 1000}, want: 0.75},
		{name: "content fits viewport", pos: listing.ScrollPosition{Top: 0, ClientHeight: 800, ScrollHeight: 600}, want: 1},
		{name: "nothing rendered", pos: listing.ScrollPosition{}, want: 1},
		{name: "overscroll is clamped", pos: listing.ScrollPosition{Top: 900, ClientHeight: 250, ScrollHeight: 1000}, want: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.pos.Ratio(), 1e-9)
		})
	}
}

func Test_ScrollTrigger_FiresOncePerCrossing(t *testing.T) {
	// arrange
	trigger, err := listing.NewScrollTrigger(listing.DefaultScrollThreshold)
	require.NoError(t, err)

	above := listing.ScrollPosition{Top: 600, ClientHeight: 250, ScrollHeight: 1000}
	below := listing.ScrollPosition{Top: 100, ClientHeight: 250, ScrollHeight: 1000}

	// act + assert
	assert.False(t, trigger.Observe(below))
	assert.True(t, trigger.Observe(above), "first upward crossing fires")
	assert.False(t, trigger.Observe(above), "staying above does not fire again")
	assert.False(t, trigger.Observe(below))
	assert.True(t, trigger.Observe(above), "crossing again after dropping below fires")

	trigger.Reset()
	assert.True(t, trigger.Observe(above), "reset re-arms")
}

func Test_NewScrollTrigger_RejectsInvalidThreshold(t *testing.T) {
	for _, threshold := range []float64{0, -0.1, 1.01} {
		_, err := listing.NewScrollTrigger(threshold)
		assert.ErrorIs(t, err, listing.ErrInvalidThreshold)
	}
}
