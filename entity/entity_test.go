package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		v, ok := ExtractAmount("Payment of Rs. 250 to Rajesh was successful.")
		require.True(t, ok)
		assert.Equal(t, "250", v)
	})

	t.Run("CommasStripped", func(t *testing.T) {
		v, ok := ExtractAmount("Total amount due: Rs. 45,000.")
		require.True(t, ok)
		assert.Equal(t, "45000", v)
	})

	t.Run("RupeeSign", func(t *testing.T) {
		v, ok := ExtractAmount("₹500 debited")
		require.True(t, ok)
		assert.Equal(t, "500", v)
	})

	t.Run("NoPrefixNoMatch", func(t *testing.T) {
		_, ok := ExtractAmount("Your OTP is 123456")
		assert.False(t, ok)
	})

	t.Run("FirstMatchOnly", func(t *testing.T) {
		v, ok := ExtractAmount("Rs. 100 then Rs. 200")
		require.True(t, ok)
		assert.Equal(t, "100", v)
	})
}

func TestExtractDate(t *testing.T) {
	t.Run("DayMonthYear", func(t *testing.T) {
		v, ok := ExtractDate("Kindly process payment by 15 November 2025.")
		require.True(t, ok)
		assert.Equal(t, "15 November 2025", v)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		v, ok := ExtractDate("due on 3 jan")
		require.True(t, ok)
		assert.Equal(t, "3 jan", v)
	})

	t.Run("NoMatch", func(t *testing.T) {
		_, ok := ExtractDate("no dates here")
		assert.False(t, ok)
	})
}

func TestExtractRefID(t *testing.T) {
	t.Run("RefID", func(t *testing.T) {
		v, ok := ExtractRefID("Ref ID: GP281105.")
		require.True(t, ok)
		assert.Equal(t, "GP281105", v)
	})

	t.Run("Ref", func(t *testing.T) {
		v, ok := ExtractRefID("Ref: BMS5599")
		require.True(t, ok)
		assert.Equal(t, "BMS5599", v)
	})

	t.Run("Reference", func(t *testing.T) {
		v, ok := ExtractRefID("Reference: ABC123")
		require.True(t, ok)
		assert.Equal(t, "ABC123", v)
	})

	t.Run("NoMatch", func(t *testing.T) {
		_, ok := ExtractRefID("nothing here")
		assert.False(t, ok)
	})
}

func TestExtractReceiver(t *testing.T) {
	t.Run("CapitalizedAfterTo", func(t *testing.T) {
		v, ok := ExtractReceiver("Payment of Rs. 250 to Rajesh for dinner")
		require.True(t, ok)
		assert.Equal(t, "Rajesh", v)
	})

	t.Run("LowercaseNotMatched", func(t *testing.T) {
		_, ok := ExtractReceiver("transferred to savings")
		assert.False(t, ok)
	})
}

func TestExtractSource(t *testing.T) {
	v, ok := ExtractSource("SMS from Google Pay: hello")
	require.True(t, ok)
	assert.Equal(t, "SMS", v)
}

func TestExtractor(t *testing.T) {
	text := "SMS from Google Pay: Payment of Rs. 250 to Rajesh for dinner was successful. Ref ID: GP281105."

	t.Run("AllMatchers", func(t *testing.T) {
		entities := NewExtractor().Extract(text)

		assert.Equal(t, "250", entities[TypeAmount])
		assert.Equal(t, "Rajesh", entities[TypeReceiver])
		assert.Equal(t, "GP281105", entities[TypeRefID])
		assert.Equal(t, "SMS", entities[TypeSource])
		assert.NotContains(t, entities, TypeDate)
	})

	t.Run("WithoutSource", func(t *testing.T) {
		entities := NewExtractor(WithoutSource()).Extract(text)

		assert.NotContains(t, entities, TypeSource)
		assert.Equal(t, "250", entities[TypeAmount])
	})

	t.Run("NoDetections", func(t *testing.T) {
		entities := NewExtractor().Extract("nothing sensitive here")
		assert.Empty(t, entities)
	})
}
