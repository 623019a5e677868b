package productconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/errors"
)

func TestRatingServiceCalculatesPriceBreakdown(t *testing.T) {
	p, _ := newTestProvider(t)
	svc := NewRatingService(p)
	ctx := context.Background()

	result, err := svc.Calculate(ctx, releaseContext("2026-01"), quote.FormData{
		"buildingValue": 1000000.0,
		"postcode":      "2000",
	})
	require.NoError(t, err)

	// base 50000 + 1000000 * 0.0012 = 51200
	// esl  51200 * 0.16            = 8192
	// gst  (51200 + 8192) * 0.1    = 5939 (rounded)
	assert.Equal(t, "AUD", result.Price.Currency)
	assert.Equal(t, int64(51200), result.Price.BasePremium)
	assert.Equal(t, int64(8192), result.Price.ESL)
	assert.Equal(t, int64(5939), result.Price.GST)
	assert.Equal(t, int64(2500), result.Price.BrokerFee)
	assert.Equal(t, int64(67831), result.Price.TotalPayable)
	assert.NotEmpty(t, result.CalculationID)
	assert.Empty(t, result.Triggers)
}

func TestRatingServiceRaisesReferralTriggers(t *testing.T) {
	p, _ := newTestProvider(t)
	svc := NewRatingService(p)

	result, err := svc.Calculate(context.Background(), releaseContext("2026-01"), quote.FormData{
		"buildingValue": 6000000.0,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"highSumInsured"}, result.Triggers)
	assert.True(t, result.RequiresReferral())
}

func TestRatingServiceAcceptsNumericStrings(t *testing.T) {
	p, _ := newTestProvider(t)
	svc := NewRatingService(p)

	result, err := svc.Calculate(context.Background(), releaseContext("2026-01"), quote.FormData{
		"buildingValue": "1000000",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(51200), result.Price.BasePremium)
}

func TestRatingServiceRejectsMissingRatedField(t *testing.T) {
	p, _ := newTestProvider(t)
	svc := NewRatingService(p)

	_, err := svc.Calculate(context.Background(), releaseContext("2026-01"), quote.FormData{
		"postcode": "2000",
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestRatingServiceRejectsEmptyFormData(t *testing.T) {
	p, _ := newTestProvider(t)
	svc := NewRatingService(p)

	_, err := svc.Calculate(context.Background(), releaseContext("2026-01"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestRatingServiceUnknownReleaseIsNotFound(t *testing.T) {
	p, _ := newTestProvider(t)
	svc := NewRatingService(p)

	_, err := svc.Calculate(context.Background(), releaseContext("1999-01"), quote.FormData{
		"buildingValue": 100.0,
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
