package productconfig

import (
	"context"
	"math"
	"strconv"

	"github.com/google/uuid"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// RatingDefinition is the release's declarative pricing model. Amounts are
// minor currency units; rates are fractions.
type RatingDefinition struct {
	Currency    string  `yaml:"currency"`
	BasePremium int64   `yaml:"basePremium"`
	PerUnitKey  string  `yaml:"perUnitKey"`
	Rate        float64 `yaml:"rate"`
	ESLRate     float64 `yaml:"eslRate"`
	GSTRate     float64 `yaml:"gstRate"`
	BrokerFee   int64   `yaml:"brokerFee"`

	ReferralTriggers []ReferralTrigger `yaml:"referralTriggers"`
}

// ReferralTrigger raises a named trigger when a numeric form value crosses
// its threshold. Any raised trigger routes the quote to review.
type ReferralTrigger struct {
	Key         string  `yaml:"key"`
	GreaterThan float64 `yaml:"greaterThan"`
	Trigger     string  `yaml:"trigger"`
}

// RatingService prices quotes from the release's rating definition.
type RatingService struct {
	provider *Provider
}

func NewRatingService(provider *Provider) *RatingService {
	return &RatingService{provider: provider}
}

var _ ports.RatingService = (*RatingService)(nil)

func (s *RatingService) Calculate(ctx context.Context, rc shared.ReleaseContext, formData quote.FormData) (quote.CalculationResult, error) {
	def, err := s.provider.ratingFor(rc)
	if err != nil {
		return quote.CalculationResult{}, err
	}
	if len(formData) == 0 {
		return quote.CalculationResult{}, errors.Domain(errors.CodeInvalidInput.String(), "quote has no form data to rate").Build()
	}

	base := float64(def.BasePremium)
	if def.PerUnitKey != "" {
		units, ok := numericValue(formData[def.PerUnitKey])
		if !ok {
			return quote.CalculationResult{}, errors.Validation(errors.CodeInvalidInput.String(), "rated form field is missing or not numeric").
				WithData("field", def.PerUnitKey).
				Build()
		}
		base += units * def.Rate
	}

	esl := base * def.ESLRate
	gst := (base + esl) * def.GSTRate

	price := quote.PriceBreakdown{
		Currency:    def.Currency,
		BasePremium: round(base),
		ESL:         round(esl),
		GST:         round(gst),
		BrokerFee:   def.BrokerFee,
	}
	price.TotalPayable = price.BasePremium + price.ESL + price.GST + price.BrokerFee

	var triggers []string
	for _, t := range def.ReferralTriggers {
		if v, ok := numericValue(formData[t.Key]); ok && v > t.GreaterThan {
			triggers = append(triggers, t.Trigger)
		}
	}

	return quote.CalculationResult{
		CalculationID: uuid.New().String(),
		Triggers:      triggers,
		Price:         price,
	}, nil
}

func round(v float64) int64 {
	return int64(math.Round(v))
}

// numericValue coerces the loosely typed form payload values that arrive
// through JSON and YAML.
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
