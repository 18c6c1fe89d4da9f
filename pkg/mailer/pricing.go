package mailer

// WarningNoOptionAtPrice is the advisory emitted when a price hint matches
// no stored option and the resolver falls back to the default.
const WarningNoOptionAtPrice = "no option at this price"

// ResolvePricingOption selects exactly one pricing option for a patient.
//
// With no hint, the global default wins, else the first option in stored
// order. With a hint, options are filtered by exact price equality: a single
// match is selected as-is; among several matches the price default wins,
// else the first match; zero matches fall back to the no-hint rule and emit
// an advisory warning. The stored order of options is never re-sorted.
//
// An empty option list is a caller error; every test owns at least one option.
func ResolvePricingOption(options []PricingOption, hint PriceHint) (Resolution, error) {
	if len(options) == 0 {
		return Resolution{}, mailerErrors.New(ErrNoPricingOptions)
	}

	if !hint.Valid {
		return Resolution{Selected: defaultOption(options)}, nil
	}

	var matches []PricingOption
	for _, opt := range options {
		if opt.Price == hint.Price {
			matches = append(matches, opt)
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{
			Selected: defaultOption(options),
			Warning:  WarningNoOptionAtPrice,
		}, nil
	case 1:
		return Resolution{Selected: matches[0]}, nil
	default:
		for _, opt := range matches {
			if opt.IsPriceDefault {
				return Resolution{Selected: opt}, nil
			}
		}
		return Resolution{Selected: matches[0]}, nil
	}
}

// defaultOption returns the global default, else the first option in stored
// order. If the data ever carries more than one global default, the first
// one wins.
func defaultOption(options []PricingOption) PricingOption {
	for _, opt := range options {
		if opt.IsGlobalDefault {
			return opt
		}
	}
	return options[0]
}

// MatchPricingOption finds the option matching an exact (installment, price)
// pair, as supplied by a caller that already knows both values. Returns nil
// when no option matches.
func MatchPricingOption(options []PricingOption, installment int, price float64) *PricingOption {
	for i := range options {
		if options[i].Installment == installment && options[i].Price == price {
			return &options[i]
		}
	}
	return nil
}
