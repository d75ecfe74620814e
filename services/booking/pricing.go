package booking

import (
	"fmt"
	"strings"

	"senara/models"
)

// Munich runs on its own tariff; every other studio city shares the
// "mittel" columns.
const munichCity = "munich"

// PriceCategoryFor resolves the price column for a booking from the studio
// city and the customer's S-Card answer. The card flag must be an explicit
// yes or no; anything else is an error rather than a silent default, since
// guessing here would misquote the customer.
func PriceCategoryFor(city, cardFlag string) (models.PriceCategory, error) {
	var hasCard bool
	switch strings.ToLower(strings.TrimSpace(cardFlag)) {
	case "yes":
		hasCard = true
	case "no":
		hasCard = false
	default:
		return "", fmt.Errorf("invalid price category for city: %s and s_card: %s", city, cardFlag)
	}

	munich := strings.EqualFold(strings.TrimSpace(city), munichCity)
	switch {
	case munich && hasCard:
		return models.PriceMunichWithCard, nil
	case munich && !hasCard:
		return models.PriceMunichWithoutCard, nil
	case hasCard:
		return models.PriceMittelWithCard, nil
	default:
		return models.PriceMittelWithoutCard, nil
	}
}
