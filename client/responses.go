package client

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// apiTime handles the portal's timestamp format, which is ISO 8601
// without a timezone offset ("2024-01-10T00:00:00"). RFC 3339 values are
// accepted too.
type apiTime time.Time

func (t *apiTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*t = apiTime(time.Time{})
		return nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = apiTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("%w: invalid timestamp %q", ErrParse, raw)
}

func (t apiTime) Time() time.Time {
	return time.Time(t)
}

// Product type identifiers used by the meter-readings endpoint.
const (
	productTypeElectricity = "stroom"
	productTypeGas         = "gas"
)

// profileResponse is one entry of GET /api/v2/Profiles/.
type profileResponse struct {
	CustomerNumber int    `json:"customerNumber"`
	AgreementID    int    `json:"agreementId"`
	Name           string `json:"name"`
	Street         string `json:"street"`
	HouseNumber    int    `json:"houseNumber"`
	PostalCode     string `json:"postalCode"`
	City           string `json:"city"`
}

// wireReading is a single dated meter reading inside a month block.
// Register values are pointers: the portal omits registers the meter does
// not have (single-tariff meters, no solar, no gas).
type wireReading struct {
	ReadingDate        apiTime  `json:"readingDate"`
	NormalConsumption  *float64 `json:"normalConsumption"`
	OffPeakConsumption *float64 `json:"offPeakConsumption"`
	NormalFeedIn       *float64 `json:"normalFeedIn"`
	OffPeakFeedIn      *float64 `json:"offPeakFeedIn"`
	Gas                *float64 `json:"gas"`
}

// meterMonth groups the readings of one calendar month.
type meterMonth struct {
	Month    int           `json:"month"`
	Readings []wireReading `json:"readings"`
}

// meterProduct is the per-product (electricity or gas) reading history.
type meterProduct struct {
	ProductType string       `json:"productType"`
	Months      []meterMonth `json:"months"`
}

// meterReadingsResponse is the payload of
// GET /api/v2/customers/{cn}/agreements/{aid}/meter-readings/{year}/.
type meterReadingsResponse struct {
	ProductTypes []meterProduct `json:"productTypes"`
}

// latestReading returns the newest dated reading for the given product
// type, walking months and readings newest-first.
func (m *meterReadingsResponse) latestReading(productType string) (wireReading, bool) {
	for _, product := range m.ProductTypes {
		if !strings.EqualFold(product.ProductType, productType) {
			continue
		}

		months := append([]meterMonth(nil), product.Months...)
		sort.Slice(months, func(i, j int) bool {
			return months[i].Month > months[j].Month
		})

		for _, month := range months {
			readings := append([]wireReading(nil), month.Readings...)
			sort.Slice(readings, func(i, j int) bool {
				return readings[i].ReadingDate.Time().After(readings[j].ReadingDate.Time())
			})
			if len(readings) > 0 {
				return readings[0], true
			}
		}
	}
	return wireReading{}, false
}

// electricityTariff is the electricity part of the rates payload.
type electricityTariff struct {
	PriceSingle  float64 `json:"leveringEnkelAllin"`
	PriceLow     float64 `json:"leveringLaagAllin"`
	PriceHigh    float64 `json:"leveringHoogAllin"`
	FeedInRefund float64 `json:"terugleverVergoeding"`
}

// gasTariff is the gas part of the rates payload.
type gasTariff struct {
	Price float64 `json:"leveringAllin"`
}

// ratesResponse is the payload of GET /api/v2/customers/{cn}/rates.
type ratesResponse struct {
	Electricity *electricityTariff `json:"stroom"`
	Gas         *gasTariff         `json:"gas"`
}
