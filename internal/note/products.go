package note

import (
	"maps"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// builtinProducts maps chip series codes to their marketing names.
var builtinProducts = map[string]string{
	"esp32s2": "ESP32-S2",
	"esp32s3": "ESP32-S3",
	"esp32c3": "ESP32-C3",
	"esp32c6": "ESP32-C6",
	"esp32h2": "ESP32-H2",
}

// Products resolves display names for chip series.
type Products map[string]string

// NewProducts returns the built-in table with extra entries layered on top.
func NewProducts(extra map[string]string) Products {
	p := make(Products, len(builtinProducts)+len(extra))
	maps.Copy(p, builtinProducts)
	maps.Copy(p, extra)
	return p
}

// Name returns the display name for series, or series upper-cased when unknown.
func (p Products) Name(series string) string {
	if name, ok := p[series]; ok {
		return name
	}
	return cases.Upper(language.Und).String(series)
}

// ProductName resolves series against the built-in table.
func ProductName(series string) string {
	return Products(builtinProducts).Name(series)
}
