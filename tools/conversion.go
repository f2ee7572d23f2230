package tools

import "strings"

// ConversionFactor is one row of the conversion table. Ingredient is
// optional; when set, the factor only applies to that ingredient
// (density-dependent conversions like cup -> gram).
type ConversionFactor struct {
	Unit       string  `json:"unit"`
	ToUnit     string  `json:"to_unit"`
	Ingredient string  `json:"ingredient,omitempty"`
	Factor     float64 `json:"factor"`
}

type ConversionTable struct {
	Factors []ConversionFactor `json:"factors"`
}

// Lookup returns the factor for converting one source unit into one target
// unit. An ingredient-specific row wins over a generic row for the same
// unit pair.
func (t ConversionTable) Lookup(unit, toUnit, ingredient string) (float64, bool) {
	unit = NormalizeUnit(unit)
	toUnit = NormalizeUnit(toUnit)
	ingredient = strings.ToLower(strings.TrimSpace(ingredient))

	var generic float64
	var genericFound bool

	for _, f := range t.Factors {
		if NormalizeUnit(f.Unit) != unit || NormalizeUnit(f.ToUnit) != toUnit {
			continue
		}
		if f.Ingredient != "" {
			if ingredient != "" && strings.Contains(ingredient, strings.ToLower(f.Ingredient)) {
				return f.Factor, true
			}
			continue
		}
		generic = f.Factor
		genericFound = true
	}

	return generic, genericFound
}

// unitAliases folds the spellings the planner tends to emit onto canonical
// unit names.
var unitAliases = map[string]string{
	"cups":         "cup",
	"c":            "cup",
	"tablespoons":  "tablespoon",
	"tbsp":         "tablespoon",
	"tbsps":        "tablespoon",
	"teaspoons":    "teaspoon",
	"tsp":          "teaspoon",
	"tsps":         "teaspoon",
	"grams":        "gram",
	"g":            "gram",
	"milliliters":  "milliliter",
	"millilitres":  "milliliter",
	"ml":           "milliliter",
	"mls":          "milliliter",
	"pounds":       "pound",
	"lb":           "pound",
	"lbs":          "pound",
	"ounces":       "ounce",
	"oz":           "ounce",
	"sticks":       "stick",
	"fluid ounces": "fluid ounce",
	"fl oz":        "fluid ounce",
}

// NormalizeUnit lowercases, trims, and folds plural/abbreviated unit
// spellings so table lookups are spelling-insensitive.
func NormalizeUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

// DefaultConversionTable is the compiled-in factor table used when no
// external table is configured or the configured one cannot be loaded.
// Volumetric factors assume US customary units; cup -> gram rows carry
// per-ingredient densities.
func DefaultConversionTable() ConversionTable {
	return ConversionTable{
		Factors: []ConversionFactor{
			// Generic volume -> volume
			{Unit: "cup", ToUnit: "milliliter", Factor: 240},
			{Unit: "tablespoon", ToUnit: "milliliter", Factor: 15},
			{Unit: "teaspoon", ToUnit: "milliliter", Factor: 5},
			{Unit: "fluid ounce", ToUnit: "milliliter", Factor: 29.57},

			// Mass -> mass
			{Unit: "pound", ToUnit: "gram", Factor: 453.59},
			{Unit: "ounce", ToUnit: "gram", Factor: 28.35},

			// Density-dependent volume -> mass
			{Unit: "cup", ToUnit: "gram", Ingredient: "flour", Factor: 120},
			{Unit: "cup", ToUnit: "gram", Ingredient: "sugar", Factor: 200},
			{Unit: "cup", ToUnit: "gram", Ingredient: "butter", Factor: 227},
			{Unit: "cup", ToUnit: "gram", Ingredient: "rice", Factor: 185},
			{Unit: "cup", ToUnit: "gram", Ingredient: "broth", Factor: 240},
			{Unit: "cup", ToUnit: "gram", Ingredient: "stock", Factor: 240},
			{Unit: "cup", ToUnit: "gram", Ingredient: "coconut milk", Factor: 226},
			{Unit: "cup", ToUnit: "gram", Ingredient: "sour cream", Factor: 230},
			{Unit: "tablespoon", ToUnit: "gram", Ingredient: "butter", Factor: 14},
			{Unit: "stick", ToUnit: "gram", Ingredient: "butter", Factor: 113},

			// Water-like fallback for cup -> gram when nothing more
			// specific matches.
			{Unit: "cup", ToUnit: "gram", Factor: 240},
		},
	}
}
