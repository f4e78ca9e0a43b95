package shopping

import "strings"

// Categorize returns the store category for a shopping item name. It
// performs case-insensitive matching: exact match first, then substring
// match. Falls back to "Other" if nothing matches.
func Categorize(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return "Other"
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return "Other"
}

var exactMatch = map[string]string{
	// Produce
	"apple": "Produce", "apples": "Produce",
	"banana": "Produce", "bananas": "Produce",
	"orange": "Produce", "oranges": "Produce",
	"lemon": "Produce", "lemons": "Produce",
	"lime": "Produce", "limes": "Produce",
	"avocado": "Produce", "avocados": "Produce",
	"tomato": "Produce", "tomatoes": "Produce",
	"potato": "Produce", "potatoes": "Produce",
	"onion": "Produce", "onions": "Produce",
	"garlic": "Produce", "lettuce": "Produce",
	"spinach": "Produce", "kale": "Produce",
	"broccoli": "Produce", "carrots": "Produce",
	"celery": "Produce", "cucumber": "Produce",
	"peppers": "Produce", "mushrooms": "Produce",
	"grapes": "Produce", "strawberries": "Produce",
	"blueberries": "Produce",

	// Dairy
	"milk": "Dairy", "butter": "Dairy",
	"cheese": "Dairy", "yogurt": "Dairy",
	"cream": "Dairy", "eggs": "Dairy",
	"sour cream": "Dairy", "cream cheese": "Dairy",

	// Meat & Seafood
	"chicken": "Meat & Seafood", "beef": "Meat & Seafood",
	"pork": "Meat & Seafood", "bacon": "Meat & Seafood",
	"salmon": "Meat & Seafood", "shrimp": "Meat & Seafood",
	"ground beef": "Meat & Seafood", "turkey": "Meat & Seafood",

	// Bakery
	"bread": "Bakery", "bagels": "Bakery",
	"tortillas": "Bakery", "buns": "Bakery",

	// Pantry
	"rice": "Pantry", "pasta": "Pantry",
	"flour": "Pantry", "sugar": "Pantry",
	"salt": "Pantry", "pepper": "Pantry",
	"olive oil": "Pantry", "cereal": "Pantry",
	"beans": "Pantry", "peanut butter": "Pantry",

	// Frozen
	"ice cream": "Frozen", "frozen pizza": "Frozen",

	// Beverages
	"coffee": "Beverages", "tea": "Beverages",
	"juice": "Beverages", "soda": "Beverages",

	// Household
	"paper towels": "Household", "toilet paper": "Household",
	"dish soap": "Household", "laundry detergent": "Household",
	"trash bags": "Household",

	// Personal Care
	"toothpaste": "Personal Care", "shampoo": "Personal Care",
	"soap": "Personal Care", "deodorant": "Personal Care",
}

// Ordered with more specific keywords first.
var substringMatches = []struct {
	keyword  string
	category string
}{
	{"frozen", "Frozen"},
	{"organic milk", "Dairy"},
	{"cheese", "Dairy"},
	{"yogurt", "Dairy"},
	{"milk", "Dairy"},
	{"chicken", "Meat & Seafood"},
	{"beef", "Meat & Seafood"},
	{"fish", "Meat & Seafood"},
	{"sausage", "Meat & Seafood"},
	{"bread", "Bakery"},
	{"cake", "Bakery"},
	{"muffin", "Bakery"},
	{"juice", "Beverages"},
	{"water", "Beverages"},
	{"wine", "Beverages"},
	{"beer", "Beverages"},
	{"sauce", "Pantry"},
	{"spice", "Pantry"},
	{"oil", "Pantry"},
	{"chips", "Snacks"},
	{"cookie", "Snacks"},
	{"cracker", "Snacks"},
	{"candy", "Snacks"},
	{"cleaner", "Household"},
	{"detergent", "Household"},
	{"towel", "Household"},
	{"lotion", "Personal Care"},
	{"razor", "Personal Care"},
	{"berries", "Produce"},
	{"salad", "Produce"},
	{"fruit", "Produce"},
}
