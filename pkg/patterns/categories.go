package patterns

import "strings"

// CategoryOther is the fallback category when no keyword matches.
const CategoryOther = "Other"

type categoryEntry struct {
	name     string
	keywords []string
}

// categoryTable maps categories to lowercase keyword substrings. The table
// is ordered: when two categories tie on keyword count, the one defined
// first wins, so entry order is part of the contract.
var categoryTable = []categoryEntry{
	{"Food & Dining", []string{
		"swiggy", "zomato", "restaurant", "cafe", "eatery", "dominos",
		"pizza", "mcdonald", "kfc", "burger", "biryani", "dining", "food",
	}},
	{"Transportation", []string{
		"uber", "ola cabs", "rapido", "irctc", "redbus", "metro",
		"petrol", "diesel", "fuel", "parking", "toll", "cab",
	}},
	{"Shopping", []string{
		"amazon", "flipkart", "myntra", "ajio", "meesho", "nykaa",
		"snapdeal", "mall", "store",
	}},
	{"Entertainment", []string{
		"netflix", "hotstar", "spotify", "bookmyshow", "prime video",
		"sonyliv", "cinema", "movie", "gaming",
	}},
	{"Bills & Utilities", []string{
		"electricity", "recharge", "broadband", "postpaid", "prepaid",
		"dth", "water bill", "gas bill", "airtel", "jio", "bescom",
	}},
	{"Groceries", []string{
		"bigbasket", "blinkit", "zepto", "instamart", "dmart", "grofers",
		"grocery", "kirana", "supermarket",
	}},
	{"Health", []string{
		"pharmacy", "apollo", "medplus", "netmeds", "pharmeasy",
		"hospital", "clinic", "practo", "diagnostic",
	}},
	{"Education", []string{
		"udemy", "coursera", "byju", "unacademy", "school", "college",
		"tuition", "exam fee",
	}},
}

// DetermineCategory scores every category by how many of its keywords appear
// in the lowercased text or merchant name. Presence is checked once per
// keyword (text OR merchant), not summed across both fields. The strictly
// greatest count wins; ties keep the earliest-defined category. No matches
// at all returns CategoryOther with count 0.
func DetermineCategory(text, merchant string) (string, int) {
	lowerText := strings.ToLower(text)
	lowerMerchant := strings.ToLower(merchant)

	category := CategoryOther
	best := 0
	for _, entry := range categoryTable {
		count := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lowerText, kw) || strings.Contains(lowerMerchant, kw) {
				count++
			}
		}
		if count > best {
			category = entry.name
			best = count
		}
	}

	return category, best
}

// CategoryNames returns the fixed category set in table order, without the
// CategoryOther fallback.
func CategoryNames() []string {
	names := make([]string, 0, len(categoryTable))
	for _, entry := range categoryTable {
		names = append(names, entry.name)
	}
	return names
}
