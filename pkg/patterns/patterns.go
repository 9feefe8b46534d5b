// Package patterns owns the regular-expression and keyword tables used to
// extract transaction fields from SMS and notification text. All operations
// are pure lookups over statically compiled tables.
package patterns

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

// The amount pattern lists are ordered by priority: more specific and more
// reliable phrasings come first, and the first successful match wins. Adding
// patterns is safe; reordering them changes observable behavior.
var debitPatterns = []*regexp.Regexp{
	// "Rs.1,250.00 debited", "INR 500 has been debited"
	regexp.MustCompile(`(?i)(?:\brs\.?|\binr\b|₹)\s*([\d,]+(?:\.\d{1,2})?)\s*(?:is\s+|has\s+been\s+|was\s+)?debited`),
	// "debited by Rs.500", "debited with INR 1,200.50"
	regexp.MustCompile(`(?i)debited\s+(?:by|with|for)?\s*(?:\brs\.?|\binr\b|₹)?\s*([\d,]+(?:\.\d{1,2})?)`),
	// "You've spent Rs.2200 On HDFC Bank CREDIT Card"
	regexp.MustCompile(`(?i)spent\s+(?:\brs\.?|\binr\b|₹)?\s*([\d,]+(?:\.\d{1,2})?)`),
	// "paid Rs.99", "payment of Rs.1,499"
	regexp.MustCompile(`(?i)(?:\bpaid|payment\s+of)\s+(?:\brs\.?|\binr\b|₹)?\s*([\d,]+(?:\.\d{1,2})?)`),
	// "sent Rs.40"
	regexp.MustCompile(`(?i)\bsent\s+(?:\brs\.?|\binr\b|₹)?\s*([\d,]+(?:\.\d{1,2})?)`),
	// "Rs 40.00 sent/transferred/withdrawn"
	regexp.MustCompile(`(?i)(?:\brs\.?|\binr\b|₹)\s*([\d,]+(?:\.\d{1,2})?)\s+(?:sent|transferred|withdrawn)`),
	// UPI alerts that carry no verb near the amount
	regexp.MustCompile(`(?i)\bupi\b.*?(?:\brs\.?|\binr\b|₹)\s*([\d,]+(?:\.\d{1,2})?)`),
}

var creditPatterns = []*regexp.Regexp{
	// "Rs.9,000.00 credited", "INR 500 has been credited"
	regexp.MustCompile(`(?i)(?:\brs\.?|\binr\b|₹)\s*([\d,]+(?:\.\d{1,2})?)\s*(?:is\s+|has\s+been\s+|was\s+)?credited`),
	// "credited with Rs.2,000"
	regexp.MustCompile(`(?i)credited\s+(?:by|with)?\s*(?:\brs\.?|\binr\b|₹)?\s*([\d,]+(?:\.\d{1,2})?)`),
	// "you've received INR 9,000.00"
	regexp.MustCompile(`(?i)received\s+(?:\brs\.?|\binr\b|₹)?\s*([\d,]+(?:\.\d{1,2})?)`),
	// "Rs.500 received/deposited/added"
	regexp.MustCompile(`(?i)(?:\brs\.?|\binr\b|₹)\s*([\d,]+(?:\.\d{1,2})?)\s+(?:received|deposited|added)`),
	// "deposited Rs.1,100.00"
	regexp.MustCompile(`(?i)(?:deposited|added)\s+(?:\brs\.?|\binr\b|₹)?\s*([\d,]+(?:\.\d{1,2})?)`),
}

// Merchant names in bank alerts are uppercase-led runs of words, digits and
// a few punctuation characters, bounded to avoid over-capture. Ordered by
// reliability of the introducing phrase; first match wins.
var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:paid\s+to|payment\s+to)\s+([A-Z][A-Za-z0-9&.\- ]{1,28}?)(?:\s+(?i:on|via|using|ref|upi)\b|[.,;\n]|$)`),
	regexp.MustCompile(`(?i:\bat)\s+([A-Z][A-Za-z0-9&.\- ]{1,28}?)(?:\s+(?i:on|via|using|ref|upi)\b|[.,;\n]|$)`),
	regexp.MustCompile(`(?i:\bto)\s+([A-Z][A-Za-z0-9&.\- ]{1,28}?)(?:\s+(?i:on|via|using|ref|upi)\b|[.,;\n]|$)`),
	regexp.MustCompile(`(?i:\bfrom)\s+([A-Z][A-Za-z0-9&.\- ]{1,28}?)(?:\s+(?i:on|via|using|ref|upi)\b|[.,;\n]|$)`),
	// "spent Rs.500 on AMAZON"; the uppercase-led capture keeps this from
	// swallowing "on 05-06-2024" style dates.
	regexp.MustCompile(`(?i:\bon)\s+([A-Z][A-Za-z0-9&.\- ]{1,28}?)(?:\s+(?i:on|via|using|ref|upi)\b|[.,;\n]|$)`),
}

var legalSuffixes = []string{"pvt ltd", "private limited", "pvt", "private", "ltd", "limited", "inc", "llc"}

var datePatterns = []*regexp.Regexp{
	// 05-06-2024, 5/6/24
	regexp.MustCompile(`\b(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})\b`),
	// 05 Jun 2024, 5 June 2024
	regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{4})\b`),
}

// dateLayouts to try against a matched date substring. Day-first ordering
// throughout: Indian bank SMS write 05-06-2024 for June 5th.
var dateLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2-1-06",
	"2/1/06",
	"2 Jan 2006",
	"2 January 2006",
}

// cardRefPattern captures the trailing four digits after "card ending" /
// "a/c" phrasing. Extracted for diagnostics only; not part of the candidate
// record.
var cardRefPattern = regexp.MustCompile(`(?i)(?:card\s+(?:ending(?:\s+(?:with|in))?|no\.?)|a/c(?:\s+no\.?)?)\s*[x*]*\s*(\d{4})\b`)

var creditKeywordRe = regexp.MustCompile(`(?i)\b(credited|received|deposited|refund(?:ed)?|cashback|added)\b`)

// ExtractAmount returns the first positive amount captured by the pattern
// list for the given direction. Commas are stripped before parsing; a capture
// that fails to parse, or parses to a non-positive or non-finite value, is
// treated as no match and the next pattern is tried.
func ExtractAmount(text string, txType api.TransactionType) (float64, bool) {
	list := debitPatterns
	if txType == api.Income {
		list = creditPatterns
	}

	for _, re := range list {
		matches := re.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}

		raw := strings.ReplaceAll(matches[1], ",", "")
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
			continue
		}
		return amount, true
	}

	return 0, false
}

// ExtractMerchant returns the first merchant name captured by the pattern
// list, trimmed and with trailing legal-entity suffixes stripped.
func ExtractMerchant(text string) (string, bool) {
	for _, re := range merchantPatterns {
		matches := re.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}

		name := stripLegalSuffix(matches[1])
		if name != "" {
			return name, true
		}
	}

	return "", false
}

func stripLegalSuffix(name string) string {
	name = strings.Trim(name, " .-")
	for {
		lower := strings.ToLower(name)
		stripped := false
		for _, suffix := range legalSuffixes {
			if strings.HasSuffix(lower, " "+suffix) {
				name = strings.Trim(name[:len(name)-len(suffix)-1], " .-")
				stripped = true
				break
			}
		}
		if !stripped {
			return name
		}
	}
}

// ExtractDate returns the first date substring that parses into a valid
// calendar date, or fallback unchanged if none does. A matched substring
// that fails to parse is silently skipped.
func ExtractDate(text string, fallback time.Time) time.Time {
	for _, re := range datePatterns {
		matches := re.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}

		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, matches[1]); err == nil {
				return d
			}
		}
	}

	return fallback
}

// ExtractCardReference returns the last four digits of the card or account
// mentioned in the text.
func ExtractCardReference(text string) (string, bool) {
	matches := cardRefPattern.FindStringSubmatch(text)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// DetermineType classifies the message direction. Credit, refund and deposit
// keywords mean income; everything else, including ambiguous text, is an
// expense.
func DetermineType(text string) api.TransactionType {
	if creditKeywordRe.MatchString(text) {
		return api.Income
	}
	return api.Expense
}
