package chunking

import "math"

// AllocatePrices distributes a document's USD price, converted to integer
// base units at the given decimals, across chunks proportionally to their
// character counts. Allocation floors each chunk's share; the remainder
// left over from flooring is not redistributed, matching the upstream
// accounting (the sum of returned prices may be slightly less than the
// total base-unit price).
func AllocatePrices(priceUSD float64, decimals int, charCounts []int) []int64 {
	prices := make([]int64, len(charCounts))
	if len(charCounts) == 0 {
		return prices
	}

	totalBaseUnits := int64(math.Floor(priceUSD * math.Pow10(decimals)))

	totalChars := 0
	for _, c := range charCounts {
		totalChars += c
	}
	if totalChars == 0 {
		return prices
	}

	for i, c := range charCounts {
		prices[i] = int64(float64(c) / float64(totalChars) * float64(totalBaseUnits))
	}
	return prices
}
