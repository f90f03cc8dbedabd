package solanapay

import "strings"

// isInsufficientFundsSOLError reports whether err indicates the fee
// payer lacked enough SOL to cover network fees.
func isInsufficientFundsSOLError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient lamports") ||
		(strings.Contains(msg, "insufficient funds") && strings.Contains(msg, "fee payer"))
}
