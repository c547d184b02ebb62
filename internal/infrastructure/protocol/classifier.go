package protocol

import (
	"strings"

	"credit_aggregator/internal/domain/entity"
)

// classRule maps function-name substrings onto an interaction class.
type classRule struct {
	needles []string
	class   entity.InteractionType
}

// classRules is evaluated top to bottom; the first rule with a matching needle wins.
// It is a best-effort heuristic over explorer-reported function names, not a decoder.
var classRules = []classRule{
	{needles: []string{"flashloan"}, class: entity.InteractionFlashloan},
	{needles: []string{"liquidat"}, class: entity.InteractionLiquidate},
	{needles: []string{"repay"}, class: entity.InteractionRepay},
	{needles: []string{"borrow"}, class: entity.InteractionBorrow},
	{needles: []string{"withdraw", "redeem"}, class: entity.InteractionWithdraw},
	{needles: []string{"supply", "deposit", "provide"}, class: entity.InteractionDeposit},
}

// Classify maps a function name such as "supply(address asset, uint256 amount)"
// onto an interaction class. Only the name before the parameter list is matched.
func Classify(functionName string) (entity.InteractionType, bool) {
	name := functionName
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}

	for _, rule := range classRules {
		for _, needle := range rule.needles {
			if strings.Contains(name, needle) {
				return rule.class, true
			}
		}
	}
	return "", false
}
