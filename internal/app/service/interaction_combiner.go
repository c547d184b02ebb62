package service

import (
	"sort"

	"credit_aggregator/internal/domain/entity"
)

// Combine flattens protocol-specific transactions into normalized interactions,
// most recent first. Equal timestamps keep their input order; nothing is deduplicated.
func Combine(lists ...[]entity.ProtocolTransaction) []entity.ProtocolInteraction {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	interactions := make([]entity.ProtocolInteraction, 0, total)
	for _, l := range lists {
		for _, tx := range l {
			if tx == nil {
				continue
			}
			interactions = append(interactions, tx.Interaction())
		}
	}

	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].Timestamp > interactions[j].Timestamp
	})
	return interactions
}
