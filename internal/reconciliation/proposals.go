package reconciliation

import (
	"receipts/internal/fields"
	"receipts/pkg/models"
)

// IdentityIndex maps stringified item identity values to item positions.
type IdentityIndex map[string]int

// BuildIdentityIndex indexes every identity candidate of every item. The
// first item to claim a value keeps it.
func BuildIdentityIndex(items []models.LineItem) IdentityIndex {
	index := make(IdentityIndex)
	for pos, item := range items {
		for _, key := range fields.ItemIdentityKeys {
			value, ok := item.Identity[key]
			if !ok || value == "" {
				continue
			}
			if _, taken := index[value]; !taken {
				index[value] = pos
			}
		}
	}
	return index
}

// ResolveItemIndex picks the item a raw proposal belongs to:
//
//  1. an explicit integer item_index inside [0, itemCount), zero included
//  2. the first of the proposal's item keys found in the identity index
//  3. min(loopIndex, itemCount-1), or 0 without items
func ResolveItemIndex(proposal map[string]any, index IdentityIndex, itemCount, loopIndex int) int {
	for _, key := range fields.ProposalKeys.ItemIndex {
		if explicit, ok := fields.Integer(proposal[key]); ok && explicit >= 0 && explicit < itemCount {
			return explicit
		}
	}

	for _, key := range fields.ProposalItemKeys {
		value := fields.String(proposal[key])
		if value == "" {
			continue
		}
		if pos, ok := index[value]; ok {
			return pos
		}
	}

	return ClampIndex(loopIndex, itemCount)
}

// ClampIndex bounds a loop position to a valid item position, 0 when
// there are no items.
func ClampIndex(loopIndex, itemCount int) int {
	if itemCount <= 0 || loopIndex < 0 {
		return 0
	}
	if loopIndex > itemCount-1 {
		return itemCount - 1
	}
	return loopIndex
}

// NormaliseProposals reads the accounting proposals of a modal payload and
// ties each to an item. Emission order follows the raw list.
func NormaliseProposals(payload map[string]any, items []models.LineItem) []models.AccountingProposal {
	raw := fields.FirstNonEmptyArray(payload, fields.ProposalArrayKeys)
	if len(raw) == 0 {
		return []models.AccountingProposal{}
	}

	index := BuildIdentityIndex(items)
	proposals := make([]models.AccountingProposal, 0, len(raw))
	for i, entry := range raw {
		m := fields.Object(entry)
		p := NormaliseProposal(m)
		p.ItemIndex = ResolveItemIndex(m, index, len(items), i)
		proposals = append(proposals, p)
	}
	return proposals
}

// NormaliseProposal maps the fields of one raw proposal. ItemIndex is left
// for the caller to resolve.
func NormaliseProposal(raw map[string]any) models.AccountingProposal {
	keys := fields.ProposalKeys
	idKey, id := fields.CoalesceKey(raw, keys.ID)

	return models.AccountingProposal{
		ID:      id,
		IDKey:   idKey,
		Account: fields.CoalesceString(raw, keys.Account),
		Debit:   fields.CoalesceNumber(raw, keys.Debit),
		Credit:  fields.CoalesceNumber(raw, keys.Credit),
		VatRate: fields.CoalesceNumber(raw, keys.VatRate),
		Notes:   fields.CoalesceString(raw, keys.Notes),
		Extra: fields.Rest(raw,
			[]string{idKey}, keys.ItemIndex, keys.Account, keys.Debit, keys.Credit, keys.VatRate, keys.Notes,
		),
	}
}

// GroupByItem buckets proposals under their items in emission order. A
// proposal pointing past the last item lands in the last bucket. Without
// items there are no buckets.
func GroupByItem(items []models.LineItem, proposals []models.AccountingProposal) [][]models.AccountingProposal {
	if len(items) == 0 {
		return nil
	}

	groups := make([][]models.AccountingProposal, len(items))
	for _, p := range proposals {
		pos := ClampIndex(p.ItemIndex, len(items))
		groups[pos] = append(groups[pos], p)
	}
	return groups
}
