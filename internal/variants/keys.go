package variants

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

const (
	legacySizeToken  = "LEGACY_SIZE:"
	legacyColorToken = "LEGACY_COLOR:"
)

// BuildCombinationKey hashes the sorted attribute tokens of a variant together with
// its product id. It returns nil when the variant has no distinguishing attributes,
// in which case no uniqueness applies.
func BuildCombinationKey(productID uuid.UUID, pairs []types.AttributePair, legacySize, legacyColor *uuid.UUID) *string {
	tokens := combinationTokens(pairs, legacySize, legacyColor)
	if len(tokens) == 0 {
		return nil
	}
	sort.Strings(tokens)

	sum := sha1.Sum([]byte(productID.String() + "|" + strings.Join(tokens, "|")))
	key := hex.EncodeToString(sum[:])
	return &key
}

func combinationTokens(pairs []types.AttributePair, legacySize, legacyColor *uuid.UUID) []string {
	tokens := make([]string, 0, len(pairs)+2)
	for _, pair := range pairs {
		if !pair.Complete() {
			continue
		}
		tokens = append(tokens, pair.TypeID.String()+":"+pair.ValueID.String())
	}
	if legacySize != nil && *legacySize != uuid.Nil {
		tokens = append(tokens, legacySizeToken+legacySize.String())
	}
	if legacyColor != nil && *legacyColor != uuid.Nil {
		tokens = append(tokens, legacyColorToken+legacyColor.String())
	}
	return tokens
}

// BuildAttributeIndex maps each attribute type (or legacy slot) to its value for matrix filtering.
func BuildAttributeIndex(pairs []types.AttributePair, legacySize, legacyColor *uuid.UUID) types.AttributeIndex {
	index := make(types.AttributeIndex, len(pairs)+2)
	for _, pair := range pairs {
		if !pair.Complete() {
			continue
		}
		index[pair.TypeID.String()] = pair.ValueID.String()
	}
	if legacySize != nil && *legacySize != uuid.Nil {
		index[types.AttributeIndexLegacySize] = legacySize.String()
	}
	if legacyColor != nil && *legacyColor != uuid.Nil {
		index[types.AttributeIndexLegacyColor] = legacyColor.String()
	}
	return index
}
