// Package mask rewrites message text with placeholder tokens for detected
// sensitive values and provides the reverse map.
//
// Replacement is literal substring substitution, not regex re-matching. That
// makes it robust to the value appearing verbatim elsewhere in the message,
// at the cost of also replacing coincidental occurrences of the identical
// string. The trade-off deliberately favors over-masking: a value must never
// leak, a cosmetically misplaced placeholder is safe.
package mask

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msgvault/msgvault/entity"
)

// PlaceholderMap maps placeholder keys ("amount_1") to the original extracted
// values. Keys are unique per extraction batch: type plus 1-based message
// ordinal, never reused within a run.
type PlaceholderMap map[string]string

// Key forms the placeholder key for an entity type at a message ordinal.
func Key(typ entity.Type, ordinal int) string {
	return fmt.Sprintf("%s_%d", typ, ordinal)
}

// Token returns the in-text placeholder token for a key.
func Token(key string) string {
	return "#" + key
}

// maskOrder fixes the substitution order so masked output is deterministic.
var maskOrder = []entity.Type{
	entity.TypeAmount,
	entity.TypeDate,
	entity.TypeRefID,
	entity.TypeReceiver,
	entity.TypeSource,
}

// Message rewrites one message, substituting every detected entity value with
// its placeholder token. ordinal is the message's 1-based position in the
// batch. Returns the masked text and the placeholders introduced for this
// message.
func Message(text string, entities entity.Entities, ordinal int) (string, PlaceholderMap) {
	masked := text
	placeholders := make(PlaceholderMap, len(entities))

	for _, typ := range maskOrder {
		value, ok := entities[typ]
		if !ok {
			continue
		}

		key := Key(typ, ordinal)
		placeholders[key] = value
		token := Token(key)

		masked = strings.ReplaceAll(masked, value, token)

		// Numeric values may appear grouped with commas in the source text
		// (45000 vs 45,000); cover that rendering too.
		if grouped, ok := groupThousands(value); ok {
			masked = strings.ReplaceAll(masked, grouped, token)
		}
	}

	return masked, placeholders
}

// Result aggregates the outcome of masking a batch of messages.
type Result struct {
	// Masked holds one masked message per input, same order, same count.
	Masked []string

	// Placeholders is the combined placeholder map across all inputs.
	Placeholders PlaceholderMap
}

// Messages extracts entities from each message using the given extractor and
// masks them. Ordinals are assigned in input order starting at 1.
func Messages(texts []string, extractor *entity.Extractor) Result {
	result := Result{
		Masked:       make([]string, 0, len(texts)),
		Placeholders: make(PlaceholderMap),
	}

	for i, text := range texts {
		entities := extractor.Extract(text)

		masked, placeholders := Message(text, entities, i+1)
		result.Masked = append(result.Masked, masked)
		for key, value := range placeholders {
			result.Placeholders[key] = value
		}
	}

	return result
}

// Unmask substitutes each placeholder token in masked text back with its
// original value. Text outside masked spans is untouched.
func Unmask(masked string, placeholders PlaceholderMap) string {
	// Longer keys first so "#amount_1" never clobbers "#amount_12".
	keys := make([]string, 0, len(placeholders))
	for key := range placeholders {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	out := masked
	for _, key := range keys {
		out = strings.ReplaceAll(out, Token(key), placeholders[key])
	}
	return out
}

// groupThousands renders an all-digit value with western thousands grouping.
// Returns ok=false for non-numeric values or values too short to group.
func groupThousands(value string) (string, bool) {
	if len(value) < 4 {
		return "", false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return "", false
		}
	}

	var b strings.Builder
	lead := len(value) % 3
	if lead > 0 {
		b.WriteString(value[:lead])
	}
	for i := lead; i < len(value); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(value[i : i+3])
	}
	return b.String(), true
}
