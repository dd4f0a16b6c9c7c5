package vault

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Scan merges the attributes of every node v observes (identical
// resolution rule to ForEachValue: higher volume priority wins) into a
// plain map and decodes that map into target using mapstructure, the way
// a caller would populate a struct from a subtree without walking
// ForEachValue by hand.
func (v *NodeView) Scan(target any) error {
	merged := make(map[string]any)
	v.ForEachValue(func(name string, val Value) {
		merged[name] = valueToAny(val)
	})

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("vault: scan: %w", err)
	}
	if err := decoder.Decode(merged); err != nil {
		return fmt.Errorf("vault: scan: %w", err)
	}
	return nil
}
