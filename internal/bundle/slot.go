package bundle

import (
	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/sound"
)

// Slot is the sound a category will play under a configuration.
type Slot struct {
	Category sound.Category `json:"category" yaml:"category"`
	Asset    string         `json:"asset" yaml:"asset"`
	Source   string         `json:"source" yaml:"source"`
	Size     int64          `json:"size" yaml:"size"`
	Override bool           `json:"override" yaml:"override"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Slots resolves every category against cfg: the configured override when
// set, otherwise the bundled default. Unresolvable sounds are reported in
// Slot.Error rather than failing the whole listing.
func (b *Bundle) Slots(cfg *config.Config) []Slot {
	slots := make([]Slot, 0, len(sound.Categories()))
	for _, c := range sound.Categories() {
		ref := cfg.SoundOverride(c.Title())
		slot := Slot{Category: c, Asset: ref, Override: ref != ""}
		if ref == "" {
			slot.Asset = c.DefaultAsset()
		}

		entry, err := b.Describe(slot.Asset)
		if err != nil {
			slot.Error = err.Error()
		} else {
			slot.Source = entry.Source
			slot.Size = entry.Size
		}
		slots = append(slots, slot)
	}
	return slots
}
