package pipeline

import (
	"github.com/goliatone/go-layouts/pkg/files"
)

// selection partitions the selected files for one run. seeds maps each
// distinct resolved template path to the first file key that referenced it;
// followers holds every other selected file. The two sets are disjoint and
// together cover exactly the selected files.
type selection struct {
	seeds     map[string]string
	followers map[string]files.File
}

func (sel *selection) seedKeys() []string {
	keys := make([]string, 0, len(sel.seeds))
	for _, key := range sel.seeds {
		keys = append(keys, key)
	}
	return keys
}

func (sel *selection) followerKeys() []string {
	keys := make([]string, 0, len(sel.followers))
	for key := range sel.followers {
		keys = append(keys, key)
	}
	return keys
}

// selectFiles scans the collection in its deterministic (sorted-key) order
// and decides which files get a layout. A file is skipped when a configured
// pattern rejects its key and it carries no explicit layout, or when neither
// the file nor the default supplies a layout at all. Selected files get
// their contents coerced to text in place. Seed assignment is strictly
// first-encountered-wins.
func (p *Pipeline) selectFiles(c *files.Collection) *selection {
	s := p.settings
	sel := &selection{
		seeds:     make(map[string]string),
		followers: make(map[string]files.File),
	}

	for _, key := range c.Keys() {
		f, ok := c.Get(key)
		if !ok {
			continue
		}

		layout, _ := f.StringField(s.LayoutKey)
		if s.Pattern != "" && !matchesPattern(s.Pattern, key) && layout == "" {
			continue
		}
		if layout == "" && s.Default == "" {
			continue
		}

		f.Contents()

		resolved := ResolveLayoutPath(s.Directory, layout, s.Default, s.LayoutExtension)
		if _, seeded := sel.seeds[resolved]; !seeded {
			sel.seeds[resolved] = key
			continue
		}
		sel.followers[key] = f
	}

	return sel
}
