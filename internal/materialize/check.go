package materialize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`<!-- (#/(?:tables|pictures)/\d+) -->`)

// CheckReferences verifies the cross-reference invariants of doc: every
// table/picture self_ref is unique and embedded exactly once, in the content
// of the page it claims; every embedded token names an existing entry.
func CheckReferences(doc *Document) error {
	validPages := make(map[int]bool, len(doc.Pages))
	for _, p := range doc.Pages {
		validPages[p.PageNumber] = true
	}

	// self_ref -> page it belongs to
	owners := map[string]int{}
	register := func(kind, selfRef string, page int) error {
		if _, dup := owners[selfRef]; dup {
			return fmt.Errorf("duplicate %s self_ref %s", kind, selfRef)
		}
		if !validPages[page] {
			return fmt.Errorf("%s %s points at missing page %d", kind, selfRef, page)
		}
		owners[selfRef] = page
		return nil
	}
	for _, t := range doc.Tables {
		if err := register("table", t.SelfRef, t.Page); err != nil {
			return err
		}
	}
	for _, img := range doc.Images {
		if err := register("image", img.SelfRef, img.Page); err != nil {
			return err
		}
	}

	seen := map[string]int{}
	for _, p := range doc.Pages {
		for _, m := range tokenPattern.FindAllStringSubmatch(p.Content, -1) {
			ref := m[1]
			page, ok := owners[ref]
			if !ok {
				return fmt.Errorf("page %d references unknown %s", p.PageNumber, ref)
			}
			if page != p.PageNumber {
				return fmt.Errorf("%s embedded on page %d but belongs to page %d", ref, p.PageNumber, page)
			}
			seen[ref]++
		}
	}

	var missing []string
	for ref := range owners {
		switch seen[ref] {
		case 1:
		case 0:
			missing = append(missing, ref)
		default:
			return fmt.Errorf("%s embedded %d times", ref, seen[ref])
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("self_refs never embedded: %s", strings.Join(missing, ", "))
	}
	return nil
}
