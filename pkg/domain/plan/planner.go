package plan

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
)

// DefaultPreviewBudget bounds the body excerpt attached to a diff.
const DefaultPreviewBudget = 200

// Planner computes plans. The zero value is usable.
type Planner struct {
	// PreviewBudget caps the diff preview length in characters.
	// Zero means DefaultPreviewBudget.
	PreviewBudget int
}

func NewPlanner() *Planner {
	return &Planner{}
}

// Plan matches specs against remote records and the persisted mapping and
// returns the slug-ordered operations needed to converge. Remote-only
// records are left alone unless prune is set, and even then only records the
// engine manages (marker present or referenced by the mapping) are closed.
func (p *Planner) Plan(specs []spec.Spec, records []tracker.Record, known map[string]Known, prune bool) []Item {
	byID := make(map[string]tracker.Record, len(records))
	byMarker := make(map[string]tracker.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
		if slug, ok := tracker.ExtractSlug(r.Body); ok {
			if _, dup := byMarker[slug]; !dup {
				byMarker[slug] = r
			}
		}
	}

	items := make([]Item, 0, len(specs))
	matchedIDs := make(map[string]bool, len(specs))

	for _, s := range specs {
		record, entry, matched := match(s.Slug, byID, byMarker, known)
		if !matched {
			items = append(items, Item{Slug: s.Slug, Action: ActionCreate, Hash: s.Hash()})
			continue
		}
		matchedIDs[record.ID] = true

		hash := s.Hash()
		if entry.Hash != "" && entry.Hash == hash {
			// Fast path: nothing changed since the last sync we performed.
			items = append(items, Item{Slug: s.Slug, Action: ActionSkip, RemoteID: record.ID, Hash: hash})
			continue
		}

		changes := p.Diff(s, record)
		if !changes.Any() {
			items = append(items, Item{Slug: s.Slug, Action: ActionSkip, RemoteID: record.ID, Hash: hash})
			continue
		}
		items = append(items, Item{Slug: s.Slug, Action: ActionUpdate, RemoteID: record.ID, Hash: hash, Changes: &changes})
	}

	if prune {
		items = append(items, p.closes(records, specs, known, matchedIDs)...)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Slug < items[j].Slug })
	return items
}

// match resolves a spec to its remote record: a live mapping identifier wins;
// the embedded marker is consulted only when the mapping has no entry.
func match(slug string, byID, byMarker map[string]tracker.Record, known map[string]Known) (tracker.Record, Known, bool) {
	if entry, ok := known[slug]; ok {
		if record, live := byID[entry.ID]; live {
			return record, entry, true
		}
		// Mapping points at a record that no longer exists remotely; fall
		// through to marker recovery before declaring the spec unmatched.
	}
	if record, ok := byMarker[slug]; ok {
		return record, Known{}, true
	}
	return tracker.Record{}, Known{}, false
}

func (p *Planner) closes(records []tracker.Record, specs []spec.Spec, known map[string]Known, matchedIDs map[string]bool) []Item {
	slugs := make(map[string]bool, len(specs))
	for _, s := range specs {
		slugs[s.Slug] = true
	}
	mappedSlugByID := make(map[string]string, len(known))
	for slug, entry := range known {
		mappedSlugByID[entry.ID] = slug
	}

	var items []Item
	for _, r := range records {
		if matchedIDs[r.ID] || r.State == tracker.StateClosed {
			continue
		}
		slug, managed := tracker.ExtractSlug(r.Body)
		if !managed {
			slug, managed = mappedSlugByID[r.ID], mappedSlugByID[r.ID] != ""
		}
		if !managed || slugs[slug] {
			continue
		}
		items = append(items, Item{Slug: slug, Action: ActionClose, RemoteID: r.ID})
	}
	return items
}

// Diff computes the field-level changes needed to move a record to the
// spec's declared state. It is the comparison primitive the reconciler
// shares.
func (p *Planner) Diff(s spec.Spec, r tracker.Record) Changes {
	var c Changes

	c.TitleChanged = s.Title != r.Title

	specBody := strings.TrimSpace(s.Body)
	remoteBody := tracker.StripMarker(r.Body)
	if specBody != remoteBody {
		c.BodyChanged = true
		c.Preview = truncate(specBody, p.budget())
	}

	// Explicit removal counts: a value going to empty is a change.
	c.MilestoneChanged = s.Milestone != r.Milestone

	wantState := tracker.StateOpen
	if s.Status == spec.StatusClosed {
		wantState = tracker.StateClosed
	}
	c.StatusChanged = wantState != r.State

	c.LabelsAdded, c.LabelsRemoved = setDiff(s.Labels, r.Labels)
	added, removed := setDiff(s.Assignees, r.Assignees)
	c.AssigneesChanged = len(added) > 0 || len(removed) > 0

	return c
}

func (p *Planner) budget() int {
	if p.PreviewBudget > 0 {
		return p.PreviewBudget
	}
	return DefaultPreviewBudget
}

func setDiff(want, have []string) (added, removed []string) {
	wantSet := toSet(want)
	haveSet := toSet(have)
	for v := range wantSet {
		if !haveSet[v] {
			added = append(added, v)
		}
	}
	for v := range haveSet {
		if !wantSet[v] {
			removed = append(removed, v)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// truncate cuts on a rune boundary so a multi-byte character straddling the
// budget never yields an invalid preview.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
