package reconcile

import (
	"sort"
	"strings"

	"ioc-sync/core/indicator"
)

// Compared field names, in comparison order. They match the JSON field names.
const (
	FieldAction          = "action"
	FieldSeverity        = "severity"
	FieldSource          = "source"
	FieldDescription     = "description"
	FieldAppliedGlobally = "applied_globally"
	FieldTags            = "tags"
	FieldPlatforms       = "platforms"
	FieldHostGroups      = "host_groups"
)

// existingEntry is the remote record matched for a key plus every id sharing it.
type existingEntry struct {
	record RemoteRecord
	ids    []string
}

// Plan classifies desired records against the existing snapshot.
//
// Desired records sharing a key collapse to the last one, kept at the
// position of the first. Existing records sharing a key are matched on the
// lowest id and reported in Duplicates. Records without an id are ignored.
// When prune is set, every id of an existing key absent from desired is
// deleted, in snapshot order.
func Plan(desired []indicator.Record, existing []RemoteRecord, prune bool) *ReconcilePlan {
	existingIdx, existingOrder := indexExisting(existing)
	desiredIdx, desiredOrder := indexDesired(desired)

	plan := &ReconcilePlan{
		Creates:  []indicator.Record{},
		Updates:  []Update{},
		Deletes:  []string{},
		Existing: len(existing),
	}

	for _, key := range desiredOrder {
		want := desiredIdx[key]
		cur, ok := existingIdx[key]
		if !ok {
			plan.Creates = append(plan.Creates, want)
			continue
		}
		changes := Diff(want, cur.record)
		if len(changes) == 0 {
			plan.Unchanged++
			continue
		}
		plan.Updates = append(plan.Updates, Update{
			Record:  want.WithID(cur.record.ID),
			Changes: changes,
		})
	}

	for _, key := range existingOrder {
		entry := existingIdx[key]
		if len(entry.ids) > 1 {
			ids := append([]string(nil), entry.ids...)
			sort.Strings(ids)
			plan.Duplicates = append(plan.Duplicates, DuplicateKey{Key: key, IDs: ids, Kept: entry.record.ID})
		}
		if !prune {
			continue
		}
		if _, ok := desiredIdx[key]; !ok {
			plan.Deletes = append(plan.Deletes, entry.ids...)
		}
	}

	plan.Summary = PlanSummary{
		Create:    len(plan.Creates),
		Update:    len(plan.Updates),
		Delete:    len(plan.Deletes),
		Unchanged: plan.Unchanged,
	}
	return plan
}

// PlanRemoval builds a plan deleting every record in the snapshot.
func PlanRemoval(existing []RemoteRecord) *ReconcilePlan {
	plan := &ReconcilePlan{
		Creates:  []indicator.Record{},
		Updates:  []Update{},
		Deletes:  []string{},
		Existing: len(existing),
	}
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		if rec.ID == "" {
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		plan.Deletes = append(plan.Deletes, rec.ID)
	}
	plan.Summary = PlanSummary{Delete: len(plan.Deletes)}
	return plan
}

// Diff returns the names of the compared fields that differ between a desired
// record and its remote counterpart. Scalars compare exactly; lists compare as
// case-insensitive sets.
func Diff(want indicator.Record, have RemoteRecord) []string {
	var changes []string
	if want.Action != have.Action {
		changes = append(changes, FieldAction)
	}
	if want.Severity != have.Severity {
		changes = append(changes, FieldSeverity)
	}
	if want.Source != have.Source {
		changes = append(changes, FieldSource)
	}
	if want.Description != have.Description {
		changes = append(changes, FieldDescription)
	}
	if want.AppliedGlobally != have.AppliedGlobally {
		changes = append(changes, FieldAppliedGlobally)
	}
	if !sameSet(want.Tags, have.Tags) {
		changes = append(changes, FieldTags)
	}
	if !sameSet(want.Platforms, have.Platforms) {
		changes = append(changes, FieldPlatforms)
	}
	if !sameSet(want.HostGroups, have.HostGroups) {
		changes = append(changes, FieldHostGroups)
	}
	return changes
}

// sameSet compares two lists as sorted, lowercased sequences. A nil list
// equals an empty one.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := normalizedList(a), normalizedList(b)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func normalizedList(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.ToLower(v)
	}
	sort.Strings(out)
	return out
}

func indexDesired(desired []indicator.Record) (map[Key]indicator.Record, []Key) {
	idx := make(map[Key]indicator.Record, len(desired))
	order := make([]Key, 0, len(desired))
	for _, rec := range desired {
		key := KeyOf(rec.Kind, rec.Value)
		if _, ok := idx[key]; !ok {
			order = append(order, key)
		}
		idx[key] = rec
	}
	return idx, order
}

func indexExisting(existing []RemoteRecord) (map[Key]*existingEntry, []Key) {
	idx := make(map[Key]*existingEntry, len(existing))
	order := make([]Key, 0, len(existing))
	for _, rec := range existing {
		if rec.ID == "" {
			continue
		}
		key := rec.Key()
		entry, ok := idx[key]
		if !ok {
			idx[key] = &existingEntry{record: rec, ids: []string{rec.ID}}
			order = append(order, key)
			continue
		}
		if containsID(entry.ids, rec.ID) {
			continue
		}
		entry.ids = append(entry.ids, rec.ID)
		if rec.ID < entry.record.ID {
			entry.record = rec
		}
	}
	return idx, order
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
