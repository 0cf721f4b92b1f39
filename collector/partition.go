package collector

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cyp0633/libeventcal/category"
	"github.com/cyp0633/libeventcal/event"
	"github.com/cyp0633/libeventcal/storage"
)

// Partition splits a result by the folder flags of its entries.
type Partition struct {
	// Dated holds entries below no flagged folder.
	Dated []event.Entry
	// Undated holds entries below a folder flagged as undated.
	Undated []event.Entry
	// Excluded holds entries below a folder flagged as excluded.
	Excluded []event.Entry
	// Expired holds every entry that ended before the reference time,
	// whichever of the other lists it is in.
	Expired []event.Entry
}

// NonExcluded returns the dated entries followed by the undated ones.
func (p *Partition) NonExcluded() []event.Entry {
	out := make([]event.Entry, 0, len(p.Dated)+len(p.Undated))
	out = append(out, p.Dated...)
	return append(out, p.Undated...)
}

// Partition classifies r.Items. Each entry's repository folders are walked
// from the nearest upwards and the first one found in excluded or undated
// decides; excluded wins when a folder is in both lists.
func (r *Result) Partition(ctx context.Context, repo storage.Repository, undated, excluded []string, now time.Time) (*Partition, error) {
	undated = cleanFolders(undated)
	excluded = cleanFolders(excluded)
	ref := now.UnixMilli()

	p := &Partition{}
	for _, e := range r.Items {
		if e.IsExpired(ref) {
			p.Expired = append(p.Expired, e)
		}

		path, err := repo.ResolveItemPath(ctx, itemOf(e))
		if err != nil {
			return nil, fmt.Errorf("resolve path of %s: %w", e.Path, err)
		}
		flag, err := folderFlag(path, undated, excluded)
		if err != nil {
			return nil, err
		}
		switch flag {
		case flagExcluded:
			p.Excluded = append(p.Excluded, e)
		case flagUndated:
			p.Undated = append(p.Undated, e)
		default:
			p.Dated = append(p.Dated, e)
		}
	}
	return p, nil
}

type folderFlagKind int

const (
	flagNone folderFlagKind = iota
	flagUndated
	flagExcluded
)

func folderFlag(path string, undated, excluded []string) (folderFlagKind, error) {
	folder, err := storage.ParentFolder(path)
	if err != nil {
		return flagNone, fmt.Errorf("folder of %s: %w", path, err)
	}
	for folder != "/" {
		if slices.Contains(excluded, folder) {
			return flagExcluded, nil
		}
		if slices.Contains(undated, folder) {
			return flagUndated, nil
		}
		if folder, err = storage.ParentFolder(folder); err != nil {
			return flagNone, fmt.Errorf("folder of %s: %w", path, err)
		}
	}
	return flagNone, nil
}

func cleanFolders(folders []string) []string {
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		out = append(out, storage.CleanFolder(f))
	}
	return out
}

// AssignedFacets counts the categories assigned to the items behind r.Items,
// each mapped to the closest of tops it lies at or below. An entry counts
// once per top category. Assigned categories below none of tops are ignored.
func (r *Result) AssignedFacets(ctx context.Context, repo storage.Repository, tops []string, titles category.TitleResolver) (*category.FacetSet, error) {
	hist := make(map[string]int)
	for _, e := range r.Items {
		assigned, err := repo.ReadCategories(ctx, itemOf(e))
		if err != nil {
			return nil, fmt.Errorf("read categories of %s: %w", e.Path, err)
		}

		seen := make(map[string]bool, len(assigned))
		for _, path := range assigned {
			top, err := category.MatchCategoryOrParent(ctx, tops, path, repo)
			if err != nil {
				return nil, fmt.Errorf("match category %s: %w", path, err)
			}
			if t, ok := top.Get(); ok && !seen[t] {
				seen[t] = true
				hist[t]++
			}
		}
	}
	return category.NewFacetSet("", hist, titles), nil
}

func itemOf(e event.Entry) storage.Item {
	return storage.Item{Path: e.Path, ResourceID: e.ResourceID, StructureID: e.StructureID}
}
