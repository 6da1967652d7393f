// Package service orchestrates the store and the pure engines: it loads
// batch snapshots, recomputes derived allergen sets at save time, and runs
// assessments.
//
// Computation is synchronous once data is in memory; the only suspension
// points are store reads and writes. Concurrent edits from a second staff
// user are not guarded against - last write wins.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kitchenops/allergycheck/internal/aggregate"
	"github.com/kitchenops/allergycheck/internal/assess"
	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
	"github.com/kitchenops/allergycheck/internal/store"
)

// Service is the entry point the presentation layer calls into.
type Service struct {
	store *store.Store
	log   *slog.Logger
}

// New wires a service around an open store. A nil logger defaults to
// slog.Default().
func New(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, log: logger}
}

// Store exposes the underlying store for direct CRUD the service does not
// wrap (ingredient and supplier-item writes need no recomputation).
func (s *Service) Store() *store.Store {
	return s.store
}

// Snapshot batch-loads the entity graph: one set of independent reads
// treated as a consistent-enough view for the duration of one interaction.
// Failures are logged and surfaced; no automatic retry.
func (s *Service) Snapshot(ctx context.Context) (*aggregate.Snapshot, error) {
	ingredients, err := s.store.ListIngredients(ctx)
	if err != nil {
		return nil, s.storeFailed("list ingredients", err)
	}
	supplierItems, err := s.store.ListSupplierItems(ctx)
	if err != nil {
		return nil, s.storeFailed("list supplier items", err)
	}
	components, err := s.store.ListComponents(ctx)
	if err != nil {
		return nil, s.storeFailed("list components", err)
	}
	dishes, err := s.store.ListDishes(ctx)
	if err != nil {
		return nil, s.storeFailed("list dishes", err)
	}
	componentItems, err := s.store.ComponentItems(ctx)
	if err != nil {
		return nil, s.storeFailed("list component links", err)
	}
	dishItems, err := s.store.DishItems(ctx)
	if err != nil {
		return nil, s.storeFailed("list dish links", err)
	}

	return aggregate.NewSnapshot(ingredients, supplierItems, components, dishes, componentItems, dishItems), nil
}

func (s *Service) storeFailed(op string, err error) error {
	s.log.Error("store operation failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

// SaveComponent creates or updates a component together with its
// constituent set. The derived Allergens field is recomputed here from the
// proposed constituents - staff input for it is ignored - and persisted
// with the links. A constituent set that would make the component contain
// itself fails with a CycleError before anything is written.
//
// Pass comp with an empty ID to create.
func (s *Service) SaveComponent(ctx context.Context, comp menu.Component, items []menu.Constituent) (menu.Component, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return menu.Component{}, err
	}

	// Overlay the proposed state so aggregation sees the new constituent
	// set, not the persisted one.
	id := comp.ID
	if id == "" {
		id = "pending:" + comp.Name
	}
	probe := comp
	probe.ID = id
	snap.Components[id] = probe
	snap.ComponentItems[id] = items

	contains, err := snap.ComponentContains(id)
	if err != nil {
		return menu.Component{}, err
	}
	comp.Allergens = contains.Sorted()

	if comp.ID == "" {
		created, err := s.store.CreateComponent(ctx, comp, items)
		if err != nil {
			return menu.Component{}, err
		}
		return created, nil
	}
	if err := s.store.UpdateComponent(ctx, comp, items); err != nil {
		return menu.Component{}, err
	}
	return comp, nil
}

// SaveDish creates or updates a dish together with its constituent set,
// recomputing and persisting the derived Allergens field.
//
// Pass dish with an empty ID to create.
func (s *Service) SaveDish(ctx context.Context, dish menu.Dish, items []menu.Constituent) (menu.Dish, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return menu.Dish{}, err
	}

	id := dish.ID
	if id == "" {
		id = "pending:" + dish.Name
	}
	probe := dish
	probe.ID = id
	snap.Dishes[id] = probe
	snap.DishItems[id] = items

	contains, err := snap.DishContains(id)
	if err != nil {
		return menu.Dish{}, err
	}
	dish.Allergens = contains.Sorted()

	if dish.ID == "" {
		created, err := s.store.CreateDish(ctx, dish, items)
		if err != nil {
			return menu.Dish{}, err
		}
		return created, nil
	}
	if err := s.store.UpdateDish(ctx, dish, items); err != nil {
		return menu.Dish{}, err
	}
	return dish, nil
}

// RecomputeAllergens refreshes the persisted derived allergen set of every
// component and dish from the current graph. Used after bulk import, where
// entities may arrive before their constituents' tags.
func (s *Service) RecomputeAllergens(ctx context.Context) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	for id := range snap.Components {
		contains, err := snap.ComponentContains(id)
		if err != nil {
			return err
		}
		if err := s.store.SetComponentAllergens(ctx, id, contains.Sorted()); err != nil {
			return s.storeFailed("set component allergens", err)
		}
	}
	for id := range snap.Dishes {
		contains, err := snap.DishContains(id)
		if err != nil {
			return err
		}
		if err := s.store.SetDishAllergens(ctx, id, contains.Sorted()); err != nil {
			return s.storeFailed("set dish allergens", err)
		}
	}
	return nil
}

// AssessDish runs the decision engine against one dish.
// Selected allergens outside the catalog are rejected up front.
func (s *Service) AssessDish(ctx context.Context, dishID string, selected []catalog.Allergen, severity assess.Severity, crossContactConcern bool) (assess.Assessment, error) {
	for _, a := range selected {
		if !catalog.IsKnown(a) {
			return assess.Assessment{}, fmt.Errorf("unknown allergen %q", a)
		}
	}
	if !severity.Valid() {
		return assess.Assessment{}, fmt.Errorf("unknown severity %q", severity)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return assess.Assessment{}, err
	}
	items, err := snap.ResolveDishItems(dishID)
	if err != nil {
		return assess.Assessment{}, err
	}
	return assess.Assess(items, selected, severity, crossContactConcern), nil
}

// FindDishes returns the dishes whose name or station contains the query,
// case-insensitively, in name order. An empty query matches everything.
func FindDishes(snap *aggregate.Snapshot, query string) []menu.Dish {
	q := strings.ToLower(query)
	var out []menu.Dish
	for _, d := range snap.Dishes {
		if strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Station), q) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		an, bn := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if an != bn {
			return an < bn
		}
		return out[i].ID < out[j].ID
	})
	return out
}
