package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/sirupsen/logrus"
)

// ToppingGroup is one display group of topping families
type ToppingGroup struct {
	Name     string          `json:"name"`
	Families []models.Family `json:"families"`
}

// MenuService provides the ingredient catalog
type MenuService interface {
	// Ingredients returns the catalog, fetching it on first use
	Ingredients(ctx context.Context) ([]models.Ingredient, error)
	// Refresh refetches the catalog
	Refresh(ctx context.Context) error
	// Lookup resolves an ingredient id, fetching the catalog if needed
	Lookup(ctx context.Context, id int) (models.Ingredient, error)
	// Crusts returns the cached crusts
	Crusts() []models.Ingredient
	// Sauces returns the cached sauces
	Sauces() []models.Ingredient
	// Toppings returns the cached toppings
	Toppings() []models.Ingredient
	// Families groups the cached ingredients of a category by base name
	Families(category models.Category) []models.Family
	// ToppingGroups groups the cached topping families by display group
	ToppingGroups() []ToppingGroup
	// IsLoading reports whether a fetch is in flight
	IsLoading() bool
}

type menuService struct {
	backend client.Backend
	log     *logrus.Entry

	loadLock sync.Mutex

	mu          sync.RWMutex
	ingredients []models.Ingredient
	byID        map[int]models.Ingredient
	loaded      bool
	loading     bool
}

// NewMenuService creates a new instance of MenuService
func NewMenuService(backend client.Backend, logger *logrus.Logger) MenuService {
	return &menuService{
		backend: backend,
		log:     logger.WithField("component", "menu"),
		byID:    make(map[int]models.Ingredient),
	}
}

// cached returns a copy of the catalog so callers cannot edit it
func (s *menuService) cached() ([]models.Ingredient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, false
	}
	return append([]models.Ingredient(nil), s.ingredients...), true
}

func (s *menuService) Ingredients(ctx context.Context) ([]models.Ingredient, error) {
	if ingredients, ok := s.cached(); ok {
		return ingredients, nil
	}

	s.loadLock.Lock()
	defer s.loadLock.Unlock()

	// another caller may have loaded while we waited
	if ingredients, ok := s.cached(); ok {
		return ingredients, nil
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	ingredients, _ := s.cached()
	return ingredients, nil
}

func (s *menuService) Refresh(ctx context.Context) error {
	s.loadLock.Lock()
	defer s.loadLock.Unlock()
	return s.load(ctx)
}

// load fetches the catalog. Callers hold loadLock, so loads never overlap.
func (s *menuService) load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	raw, err := s.backend.ListIngredients(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.log.WithError(err).Warn("Failed to load ingredients")
		return fmt.Errorf("loading ingredients: %w", err)
	}

	ingredients := make([]models.Ingredient, 0, len(raw))
	byID := make(map[int]models.Ingredient, len(raw))
	for _, ing := range raw {
		ing = ing.Normalize()
		if ing.Category == "" {
			s.log.WithField("ingredient_id", ing.ID).Warn("Skipping ingredient without category")
			continue
		}
		ingredients = append(ingredients, ing)
		byID[ing.ID] = ing
	}
	s.ingredients = ingredients
	s.byID = byID
	s.loaded = true
	s.log.WithField("count", len(ingredients)).Debug("Ingredients loaded")
	return nil
}

func (s *menuService) Lookup(ctx context.Context, id int) (models.Ingredient, error) {
	if _, err := s.Ingredients(ctx); err != nil {
		return models.Ingredient{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ing, ok := s.byID[id]
	if !ok {
		return models.Ingredient{}, models.NewValidationError("ingredient", fmt.Sprintf("unknown ingredient %d", id))
	}
	return ing, nil
}

func (s *menuService) byCategory(category models.Category) []models.Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Ingredient
	for _, ing := range s.ingredients {
		if ing.Category == category {
			out = append(out, ing)
		}
	}
	return out
}

func (s *menuService) Crusts() []models.Ingredient {
	return s.byCategory(models.CategoryCrust)
}

func (s *menuService) Sauces() []models.Ingredient {
	return s.byCategory(models.CategorySauce)
}

func (s *menuService) Toppings() []models.Ingredient {
	return s.byCategory(models.CategoryTopping)
}

func (s *menuService) Families(category models.Category) []models.Family {
	return models.GroupFamilies(s.byCategory(category))
}

func (s *menuService) ToppingGroups() []ToppingGroup {
	toppings := s.Toppings()
	var groups []ToppingGroup
	for _, name := range []string{models.GroupVeggies, models.GroupMeats, models.GroupCheese} {
		var members []models.Ingredient
		for _, t := range toppings {
			if t.Group == name {
				members = append(members, t)
			}
		}
		if len(members) > 0 {
			groups = append(groups, ToppingGroup{Name: name, Families: models.GroupFamilies(members)})
		}
	}
	return groups
}

func (s *menuService) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
