package gallery

import (
	"encoding/json"
	"sort"

	"pearl_backend/localstore"
)

const FavoritesKey = "apop_favorites"

// Favorites is the set of recipe ids a browser has hearted.
type Favorites map[string]struct{}

// ParseFavorites decodes a JSON array of ids. Anything malformed is treated
// as no favorites.
func ParseFavorites(raw string) Favorites {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return Favorites{}
	}
	f := make(Favorites, len(ids))
	for _, id := range ids {
		f[id] = struct{}{}
	}
	return f
}

func (f Favorites) Has(id string) bool {
	_, ok := f[id]
	return ok
}

// Toggle flips id and reports whether it is now a favorite.
func (f Favorites) Toggle(id string) bool {
	if f.Has(id) {
		delete(f, id)
		return false
	}
	f[id] = struct{}{}
	return true
}

func (f Favorites) IDs() []string {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f Favorites) Encode() string {
	b, _ := json.Marshal(f.IDs())
	return string(b)
}

// LoadFavorites reads the favorites set from s; a missing or unreadable
// value is an empty set.
func LoadFavorites(s localstore.Store) Favorites {
	raw, err := s.Get(FavoritesKey)
	if err != nil {
		return Favorites{}
	}
	return ParseFavorites(raw)
}

// SaveFavorites writes f back to s. Failures are ignored.
func SaveFavorites(s localstore.Store, f Favorites) {
	_ = s.Set(FavoritesKey, f.Encode())
}
