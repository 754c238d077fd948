package mirror

// Kind identifies an entity collection. Values match the section names of
// the upstream sync status document, which double as progress-table keys.
type Kind string

const (
	KindRecipes            Kind = "recipes"
	KindPhotos             Kind = "photos"
	KindMealTypes          Kind = "mealtypes"
	KindMeals              Kind = "meals"
	KindMenus              Kind = "menus"
	KindMenuItems          Kind = "menuitems"
	KindGroceries          Kind = "groceries"
	KindGroceryAisles      Kind = "groceryaisles"
	KindGroceryLists       Kind = "grocerylists"
	KindGroceryIngredients Kind = "groceryingredients"
	KindPantry             Kind = "pantry"
	KindBookmarks          Kind = "bookmarks"
	KindCategories         Kind = "categories"
)

// AllKinds lists every synced collection.
var AllKinds = []Kind{
	KindRecipes,
	KindPhotos,
	KindMealTypes,
	KindMeals,
	KindMenus,
	KindMenuItems,
	KindGroceries,
	KindGroceryAisles,
	KindGroceryLists,
	KindGroceryIngredients,
	KindPantry,
	KindBookmarks,
	KindCategories,
}

// kindDeps is the static reference graph between collections: for each
// kind, the kinds it holds foreign keys into. Kinds connected through this
// graph (in either direction) must commit in one transaction so deferred
// constraint checking can see both sides of every reference.
var kindDeps = map[Kind][]Kind{
	KindRecipes:            {KindCategories},
	KindPhotos:             {KindRecipes},
	KindMeals:              {KindRecipes, KindMealTypes},
	KindMenuItems:          {KindRecipes, KindMenus, KindMealTypes},
	KindGroceries:          {KindRecipes, KindGroceryAisles, KindGroceryLists},
	KindPantry:             {KindGroceryAisles},
	KindGroceryIngredients: {KindGroceryAisles},
}

// clusterKinds partitions the touched kinds into connected components of
// the reference graph. Edges to kinds outside the touched set are ignored:
// an untouched parent collection is already consistent in the store, so it
// cannot force two otherwise independent groups into one transaction.
// Output order is deterministic (AllKinds order, both across and within
// clusters) so transaction scheduling is reproducible.
func clusterKinds(touched []Kind) [][]Kind {
	inPass := make(map[Kind]bool, len(touched))
	for _, k := range touched {
		inPass[k] = true
	}

	parent := make(map[Kind]Kind, len(touched))
	for _, k := range touched {
		parent[k] = k
	}
	var find func(Kind) Kind
	find = func(k Kind) Kind {
		if parent[k] != k {
			parent[k] = find(parent[k])
		}
		return parent[k]
	}
	union := func(a, b Kind) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, k := range touched {
		for _, dep := range kindDeps[k] {
			if inPass[dep] {
				union(k, dep)
			}
		}
	}

	groups := make(map[Kind][]Kind)
	for _, k := range AllKinds {
		if inPass[k] {
			root := find(k)
			groups[root] = append(groups[root], k)
		}
	}

	var clusters [][]Kind
	seen := make(map[Kind]bool)
	for _, k := range AllKinds {
		if !inPass[k] {
			continue
		}
		root := find(k)
		if !seen[root] {
			seen[root] = true
			clusters = append(clusters, groups[root])
		}
	}
	return clusters
}
