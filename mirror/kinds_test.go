package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterKindsIndependentKindsStaySeparate(t *testing.T) {
	clusters := clusterKinds([]Kind{KindBookmarks, KindMenus})

	assert.ElementsMatch(t, [][]Kind{{KindBookmarks}, {KindMenus}}, clusters)
}

func TestClusterKindsGroupsReferencingKinds(t *testing.T) {
	clusters := clusterKinds([]Kind{KindRecipes, KindPhotos, KindBookmarks})

	require.Len(t, clusters, 2)
	var big, small []Kind
	for _, c := range clusters {
		if len(c) > 1 {
			big = c
		} else {
			small = c
		}
	}
	assert.ElementsMatch(t, []Kind{KindRecipes, KindPhotos}, big)
	assert.Equal(t, []Kind{KindBookmarks}, small)
}

func TestClusterKindsTransitiveDependencies(t *testing.T) {
	// pantry -> groceryaisles <- groceries -> grocerylists: one cluster.
	clusters := clusterKinds([]Kind{KindPantry, KindGroceryAisles, KindGroceries, KindGroceryLists})

	require.Len(t, clusters, 1)
	assert.ElementsMatch(t,
		[]Kind{KindPantry, KindGroceryAisles, KindGroceries, KindGroceryLists},
		clusters[0])
}

func TestClusterKindsUntouchedParentDoesNotBridge(t *testing.T) {
	// pantry and groceryingredients both reference groceryaisles, but when
	// aisles are not in the pass the two stay independent.
	clusters := clusterKinds([]Kind{KindPantry, KindGroceryIngredients})

	assert.ElementsMatch(t, [][]Kind{{KindPantry}, {KindGroceryIngredients}}, clusters)
}

func TestClusterKindsAllKindsFormTwoClusters(t *testing.T) {
	// Everything is connected through recipes/aisles/mealtypes except
	// bookmarks, which reference nothing.
	clusters := clusterKinds(AllKinds)

	require.Len(t, clusters, 2)
	for _, c := range clusters {
		if len(c) == 1 {
			assert.Equal(t, []Kind{KindBookmarks}, c)
		} else {
			assert.Len(t, c, len(AllKinds)-1)
		}
	}
}

func TestClusterKindsDeterministicOrder(t *testing.T) {
	a := clusterKinds([]Kind{KindPhotos, KindRecipes, KindCategories})
	b := clusterKinds([]Kind{KindCategories, KindRecipes, KindPhotos})

	assert.Equal(t, a, b)
	require.Len(t, a, 1)
	assert.Equal(t, []Kind{KindRecipes, KindPhotos, KindCategories}, a[0])
}
