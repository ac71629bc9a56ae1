package assigner_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/splithub/splithub/internal/assigner"
)

func genVariants(rt *rapid.T) []assigner.Variant {
	n := rapid.IntRange(1, 6).Draw(rt, "variantCount")
	variants := make([]assigner.Variant, n)
	for i := range variants {
		variants[i] = assigner.Variant{Name: fmt.Sprintf("v%d", i), Value: fmt.Sprintf("/page-%d", i)}
	}
	return variants
}

func TestProperty_StoredAssignmentIsStable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		variants := genVariants(rt)
		storage := rapid.SampledFrom([]assigner.Storage{assigner.StorageCookie, assigner.StorageLocal, ""}).Draw(rt, "storage")
		test := assigner.TestDefinition{ID: "prop", Variants: variants, Storage: storage}

		h := newHarness("/")
		h.rand.index = rapid.IntRange(0, 100).Draw(rt, "randIndex")

		first, err := h.assigner(nil).ResolveVariant(context.Background(), test)
		require.NoError(rt, err)

		calls := rapid.IntRange(1, 10).Draw(rt, "calls")
		for i := 0; i < calls; i++ {
			h.rand.index++
			got, err := h.assigner(nil).ResolveVariant(context.Background(), test)
			require.NoError(rt, err)
			require.Equal(rt, first, got)
		}
		require.Equal(rt, 1, h.rand.calls)
	})
}

func TestProperty_PagesTakePrecedence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		pages := rapid.SliceOfNDistinct(rapid.StringMatching(`/[a-z]{1,6}`), 0, 5, rapid.ID[string]).Draw(rt, "pages")
		path := rapid.StringMatching(`/[a-z]{1,6}`).Draw(rt, "path")
		if pages == nil {
			pages = []string{}
		}
		test := assigner.TestDefinition{Pages: pages, Path: path}

		inPages := false
		for _, p := range pages {
			if p == path {
				inPages = true
			}
		}
		require.Equal(rt, inPages, assigner.MatchesPage(test, path))
	})
}

func TestUniformAssignment(t *testing.T) {
	variants := []assigner.Variant{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	test := assigner.TestDefinition{ID: "uniform", Variants: variants}
	counts := map[string]int{}

	const draws = 30000
	for i := 0; i < draws; i++ {
		env := assigner.Env{Local: newFakeKV()}
		v, err := assigner.New(nil, env).ResolveVariant(context.Background(), test)
		require.NoError(t, err)
		counts[v.Name]++
	}

	for _, v := range variants {
		freq := float64(counts[v.Name]) / draws
		assert.LessOrEqual(t, math.Abs(freq-1.0/3), 0.02, "variant %s frequency %f", v.Name, freq)
	}
}
