package capgraph

import (
	"sync"
	"testing"

	"github.com/filegrind/capdag-go/cap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry is an in-memory cap.Registry stand-in for tests, avoiding any
// network dependency on the real HTTP-backed CapRegistry.
type fakeRegistry struct {
	caps []*cap.Cap
}

func (f *fakeRegistry) GetCachedCaps() []*cap.Cap { return f.caps }

func (f *fakeRegistry) GetCap(urnStr string) (*cap.Cap, error) {
	for _, c := range f.caps {
		if c.UrnString() == urnStr {
			return c, nil
		}
	}
	return nil, assertNotFoundErr(urnStr)
}

func (f *fakeRegistry) CapExists(urnStr string) bool {
	_, err := f.GetCap(urnStr)
	return err == nil
}

type notFoundErr struct{ urn string }

func (e *notFoundErr) Error() string { return "cap not found: " + e.urn }

func assertNotFoundErr(urn string) error { return &notFoundErr{urn: urn} }

func TestCubeGraphMergesAllRegistries(t *testing.T) {
	cube := NewCube()
	cube.AddRegistry("fs", &fakeRegistry{caps: []*cap.Cap{mustCap(t, "media:bytes", "media:textable;form=scalar")}})
	cube.AddRegistry("net", &fakeRegistry{caps: []*cap.Cap{mustCap(t, "media:textable;form=scalar", "media:textable;form=map")}})

	g, err := cube.Graph()
	require.NoError(t, err)
	assert.Equal(t, 2, g.Stats().EdgeCount)
	assert.ElementsMatch(t, cube.RegistryNames(), []string{"fs", "net"})
}

func TestCubeFindPathAcrossRegistries(t *testing.T) {
	cube := NewCube()
	cube.AddRegistry("fs", &fakeRegistry{caps: []*cap.Cap{mustCap(t, "media:bytes", "media:textable;form=scalar")}})
	cube.AddRegistry("net", &fakeRegistry{caps: []*cap.Cap{mustCap(t, "media:textable;form=scalar", "media:textable;form=map")}})

	path, err := cube.FindPath("media:bytes", "media:textable;form=map")
	require.NoError(t, err)
	assert.Len(t, path, 2)
}

func TestCubeFindPathConcurrentCallsShareOneComputation(t *testing.T) {
	cube := NewCube()
	cube.AddRegistry("fs", &fakeRegistry{caps: []*cap.Cap{mustCap(t, "media:bytes", "media:textable;form=scalar")}})

	var wg sync.WaitGroup
	results := make([][]Edge, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			path, err := cube.FindPath("media:bytes", "media:textable;form=scalar")
			require.NoError(t, err)
			results[idx] = path
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Len(t, r, 1)
	}
}
