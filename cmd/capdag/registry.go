package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/capdagerr"
)

// dirRegistry is an in-memory cap.Registry loaded from a directory of *.json
// cap definition files, for exploring plans against a local cap set without
// a network round-trip to the capns registry.
type dirRegistry struct {
	caps []*cap.Cap
	byUrn map[string]*cap.Cap
}

func loadCapsDir(dir string) (*dirRegistry, error) {
	const op = "main.loadCapsDir"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to read caps directory", err)
	}

	r := &dirRegistry{byUrn: make(map[string]*cap.Cap)}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to read "+path, err)
		}
		var c cap.Cap
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, capdagerr.Wrap(capdagerr.SchemaError, op, "failed to parse "+path, err)
		}
		r.caps = append(r.caps, &c)
		r.byUrn[c.Urn.String()] = &c
	}
	return r, nil
}

func (r *dirRegistry) GetCachedCaps() []*cap.Cap { return r.caps }

func (r *dirRegistry) GetCap(urnStr string) (*cap.Cap, error) {
	if c, ok := r.byUrn[urnStr]; ok {
		return c, nil
	}
	return nil, capdagerr.Unreachablef("main.dirRegistry.GetCap", "cap %q not found in loaded directory", urnStr)
}

func (r *dirRegistry) CapExists(urnStr string) bool {
	_, ok := r.byUrn[urnStr]
	return ok
}
