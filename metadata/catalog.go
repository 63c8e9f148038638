// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package metadata

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// The catalogSpec types mirror the YAML catalog file layout. They are
// decoded and then converted into the linked model, so the exported types
// never carry yaml tags.

type catalogSpec struct {
	Cubes []cubeSpec `yaml:"cubes"`
}

type cubeSpec struct {
	Name       string          `yaml:"name"`
	Table      string          `yaml:"table"`
	Dimensions []dimensionSpec `yaml:"dimensions"`
	Measures   []measureSpec   `yaml:"measures"`
}

type dimensionSpec struct {
	Name        string          `yaml:"name"`
	Hierarchies []hierarchySpec `yaml:"hierarchies"`
}

type hierarchySpec struct {
	Name          string       `yaml:"name"`
	Column        string       `yaml:"column"`
	DefaultMember string       `yaml:"defaultMember"`
	Members       []memberSpec `yaml:"members"`
}

type memberSpec struct {
	Name string `yaml:"name"`
	Key  any    `yaml:"key"`
}

type measureSpec struct {
	Name       string `yaml:"name"`
	Column     string `yaml:"column"`
	Aggregator string `yaml:"aggregator"`
}

// LoadCatalog reads a YAML catalog definition and returns the linked
// catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// LoadCatalogFile reads the YAML catalog definition stored at path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// ParseCatalog parses a YAML catalog definition.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var spec catalogSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("cannot parse catalog: %w", err)
	}
	if len(spec.Cubes) == 0 {
		return nil, fmt.Errorf("cannot parse catalog: no cubes defined")
	}
	var cubes []*Cube
	for _, cs := range spec.Cubes {
		if cs.Name == "" {
			return nil, fmt.Errorf("cannot parse catalog: cube with no name")
		}
		cube := &Cube{Name: cs.Name, Table: cs.Table}
		for _, ds := range cs.Dimensions {
			dim := &Dimension{Name: ds.Name}
			for _, hs := range ds.Hierarchies {
				h := &Hierarchy{
					Name:          hs.Name,
					Column:        hs.Column,
					DefaultMember: hs.DefaultMember,
				}
				for _, m := range hs.Members {
					h.Members = append(h.Members, &Member{Name: m.Name, Key: m.Key})
				}
				dim.Hierarchies = append(dim.Hierarchies, h)
			}
			cube.Dimensions = append(cube.Dimensions, dim)
		}
		for _, ms := range cs.Measures {
			agg := ms.Aggregator
			if agg == "" {
				agg = "sum"
			}
			switch agg {
			case "sum", "avg", "count", "min", "max":
			default:
				return nil, fmt.Errorf("cannot parse catalog: unknown aggregator %q for measure %q", agg, ms.Name)
			}
			cube.Measures = append(cube.Measures, &Measure{
				Name:       ms.Name,
				Column:     ms.Column,
				Aggregator: agg,
			})
		}
		cubes = append(cubes, cube)
	}
	return NewCatalog(cubes...)
}
