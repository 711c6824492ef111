package models

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type ReactionDef struct {
	ID    string `yaml:"id" json:"id"`
	Image string `yaml:"image" json:"image"`
	Key   string `yaml:"key" json:"key"`
}

// Catalog lists the accepted channels, content types, click types and reactions.
type Catalog struct {
	Channels     []Channel     `yaml:"channels" json:"channels"`
	ContentTypes []ContentType `yaml:"content_types" json:"content_types"`
	ClickTypes   []ClickType   `yaml:"click_types" json:"click_types"`
	Reactions    []ReactionDef `yaml:"reactions" json:"reactions"`
}

var defaultCatalog = mustLoadCatalog(catalogYAML)

func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	for i := range c.Reactions {
		r := &c.Reactions[i]
		if r.Image == "" {
			r.Image = r.ID + ".svg"
		}
		if r.Key == "" {
			r.Key = "reaction." + r.ID
		}
	}
	return &c, nil
}

func mustLoadCatalog(data []byte) *Catalog {
	c, err := LoadCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) HasChannel(ch Channel) bool {
	return slices.Contains(c.Channels, ch)
}

func (c *Catalog) HasClickType(t ClickType) bool {
	return slices.Contains(c.ClickTypes, t)
}

func (c *Catalog) Reaction(id string) (ReactionDef, bool) {
	for _, r := range c.Reactions {
		if r.ID == id {
			return r, true
		}
	}
	return ReactionDef{}, false
}
