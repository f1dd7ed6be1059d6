/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package headsup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var White = RGB{R: 255, G: 255, B: 255}

// ParseHex accepts "#RRGGBB", "RRGGBB" and the short "#RGB" form.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")

	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}

	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid colour %q", s)
	}

	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}

	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type Category struct {
	Name  string   `json:"name"`
	Color RGB      `json:"-"`
	Words []string `json:"words"`
}

// categoryFile is the on-disk form of a category.
type categoryFile struct {
	Name  string   `json:"name"`
	Color string   `json:"color"`
	Words []string `json:"words"`
}

var errNoWords = errors.New("no usable words")

func (f categoryFile) category() (Category, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return Category{}, errors.New("missing name")
	}

	words := make([]string, 0, len(f.Words))
	for _, w := range f.Words {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return Category{}, fmt.Errorf("category %q: %w", name, errNoWords)
	}

	color, err := ParseHex(f.Color)
	if err != nil {
		color = White
	}

	return Category{Name: name, Color: color, Words: words}, nil
}

// LoadCategories reads every file matching pattern in fsys. A file may hold a
// single category object or an array of them. Bad files and bad records are
// skipped and reported in errs; the rest still load. Names are compared
// case-insensitively and the first category with a given name wins.
func LoadCategories(fsys fs.FS, pattern string) ([]Category, []error) {
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, []error{err}
	}
	sort.Strings(matches)

	var (
		out  []Category
		errs []error
		seen = make(map[string]string)
	)

	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		records, err := decodeCategoryFile(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		for i, raw := range records {
			var rec categoryFile
			if err := json.Unmarshal(raw, &rec); err != nil {
				errs = append(errs, fmt.Errorf("%s[%d]: %w", name, i, err))
				continue
			}

			c, err := rec.category()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s[%d]: %w", name, i, err))
				continue
			}

			key := strings.ToLower(c.Name)
			if first, ok := seen[key]; ok {
				errs = append(errs, fmt.Errorf("%s[%d]: duplicate category %q (already loaded from %s)", name, i, c.Name, first))
				continue
			}
			seen[key] = path.Base(name)

			out = append(out, c)
		}
	}

	return out, errs
}

// decodeCategoryFile splits a file into its raw records, so that one bad
// record does not take the rest of the file down with it.
func decodeCategoryFile(data []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") {
		var many []json.RawMessage
		if err := json.Unmarshal(data, &many); err != nil {
			return nil, err
		}
		return many, nil
	}

	if !json.Valid(data) {
		var one categoryFile
		return nil, json.Unmarshal(data, &one)
	}

	return []json.RawMessage{json.RawMessage(data)}, nil
}

// Catalog is an ordered, read-only set of categories.
type Catalog struct {
	categories []*Category
	byName     map[string]*Category
}

func NewCatalog(categories []Category) *Catalog {
	c := &Catalog{
		categories: make([]*Category, 0, len(categories)),
		byName:     make(map[string]*Category, len(categories)),
	}

	for i := range categories {
		cat := &categories[i]
		key := strings.ToLower(cat.Name)
		if _, ok := c.byName[key]; ok {
			continue
		}

		c.byName[key] = cat
		c.categories = append(c.categories, cat)
	}

	return c
}

func (c *Catalog) Lookup(name string) (*Category, bool) {
	cat, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return cat, ok
}

func (c *Catalog) Categories() []*Category {
	out := make([]*Category, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Catalog) Len() int {
	return len(c.categories)
}
