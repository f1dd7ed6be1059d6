/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"errors"
	"io/fs"
	"os"

	"github.com/Seednode/headsup/games/headsup"
)

//go:embed categories/*.json
var builtinCategories embed.FS

var errNoCategories = errors.New("no usable categories found")

// categorySource returns the directory --categories points at, or the
// built-in set when it is unset.
func categorySource(cfg *Config) (fs.FS, string, error) {
	if cfg.categories == "" {
		return builtinCategories, "categories/*.json", nil
	}

	info, err := os.Stat(cfg.categories)
	if err != nil {
		return nil, "", err
	}
	if !info.IsDir() {
		return nil, "", &fs.PathError{Op: "open", Path: cfg.categories, Err: errors.New("not a directory")}
	}

	return os.DirFS(cfg.categories), "*.json", nil
}

func loadCatalog(cfg *Config) (*headsup.Catalog, error) {
	fsys, pattern, err := categorySource(cfg)
	if err != nil {
		return nil, err
	}

	categories, errs := headsup.LoadCategories(fsys, pattern)
	for _, err := range errs {
		logError(err)
	}

	if len(categories) == 0 {
		return nil, errNoCategories
	}

	return headsup.NewCatalog(categories), nil
}
