// Package search provides the discovery helper supplemented in
// SPEC_FULL.md: locating scan-table and video files under a root URI
// using TileDB's VFS, so local filesystems and object stores are searched
// identically. Grounded directly on go-gsf's search/search.go trawl.
package search

import (
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl recursively walks uri, collecting files whose basename matches
// pattern.
func trawl(vfs *tiledb.VFS, pattern, uri string, items []string) ([]string, error) {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items, err
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, err
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items, err = trawl(vfs, pattern, dir, items)
		if err != nil {
			return items, err
		}
	}

	return items, nil
}

func find(uri, configURI, pattern string) ([]string, error) {
	var config *tiledb.Config
	var err error
	if configURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return nil, err
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, err
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, err
	}
	defer vfs.Free()

	return trawl(vfs, pattern, uri, make([]string, 0))
}

// FindScanTables recursively searches uri for "*.lpxtab" scan-table
// files.
func FindScanTables(uri, configURI string) ([]string, error) {
	return find(uri, configURI, "*.lpxtab")
}

// FindVideos recursively searches uri for "*.lpxv" raw video containers
// (the format RawFileDecoder reads).
func FindVideos(uri, configURI string) ([]string, error) {
	return find(uri, configURI, "*.lpxv")
}
