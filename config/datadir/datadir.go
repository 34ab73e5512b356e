// Copyright (C) 2019-2023 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Package datadir resolves the node's working directory and the gcache
// directory it delegates to. The data directory comes from the CLI flag or,
// failing that, the REPLICATOR_DATA environment variable; the gcache
// directory follows an env-var > config-file > data-directory chain.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/coredb/replicator/config"
)

const baseDataDirEnv = "REPLICATOR_DATA"

type fileResources struct {
	dataDirPath  string
	gcacheDirPath string
}

var fr fileResources

// InitializeDataDirs resolves the node's data directory, loads its config.json
// (if present) and resolves the gcache directory, which falls back to the data
// directory when GCacheDir is not set.
func InitializeDataDirs(dataDirectory *string) (config.Local, error) {
	dataDir := ResolveDataDir(dataDirectory)
	if len(dataDir) == 0 {
		return config.Local{}, fmt.Errorf("data directory not specified")
	}
	absolutePath, err := filepath.Abs(dataDir)
	if err != nil {
		return config.Local{}, err
	}
	if _, err := os.Stat(absolutePath); err != nil {
		return config.Local{}, err
	}
	cfg, err := config.LoadConfigFromDisk(absolutePath)
	if err != nil && !os.IsNotExist(err) {
		return config.Local{}, err
	}

	fr.dataDirPath = absolutePath
	fr.gcacheDirPath = resolve("", "REPLICATOR_GCACHE_DIR", cfg.GCacheDir, fr.dataDirPath)

	return cfg, nil
}

func resolve(cli string, env string, cfg string, fallback string) string {
	if cli != "" {
		return cli
	}
	if envValue := os.Getenv(env); envValue != "" {
		return envValue
	}
	if cfg != "" {
		return cfg
	}
	return fallback
}

// Get returns the resolved path for a named resource: "dataDir" or "gcacheDir".
func Get(resource string) string {
	switch resource {
	case "absolutePath", "root", "dataDir":
		return fr.dataDirPath
	case "gcacheDir":
		return fr.gcacheDirPath
	}
	return ""
}

// ResolveDataDir figures out which data directory to use: the explicit flag
// if given, otherwise the REPLICATOR_DATA environment variable.
func ResolveDataDir(dataDirectory *string) string {
	var dir string
	if dataDirectory == nil || *dataDirectory == "" {
		dir = os.Getenv(baseDataDirEnv)
	} else {
		dir = *dataDirectory
	}
	return dir
}
