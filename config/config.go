// Copyright (C) 2019-2020 Algorand, Inc.
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

// Package config holds the recognised configuration keys of a replication
// node: group-communication, GCS, gcache, certification and transport
// settings, loaded from a JSON file and merged over versioned defaults.
package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/coredb/replicator/util/codecs"
)

// ConfigFilename is the name of the config.json file where per-node settings live.
const ConfigFilename = "config.json"

// Local holds the per-node configuration settings for the replication engine.
// !!! WARNING !!!
//
// These versioned struct tags need to be maintained CAREFULLY and treated
// like UNIVERSAL CONSTANTS - they should not be modified once committed.
//
// New fields may be added to Local along with a version tag denoting a new
// version; update defaultLocal and getLatestConfigVersion together.
//
// !!! WARNING !!!
type Local struct {
	// Version tracks the current version of the defaults so we can migrate old -> new.
	Version uint32 `version[0]:"0" version[1]:"1"`

	// BaseHost is the host this node's group-communication transport listens on.
	BaseHost string `version[0]:"0.0.0.0"`

	// BasePort is the port this node's group-communication transport listens on.
	BasePort int `version[0]:"4567"`

	// GMCastGroup is the replication group name exchanged during the GMCast
	// handshake; peers advertising a different group are never merged into
	// the same view.
	GMCastGroup string `version[0]:"default_group"`

	// PCBootstrap marks this node as an allowed bootstrap (first) primary
	// component member, per the PC up-call contract.
	PCBootstrap bool `version[0]:"false"`

	// PCWeight is this node's weight in primary-component quorum arithmetic.
	PCWeight int `version[0]:"1"`

	// EVSSendWindow bounds the number of unacknowledged EVS user messages
	// this node keeps outstanding to the group before blocking senders.
	EVSSendWindow int `version[0]:"512"`

	// EVSUserSendWindow further bounds outstanding messages per source, used
	// to keep one noisy member from starving flow control for the rest.
	EVSUserSendWindow int `version[0]:"256"`

	// EVSJoinRetransPeriod is how often an EVS JOIN message is retransmitted
	// while a view change is pending.
	EVSJoinRetransPeriod time.Duration `version[0]:"1000000000"`

	// GCacheSize is the total byte budget for the write-set cache ring.
	GCacheSize uint64 `version[0]:"134217728"`

	// GCachePageSize is the size of a single on-disk cache page file.
	GCachePageSize uint64 `version[0]:"134217728"`

	// GCacheDir is the directory cache ring pages and the recovery manifest live in.
	GCacheDir string `version[0]:"./gcache"`

	// GCacheName is the filename prefix used for ring page files under GCacheDir.
	GCacheName string `version[0]:"galera.cache"`

	// CertLogConflicts enables verbose logging of every certification conflict,
	// not only ones that abort a transaction.
	CertLogConflicts bool `version[0]:"false"`

	// ReplCommitOrder selects how locally-committed write sets are ordered
	// relative to certified remote ones: "oooc" (out-of-order) or "primary_res" (ordered by seqno).
	ReplCommitOrder string `version[0]:"primary_res"`

	// ReplCausalReadTimeout bounds how long a causal read waits for the local
	// apply position to catch up to the requested seqno before failing.
	ReplCausalReadTimeout time.Duration `version[0]:"30000000000"`

	// SocketSSL enables TLS on the group-communication transport.
	SocketSSL bool `version[0]:"false"`

	// SocketSSLKey is the path to the TLS private key file, if SocketSSL is set.
	SocketSSLKey string `version[0]:""`

	// SocketSSLCert is the path to the TLS certificate file, if SocketSSL is set.
	SocketSSLCert string `version[0]:""`

	// SocketSSLCA is the path to the CA bundle used to verify peer certificates.
	SocketSSLCA string `version[0]:""`

	// SocketIfAddr pins the outgoing interface address used for peer connections.
	SocketIfAddr string `version[0]:""`

	// SocketSSLCipher restricts the TLS cipher suite list, semicolon separated.
	SocketSSLCipher string `version[0]:""`

	// SocketSSLCompression enables TLS-layer compression; off by default since
	// it interacts badly with already-compressed write-set payloads.
	SocketSSLCompression bool `version[0]:"false"`
}

var defaultLocal = Local{
	Version:               1,
	BaseHost:              "0.0.0.0",
	BasePort:              4567,
	GMCastGroup:           "default_group",
	PCBootstrap:           false,
	PCWeight:              1,
	EVSSendWindow:         512,
	EVSUserSendWindow:     256,
	EVSJoinRetransPeriod:  time.Second,
	GCacheSize:            128 << 20,
	GCachePageSize:        128 << 20,
	GCacheDir:             "./gcache",
	GCacheName:            "galera.cache",
	CertLogConflicts:      false,
	ReplCommitOrder:       "primary_res",
	ReplCausalReadTimeout: 30 * time.Second,
	SocketSSL:             false,
}

// GetDefaultLocal returns a copy of the built-in default configuration.
func GetDefaultLocal() Local {
	return defaultLocal
}

// LoadConfigFromDisk returns a Local config based on merging the defaults
// with settings loaded from custom/config.json. If the file cannot be
// loaded, the default config is returned along with the load error.
func LoadConfigFromDisk(custom string) (c Local, err error) {
	return loadConfigFromFile(filepath.Join(custom, ConfigFilename))
}

func loadConfigFromFile(configFile string) (c Local, err error) {
	c = defaultLocal
	c.Version = 0 // reset so the loaded file's own version (or lack of one) wins
	c, err = mergeConfigFromFile(configFile, c)
	if err != nil {
		c = defaultLocal
		return
	}
	c, _, err = migrate(c)
	return
}

func mergeConfigFromFile(configpath string, source Local) (Local, error) {
	f, err := os.Open(configpath)
	if err != nil {
		return source, err
	}
	defer f.Close()

	err = loadConfig(f, &source)
	return source, err
}

func loadConfig(reader io.Reader, config *Local) error {
	dec := json.NewDecoder(reader)
	return dec.Decode(config)
}

// SaveToDisk writes the non-default Local settings into root/ConfigFilename.
func (cfg Local) SaveToDisk(root string) error {
	configpath := filepath.Join(root, ConfigFilename)
	return cfg.SaveToFile(os.ExpandEnv(configpath))
}

// SaveToFile saves the config to a specific filename, allowing overriding the default name.
func (cfg Local) SaveToFile(filename string) error {
	alwaysInclude := []string{"Version"}
	return codecs.SaveNonDefaultValuesToFile(filename, cfg, defaultLocal, alwaysInclude, true)
}
