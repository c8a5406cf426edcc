// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads source credentials from a directory of plain-text
// files. Each file holds one secret: the filename is the key name and the
// trimmed contents are the value.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/book-metasearch/pkg/types"
)

// Key file names recognised in the secrets directory.
const (
	NLKAPIKey    = "nlk-api-key"
	NLKCertKey   = "nlk-cert-key"
	AladinTTBKey = "aladin-ttb-key"
	RISSAPIKey   = "riss-api-key"
	PostgresDSN  = "postgres-dsn"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Credentials fills the source keys in creds that are still empty from
// the loaded secrets. The national catalog accepts its certification key
// when no API key file exists.
func Credentials(creds types.SourceCredentials, loaded map[string]string) types.SourceCredentials {
	if creds.NLKKey == "" {
		creds.NLKKey = firstOf(loaded, NLKAPIKey, NLKCertKey)
	}
	if creds.AladinKey == "" {
		creds.AladinKey = loaded[AladinTTBKey]
	}
	if creds.RISSKey == "" {
		creds.RISSKey = loaded[RISSAPIKey]
	}
	return creds
}

func firstOf(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
