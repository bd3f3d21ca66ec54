package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	json "github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"
)

// Domain prefix for schema fingerprints. Version suffix enables future
// algorithm migration without ambiguity.
const domainSchema = "structcc/schema/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content-addressed identity for a resolved schema.
// Two builds of the same definition set produce the same fingerprint, so
// generated artifacts and decoded captures can be traced back to the exact
// schema revision that produced them.
//
// Definition names are NFC-normalized before hashing; map keys serialize in
// sorted order, so the digest is independent of build-time map iteration.
func (s *Schema) Fingerprint() (string, error) {
	view := struct {
		Version    string                   `json:"version"`
		File       FileInfo                 `json:"file"`
		Enums      map[string]*EnumDef      `json:"enums"`
		BitFields  map[string]*BitFieldDef  `json:"bit_fields"`
		Structures map[string]*StructureDef `json:"structures"`
		Groups     map[string]*GroupDef     `json:"groups"`
	}{
		Version:    IRVersion,
		File:       s.File,
		Enums:      normalizeKeys(s.Enums),
		BitFields:  normalizeKeys(s.BitFields),
		Structures: normalizeKeys(s.Structures),
		Groups:     normalizeKeys(s.Groups),
	}
	data, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal schema: %w", err)
	}
	return hashWithDomain(domainSchema, data), nil
}

func normalizeKeys[T any](m map[string]T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[norm.NFC.String(k)] = v
	}
	return out
}
