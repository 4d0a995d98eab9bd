// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"encoding/base64"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"

	// Registers SHA-512 for digest.SHA512.
	_ "crypto/sha512"
)

// Descriptor identifies an installed browser: its package, the hashes of its
// signing certificates, its version, and whether it is used through a custom tab.
// The same package may appear twice in a browser list, once per tab mode.
type Descriptor struct {
	PackageName string `json:"packageName" yaml:"packageName"`
	// SignatureHashes is a sorted set of base64url SHA-512 certificate hashes.
	SignatureHashes []string `json:"signatureHashes" yaml:"signatureHashes"`
	Version         string   `json:"version" yaml:"version"`
	UseCustomTab    bool     `json:"useCustomTab" yaml:"useCustomTab"`
}

// NewDescriptor returns a descriptor with hashes normalized into a sorted set.
func NewDescriptor(packageName string, signatureHashes []string, version string, useCustomTab bool) Descriptor {
	return Descriptor{
		PackageName:     packageName,
		SignatureHashes: hashSet(signatureHashes),
		Version:         version,
		UseCustomTab:    useCustomTab,
	}
}

// Equals reports structural equality over all four fields. Signature hashes
// compare as sets.
func (d Descriptor) Equals(other Descriptor) bool {
	return d.PackageName == other.PackageName &&
		d.Version == other.Version &&
		d.UseCustomTab == other.UseCustomTab &&
		sameHashes(d.SignatureHashes, other.SignatureHashes)
}

// WithCustomTab returns a copy of d with UseCustomTab set.
func (d Descriptor) WithCustomTab(useCustomTab bool) Descriptor {
	d.SignatureHashes = slices.Clone(d.SignatureHashes)
	d.UseCustomTab = useCustomTab
	return d
}

// String renders the descriptor for logs.
func (d Descriptor) String() string {
	mode := "standalone"
	if d.UseCustomTab {
		mode = "custom-tab"
	}
	return d.PackageName + "@" + d.Version + " (" + mode + ")"
}

// SignatureHash returns the base64url-encoded SHA-512 digest of a signing
// certificate, the form used in Descriptor.SignatureHashes.
func SignatureHash(certificate []byte) string {
	h := digest.SHA512.Hash()
	_, _ = h.Write(certificate)
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// SignatureHashes hashes every certificate and returns the sorted set.
func SignatureHashes(certificates [][]byte) []string {
	hashes := make([]string, 0, len(certificates))
	for _, cert := range certificates {
		hashes = append(hashes, SignatureHash(cert))
	}
	return hashSet(hashes)
}

func hashSet(hashes []string) []string {
	out := make([]string, 0, len(hashes))
	for _, h := range hashes {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func sameHashes(a, b []string) bool {
	return slices.Equal(hashSet(a), hashSet(b))
}
