// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PolicyMode selects how the rules of a Policy combine.
type PolicyMode string

const (
	// PolicyModeAllow accepts only browsers matched by some rule.
	PolicyModeAllow PolicyMode = "allow"
	// PolicyModeDeny accepts every browser not matched by any rule.
	PolicyModeDeny PolicyMode = "deny"
)

// Policy is the file form of a browser matcher.
//
//	mode: allow
//	browsers:
//	  - name: chrome
//	    customTab: true
//	    minVersion: "80"
//	  - packageName: com.example.browser
//	    signatureHashes: ["..."]
//	expressions:
//	  - 'browser.packageName.startsWith("org.mozilla.")'
type Policy struct {
	Mode        PolicyMode    `yaml:"mode"`
	Browsers    []BrowserRule `yaml:"browsers"`
	Expressions []string      `yaml:"expressions"`
}

// BrowserRule matches one browser package. Name refers to a known browser and
// supplies its package and signature; otherwise PackageName and
// SignatureHashes must both be set.
type BrowserRule struct {
	Name            string   `yaml:"name"`
	PackageName     string   `yaml:"packageName"`
	SignatureHashes []string `yaml:"signatureHashes"`
	CustomTab       bool     `yaml:"customTab"`
	MinVersion      string   `yaml:"minVersion"`
	MaxVersion      string   `yaml:"maxVersion"`
}

// LoadPolicyFile reads a YAML policy from path and builds its matcher.
func LoadPolicyFile(path string) (Matcher, error) {
	f, err := os.Open(path) // #nosec G304 -- path is supplied by the host application
	if err != nil {
		return nil, fmt.Errorf("failed to open browser policy: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadPolicy(f)
}

// LoadPolicy decodes a YAML policy and builds its matcher.
func LoadPolicy(r io.Reader) (Matcher, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Policy
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	return p.Matcher(NewExpressionEngine())
}

// Matcher builds the matcher described by the policy, compiling expressions
// with engine. An empty mode means allow.
func (p Policy) Matcher(engine *ExpressionEngine) (Matcher, error) {
	matchers := make([]Matcher, 0, len(p.Browsers)+len(p.Expressions))

	for i, rule := range p.Browsers {
		m, err := rule.matcher()
		if err != nil {
			return nil, fmt.Errorf("%w: browsers[%d]: %w", ErrInvalidPolicy, i, err)
		}
		matchers = append(matchers, m)
	}

	for i, expr := range p.Expressions {
		m, err := engine.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: expressions[%d]: %w", ErrInvalidPolicy, i, err)
		}
		matchers = append(matchers, m)
	}

	switch PolicyMode(strings.ToLower(string(p.Mode))) {
	case "", PolicyModeAllow:
		return AllowList(matchers...), nil
	case PolicyModeDeny:
		return DenyList(matchers...), nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidPolicy, p.Mode)
	}
}

func (r BrowserRule) matcher() (Matcher, error) {
	packageName, hashes := r.PackageName, r.SignatureHashes
	if r.Name != "" {
		known, ok := KnownBrowsers[strings.ToLower(r.Name)]
		if !ok {
			return nil, fmt.Errorf("unknown browser %q", r.Name)
		}
		if packageName == "" && len(hashes) == 0 && r.CustomTab && r.MaxVersion == "" {
			return known.CustomTab(r.MinVersion), nil
		}
		if packageName == "" {
			packageName = known.PackageName
		}
		if len(hashes) == 0 {
			hashes = []string{known.SignatureHash}
		}
	}

	if packageName == "" {
		return nil, errors.New("packageName or name is required")
	}
	if len(hashes) == 0 {
		return nil, errors.New("signatureHashes is required")
	}
	return NewVersionedMatcher(packageName, hashes, r.CustomTab, r.versions()), nil
}

func (r BrowserRule) versions() VersionRange {
	switch {
	case r.MinVersion != "" && r.MaxVersion != "":
		return Between(r.MinVersion, r.MaxVersion)
	case r.MinVersion != "":
		return AtLeast(r.MinVersion)
	case r.MaxVersion != "":
		return AtMost(r.MaxVersion)
	default:
		return AnyVersion
	}
}
