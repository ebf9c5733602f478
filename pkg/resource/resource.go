// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0
//
// A charm declares a single OCI image resource describing the
// workload it manages but does not implement. The orchestration layer
// fetches the image reference at deploy time and hands the operator a
// resources file; until that file exists and parses, the workload
// cannot be rendered and the charm waits.

package resource

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OCIImageName is the resource name both charms declare.
const OCIImageName = "oci-image"

// OCIImage is a resolved image reference, immutable for the unit's
// lifetime unless an upgrade replaces it.
type OCIImage struct {
	RegistryPath string `yaml:"registrypath"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

// UnavailableError indicates the declared resource has not been
// fetched yet. The charm waits; the next event retries the fetch.
type UnavailableError struct {
	Name   string
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("resource %q unavailable: %s", e.Name, e.Reason)
}

// Waits marks the error as self-healing: the next event retries the
// fetch after the orchestrator finishes downloading the resource.
func (e *UnavailableError) Waits() bool { return true }

// Fetch resolves the OCI image resource from the resources file
// written by the orchestration layer. A missing file, or a file
// without a registry path, yields an UnavailableError.
func Fetch(path string) (OCIImage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return OCIImage{}, &UnavailableError{Name: OCIImageName, Reason: err.Error()}
	}
	var resources map[string]OCIImage
	if err := yaml.Unmarshal(raw, &resources); err != nil {
		return OCIImage{}, &UnavailableError{
			Name:   OCIImageName,
			Reason: fmt.Sprintf("malformed resources file: %v", err),
		}
	}
	img, ok := resources[OCIImageName]
	if !ok || img.RegistryPath == "" {
		return OCIImage{}, &UnavailableError{Name: OCIImageName, Reason: "not yet fetched"}
	}
	return img, nil
}
