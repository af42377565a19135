package core

import (
	"bytes"
	"context"
	"fmt"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"

	"github.com/mark1russell7/ecosys/internal/gitref"
)

// SBOMGenerator produces a CycloneDX 1.5 JSON bill of materials for the
// ecosystem: one component per manifest package with its resolved git ref and
// intra-ecosystem dependency edges.
type SBOMGenerator struct {
	engine *Engine
}

// NewSBOMGenerator creates an SBOMGenerator over engine.
func NewSBOMGenerator(engine *Engine) *SBOMGenerator {
	return &SBOMGenerator{engine: engine}
}

// Generate scans the fleet and encodes the BOM.
func (g *SBOMGenerator) Generate(ctx context.Context) ([]byte, error) {
	deps := g.engine.Deps()

	manifest, err := deps.Manifest.Load()
	if err != nil {
		return nil, err
	}
	descriptors := g.engine.Scanner().ScanManifest(ctx, manifest)
	nodes := BuildGraph(descriptors, deps.Config.Owner, deps.Config.DefaultBranch)

	bom := cdx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + uuid.NewString()
	bom.Metadata = &cdx.Metadata{
		Timestamp: time.Now().Format(time.RFC3339),
		Component: &cdx.Component{
			BOMRef:  "ecosystem",
			Type:    cdx.ComponentTypeApplication,
			Name:    deps.Config.Owner + "-ecosystem",
			Version: manifest.Version,
		},
	}

	var components []cdx.Component
	var dependencies []cdx.Dependency
	for _, name := range sortedNames(nodes) {
		node := nodes[name]
		component := cdx.Component{
			BOMRef:  node.Name,
			Type:    cdx.ComponentTypeLibrary,
			Name:    node.Name,
			Version: node.RequiredBranch,
		}
		if ref, ok := gitref.Parse(node.GitRef); ok {
			component.ExternalReferences = &[]cdx.ExternalReference{{
				Type: cdx.ERTypeVCS,
				URL:  cloneURL(ref),
			}}
		}
		components = append(components, component)

		if len(node.Dependencies) > 0 {
			depRefs := append([]string(nil), node.Dependencies...)
			dependencies = append(dependencies, cdx.Dependency{
				Ref:          node.Name,
				Dependencies: &depRefs,
			})
		}
	}
	bom.Components = &components
	bom.Dependencies = &dependencies

	var buf bytes.Buffer
	encoder := cdx.NewBOMEncoder(&buf, cdx.BOMFileFormatJSON)
	encoder.SetPretty(true)
	if err := encoder.Encode(bom); err != nil {
		return nil, fmt.Errorf("encode BOM: %w", err)
	}
	return buf.Bytes(), nil
}
