// Command example walks through the simplestructure library using the
// in-memory repository: components, a container with pinned and unpinned
// rows, a selector with variants, and draft versus published resolution.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/authorkit/simple-structure/pkg/simplestructure"
	"github.com/authorkit/simple-structure/pkg/simplestructure/repo/memory"
)

func main() {
	ctx := context.Background()

	svc, err := simplestructure.New(
		simplestructure.WithRepository(memory.New()),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	// Two components, each with a couple of versions.
	compA, err := svc.CreateEntity(ctx, simplestructure.CreateEntityRequest{
		Kind: simplestructure.KindComponent,
		Key:  "component-a",
	})
	if err != nil {
		log.Fatalf("Failed to create component: %v", err)
	}

	a1, err := svc.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionRequest{
		EntityID: compA.ID,
		Title:    "Component A (first draft)",
	})
	if err != nil {
		log.Fatalf("Failed to create version: %v", err)
	}

	compB, err := svc.CreateEntity(ctx, simplestructure.CreateEntityRequest{
		Kind: simplestructure.KindComponent,
		Key:  "component-b",
	})
	if err != nil {
		log.Fatalf("Failed to create component: %v", err)
	}

	if _, err := svc.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionRequest{
		EntityID: compB.ID,
		Title:    "Component B",
	}); err != nil {
		log.Fatalf("Failed to create version: %v", err)
	}

	// A container whose first version pins component A to v1 and references
	// component B unpinned.
	unit, cv1, err := svc.CreateContainerAndVersion(ctx, simplestructure.CreateContainerAndVersionRequest{
		Key:   "unit-1",
		Title: "Unit 1",
		Rows: []simplestructure.RowSpec{
			{EntityID: compA.ID, PinnedVersionID: &a1.ID},
			{EntityID: compB.ID},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	fmt.Printf("Created container %s, version %d\n", unit.Key, cv1.VersionNum)

	// A second draft of component A. The pinned row keeps showing v1; the
	// unpinned row on component B floats with its draft.
	if _, err := svc.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionRequest{
		EntityID: compA.ID,
		Title:    "Component A (revised)",
	}); err != nil {
		log.Fatalf("Failed to create version: %v", err)
	}

	fmt.Println("\nDraft resolution of Unit 1:")
	entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
		VersionID: cv1.ID,
		Mode:      simplestructure.ModeDraft,
	})
	if err != nil {
		log.Fatalf("Failed to resolve: %v", err)
	}
	printEntries(entries, 0)

	// Publish only component B. Published resolution omits component A
	// entirely because it has never been published.
	if err := svc.Publish(ctx, compB.ID); err != nil {
		log.Fatalf("Failed to publish: %v", err)
	}
	if err := svc.Publish(ctx, unit.ID); err != nil {
		log.Fatalf("Failed to publish: %v", err)
	}

	fmt.Println("\nPublished resolution of Unit 1 (component A not yet published):")
	entries, err = svc.Resolve(ctx, simplestructure.ResolveRequest{
		VersionID: cv1.ID,
		Mode:      simplestructure.ModePublished,
	})
	if err != nil {
		log.Fatalf("Failed to resolve: %v", err)
	}
	printEntries(entries, 0)

	// A selector with two variants, each holding a different component.
	sel, err := svc.CreateSelector(ctx, simplestructure.CreateSelectorRequest{Key: "pick-one"})
	if err != nil {
		log.Fatalf("Failed to create selector: %v", err)
	}
	sv, err := svc.CreateSelectorVersion(ctx, simplestructure.CreateSelectorVersionRequest{
		SelectorID: sel.ID,
		Title:      "Pick one component",
	})
	if err != nil {
		log.Fatalf("Failed to create selector version: %v", err)
	}
	for _, v := range []struct {
		key    string
		entity *simplestructure.Entity
	}{
		{"variant-a", compA},
		{"variant-b", compB},
	} {
		if _, err := svc.AddVariant(ctx, simplestructure.AddVariantRequest{
			SelectorVersionID: sv.ID,
			Key:               v.key,
			Rows:              []simplestructure.RowSpec{{EntityID: v.entity.ID}},
		}); err != nil {
			log.Fatalf("Failed to add variant: %v", err)
		}
	}

	fmt.Println("\nDraft resolution of the selector, choosing variant-b:")
	entries, err = svc.Resolve(ctx, simplestructure.ResolveRequest{
		VersionID: sv.ID,
		Mode:      simplestructure.ModeDraft,
		Policy:    simplestructure.VariantKey("variant-b"),
	})
	if err != nil {
		log.Fatalf("Failed to resolve: %v", err)
	}
	printEntries(entries, 0)
}

func printEntries(entries []simplestructure.ResolvedEntry, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range entries {
		pin := ""
		if e.Pinned {
			pin = " (pinned)"
		}
		fmt.Printf("%s%d. %s v%d: %s%s\n", indent, e.Position, e.Kind, e.VersionNum, e.Title, pin)
		printEntries(e.Children, depth+1)
	}
}
