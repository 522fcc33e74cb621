// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"
	"time"

	"contentforge/internal/models"
)

func TestItemStoreSaveAndFind(t *testing.T) {
	db := testDB(t)
	s := NewItemStore(db)
	ctx := context.Background()
	id := "test-item-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { cleanItems(t, db, id) })

	item := models.ContentItem{ID: id, Title: "Cold Brew", Kind: models.ItemKindPillar, Status: models.ItemStatusIdle}
	if err := s.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}

	done := item.WithStatus(models.ItemStatusDone, "Generated").WithContent(&models.GeneratedContent{
		Title: "Cold Brew", Slug: "cold-brew", WordCount: 1900,
	})
	if err := s.Save(ctx, done); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	got, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got == nil || got.Status != models.ItemStatusDone || got.Kind != models.ItemKindPillar {
		t.Fatalf("got %+v", got)
	}
	if got.Generated == nil || got.Generated.Slug != "cold-brew" || got.Generated.WordCount != 1900 {
		t.Errorf("generated = %+v", got.Generated)
	}
}

func TestItemStoreKeepsImagePayload(t *testing.T) {
	db := testDB(t)
	s := NewItemStore(db)
	ctx := context.Background()
	id := "test-image-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { cleanItems(t, db, id) })

	img := models.ImageDetail{Placeholder: "[IMAGE_1_PLACEHOLDER]", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	item := models.ContentItem{ID: id, Title: "Cold Brew", Kind: models.ItemKindStandard, Status: models.ItemStatusDone}.
		WithContent(&models.GeneratedContent{Slug: "cold-brew", Content: `<img src="` + img.DataURI() + `"/>`, ImageDetails: []models.ImageDetail{img}})
	if err := s.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.FindByID(ctx, id)
	if err != nil || got == nil || got.Generated == nil {
		t.Fatalf("FindByID = (%+v, %v)", got, err)
	}
	if len(got.Generated.ImageDetails) != 1 || string(got.Generated.ImageDetails[0].Data) != string(img.Data) {
		t.Errorf("image payload lost: %+v", got.Generated.ImageDetails)
	}
	if got.Generated.ImageDetails[0].DataURI() != img.DataURI() {
		t.Error("restored payload no longer matches the inline data URI")
	}
}

func TestItemStoreFindMissing(t *testing.T) {
	db := testDB(t)
	got, err := NewItemStore(db).FindByID(context.Background(), "no-such-item")
	if err != nil || got != nil {
		t.Errorf("FindByID missing = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestItemStoreList(t *testing.T) {
	db := testDB(t)
	s := NewItemStore(db)
	ctx := context.Background()
	ids := []string{"test-list-a", "test-list-b"}
	t.Cleanup(func() { cleanItems(t, db, ids...) })

	for _, id := range ids {
		if err := s.Save(ctx, models.ContentItem{ID: id, Title: id, Kind: models.ItemKindStandard, Status: models.ItemStatusIdle}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	items, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := 0
	for _, it := range items {
		if it.ID == ids[0] || it.ID == ids[1] {
			found++
		}
	}
	if found != 2 {
		t.Errorf("List found %d of 2 saved items", found)
	}
}

func TestPublishLog(t *testing.T) {
	db := testDB(t)
	s := NewPublishLogStore(db)
	ctx := context.Background()
	t.Cleanup(func() { cleanItems(t, db, "test-publish-item") })

	s.Log(ctx, "test-publish-item", 42, "https://wp.test/a/", true)

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) == 0 || entries[0].ItemID != "test-publish-item" || entries[0].PostID != 42 || !entries[0].Updated {
		t.Errorf("entries = %+v", entries)
	}
}
