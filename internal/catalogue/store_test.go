package catalogue

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/NASA-AMMOS/synopsis/internal/metadata"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogue.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGetDataProduct(t *testing.T) {
	s := openTestStore(t)

	rec := Record{
		InstrumentName:         "CAM",
		Type:                   "image",
		URI:                    "/data/a.img",
		Size:                   1024,
		ScienceUtilityEstimate: 0.75,
		PriorityBin:            1,
		DownlinkState:          Untransmitted,
		Metadata: metadata.Entry{
			"exposure": metadata.Float(2.5),
		},
	}

	id, err := s.InsertDataProduct(rec)
	if err != nil {
		t.Fatalf("InsertDataProduct: %v", err)
	}

	got, err := s.GetDataProduct(id)
	if err != nil {
		t.Fatalf("GetDataProduct: %v", err)
	}
	if got.InstrumentName != "CAM" || got.Type != "image" || got.Size != 1024 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Metadata["exposure"].Numeric() != 2.5 {
		t.Fatalf("expected exposure 2.5, got %+v", got.Metadata["exposure"])
	}
}

func TestListDataProductIDsOrdered(t *testing.T) {
	s := openTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.InsertDataProduct(Record{InstrumentName: "CAM", Type: "image", URI: "/x", Metadata: metadata.Entry{}})
		if err != nil {
			t.Fatalf("InsertDataProduct: %v", err)
		}
		ids = append(ids, id)
	}

	got, err := s.ListDataProductIDs()
	if err != nil {
		t.Fatalf("ListDataProductIDs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(got))
	}
	for i, id := range ids {
		if got[i] != id {
			t.Fatalf("expected ids in insertion order, got %v want %v", got, ids)
		}
	}
}

func TestListQueuedExcludesDownlinked(t *testing.T) {
	s := openTestStore(t)

	pending, err := s.InsertDataProduct(Record{InstrumentName: "CAM", Type: "image", URI: "/x", Metadata: metadata.Entry{}})
	if err != nil {
		t.Fatalf("InsertDataProduct: %v", err)
	}
	done, err := s.InsertDataProduct(Record{InstrumentName: "CAM", Type: "image", URI: "/y", Metadata: metadata.Entry{}})
	if err != nil {
		t.Fatalf("InsertDataProduct: %v", err)
	}
	if err := s.UpdateDownlinkState(done, Downlinked); err != nil {
		t.Fatalf("UpdateDownlinkState: %v", err)
	}

	queued, err := s.ListQueued()
	if err != nil {
		t.Fatalf("ListQueued: %v", err)
	}
	if len(queued) != 1 {
		t.Fatalf("expected 1 queued entry, got %d", len(queued))
	}
	if queued[0].Get(metadata.FieldID).Int64() != pending {
		t.Fatalf("expected queued entry to be the pending record")
	}
}

func TestUpdateScienceUtilityAndPriorityBin(t *testing.T) {
	s := openTestStore(t)
	id, err := s.InsertDataProduct(Record{InstrumentName: "CAM", Type: "image", URI: "/x", Metadata: metadata.Entry{}})
	if err != nil {
		t.Fatalf("InsertDataProduct: %v", err)
	}

	if err := s.UpdateScienceUtility(id, 0.9); err != nil {
		t.Fatalf("UpdateScienceUtility: %v", err)
	}
	if err := s.UpdatePriorityBin(id, 2); err != nil {
		t.Fatalf("UpdatePriorityBin: %v", err)
	}

	got, err := s.GetDataProduct(id)
	if err != nil {
		t.Fatalf("GetDataProduct: %v", err)
	}
	if got.ScienceUtilityEstimate != 0.9 || got.PriorityBin != 2 {
		t.Fatalf("unexpected record after update: %+v", got)
	}
}

func TestGetDataProductReturnsErrNotFoundForUnknownID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetDataProduct(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatesReturnErrNotFoundForUnknownID(t *testing.T) {
	s := openTestStore(t)

	if err := s.UpdateScienceUtility(999, 0.5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateScienceUtility: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdatePriorityBin(999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdatePriorityBin: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateDownlinkState(999, Downlinked); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateDownlinkState: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMetadataRejectsUnknownField(t *testing.T) {
	s := openTestStore(t)
	id, err := s.InsertDataProduct(Record{InstrumentName: "CAM", Type: "image", URI: "/x", Metadata: metadata.Entry{}})
	if err != nil {
		t.Fatalf("InsertDataProduct: %v", err)
	}

	if err := s.UpdateMetadata(id, "nonexistent", metadata.Int(1)); err == nil {
		t.Fatal("expected error updating a field that does not already exist")
	}
}

func TestUpdateMetadataOverwritesExistingField(t *testing.T) {
	s := openTestStore(t)
	id, err := s.InsertDataProduct(Record{
		InstrumentName: "CAM", Type: "image", URI: "/x",
		Metadata: metadata.Entry{"exposure": metadata.Float(1.0)},
	})
	if err != nil {
		t.Fatalf("InsertDataProduct: %v", err)
	}

	if err := s.UpdateMetadata(id, "exposure", metadata.Float(3.0)); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}

	got, err := s.GetDataProduct(id)
	if err != nil {
		t.Fatalf("GetDataProduct: %v", err)
	}
	if got.Metadata["exposure"].Numeric() != 3.0 {
		t.Fatalf("expected updated exposure 3.0, got %+v", got.Metadata["exposure"])
	}
}
