package committer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"audiogest/identity"
	"audiogest/record"
	"audiogest/storage"
)

type fakeDoc struct {
	id         string
	collection string
	fields     map[string]any
}

// fakeStore is an in-memory DocumentStore with failure injection.
type fakeStore struct {
	docs             []*fakeDoc
	nextID           int
	failCreateClient string
	findErr          error
	historyCalls     int
}

func (f *fakeStore) Create(_ context.Context, collection string, doc map[string]any) (string, error) {
	if f.failCreateClient != "" && doc["client"] == f.failCreateClient {
		return "", fmt.Errorf("store unavailable")
	}
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	f.docs = append(f.docs, &fakeDoc{id: id, collection: collection, fields: doc})
	return id, nil
}

func (f *fakeStore) Get(_ context.Context, collection, id string) (*storage.Document, error) {
	for _, doc := range f.docs {
		if doc.id == id && doc.collection == collection {
			return &storage.Document{ID: doc.id, Fields: doc.fields}, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) Find(_ context.Context, collection string, query storage.Query) ([]storage.Document, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	matches := make([]storage.Document, 0, 4)
	for _, doc := range f.docs {
		if doc.collection != collection {
			continue
		}
		matched := true
		for _, filter := range query.Filters {
			if doc.fields[filter.Field] != filter.Value {
				matched = false
				break
			}
		}
		if matched {
			matches = append(matches, storage.Document{ID: doc.id, Fields: doc.fields})
		}
		if query.Limit > 0 && len(matches) == query.Limit {
			break
		}
	}
	return matches, nil
}

func (f *fakeStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	for _, doc := range f.docs {
		if doc.id != id || doc.collection != collection {
			continue
		}
		for key, value := range fields {
			parts := strings.Split(key, ".")
			target := doc.fields
			for _, part := range parts[:len(parts)-1] {
				next, ok := target[part].(map[string]any)
				if !ok {
					next = make(map[string]any)
					target[part] = next
				}
				target = next
			}
			target[parts[len(parts)-1]] = value
		}
		return nil
	}
	return storage.ErrNotFound
}

func (f *fakeStore) AppendHistory(_ context.Context, collection, id string, entry record.HistoryEntry) error {
	for _, doc := range f.docs {
		if doc.id != id || doc.collection != collection {
			continue
		}
		list, _ := doc.fields["historique"].([]any)
		doc.fields["historique"] = append(list, entry)
		f.historyCalls++
		return nil
	}
	return storage.ErrNotFound
}

func (f *fakeStore) Delete(_ context.Context, collection, id string) error {
	for i, doc := range f.docs {
		if doc.id == id && doc.collection == collection {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

var fixedNow = time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC)

func newTestService(store storage.DocumentStore, actors identity.Provider) *Service {
	service := New(store, actors)
	service.now = func() time.Time { return fixedNow }
	return service
}

func TestCommit_PaymentsCreated(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	service := newTestService(store, nil)

	records := []record.Normalized{
		record.Payment{Date: "2026-03-15", Client: "MARTIN Jean", NomClient: "MARTIN", PrenomClient: "Jean", TypeReglement: "CB", Montant: 150, Magasin: "A01"},
		record.Payment{Date: "2026-03-16", Client: "DUPONT Marie", NomClient: "DUPONT", PrenomClient: "Marie", TypeReglement: "CHEQUE", Montant: 200.5, Magasin: "A01"},
	}

	result := service.Commit(context.Background(), records, "reglements_mars.csv")
	if result.Reussies != 2 || len(result.Erreurs) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.docs) != 2 {
		t.Fatalf("expected 2 stored documents, got %d", len(store.docs))
	}

	doc := store.docs[0]
	if doc.collection != "reglements" {
		t.Fatalf("unexpected collection: %q", doc.collection)
	}

	reference, _ := doc.fields["reference"].(string)
	if !regexp.MustCompile(`^REG-202603-[0-9A-Z]{4}$`).MatchString(reference) {
		t.Fatalf("unexpected reference: %q", reference)
	}
	if doc.fields["statut"] != record.StatutNouveau {
		t.Fatalf("unexpected statut: %v", doc.fields["statut"])
	}
	if doc.fields["importSource"] != "reglements_mars.csv" {
		t.Fatalf("unexpected import source: %v", doc.fields["importSource"])
	}
	if doc.fields["client"] != "MARTIN Jean" || doc.fields["montant"] != float64(150) {
		t.Fatalf("unexpected document fields: %v", doc.fields)
	}

	dates, ok := doc.fields["dates"].(record.Dates)
	if !ok || !dates.Creation.Equal(fixedNow) || dates.Modification != nil {
		t.Fatalf("unexpected dates: %v", doc.fields["dates"])
	}

	intervenants, ok := doc.fields["intervenants"].(record.Intervenants)
	if !ok || intervenants.CreePar == nil || intervenants.CreePar.ID != "import" {
		t.Fatalf("expected fallback actor, got %v", doc.fields["intervenants"])
	}

	historique, ok := doc.fields["historique"].([]record.HistoryEntry)
	if !ok || len(historique) != 1 {
		t.Fatalf("expected one historique entry, got %v", doc.fields["historique"])
	}
	entry := historique[0]
	if entry.Action != "import" || entry.Details != "Imported from reglements_mars.csv" {
		t.Fatalf("unexpected historique entry: %+v", entry)
	}
	if entry.Utilisateur == nil || entry.Utilisateur.ID != "import" {
		t.Fatalf("unexpected historique actor: %+v", entry.Utilisateur)
	}
}

func TestCommit_PartialFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{failCreateClient: "DUPONT Marie"}
	service := newTestService(store, nil)

	records := []record.Normalized{
		record.Payment{Date: "2026-03-15", Client: "MARTIN Jean", NomClient: "MARTIN", PrenomClient: "Jean", Montant: 150},
		record.Payment{Date: "2026-03-16", Client: "DUPONT Marie", NomClient: "DUPONT", PrenomClient: "Marie", Montant: 200},
		record.Payment{Date: "2026-03-17", Client: "BERNARD Luc", NomClient: "BERNARD", PrenomClient: "Luc", Montant: 80},
	}

	result := service.Commit(context.Background(), records, "")
	if result.Reussies != 2 {
		t.Fatalf("expected 2 successes, got %d", result.Reussies)
	}
	if len(result.Erreurs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Erreurs))
	}
	if !strings.Contains(result.Erreurs[0].Ref, "DUPONT Marie") {
		t.Fatalf("unexpected error ref: %+v", result.Erreurs[0])
	}
	// The record after the failure still lands.
	if len(store.docs) != 2 {
		t.Fatalf("expected 2 stored documents, got %d", len(store.docs))
	}
}

func TestCommit_EmptySourceFile(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	service := newTestService(store, nil)

	result := service.Commit(context.Background(), []record.Normalized{
		record.Payment{Date: "2026-03-15", Client: "MARTIN Jean", Montant: 10},
	}, "")
	if result.Reussies != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	doc := store.docs[0]
	if doc.fields["importSource"] != nil {
		t.Fatalf("expected nil import source, got %v", doc.fields["importSource"])
	}
	historique := doc.fields["historique"].([]record.HistoryEntry)
	if historique[0].Details != "Imported from CSV" {
		t.Fatalf("unexpected details: %q", historique[0].Details)
	}
}

func TestCommit_StockCreateWhenAbsent(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	service := newTestService(store, nil)

	result := service.Commit(context.Background(), []record.Normalized{
		record.StockItem{Date: "2026-03-15", Libelle: "Audeo Lumity L90", NumeroSerie: "SN12345", Magasin: "A01", Statut: record.StatutVendu, Quantite: 1, Categorie: "appareil"},
	}, "stock.csv")
	if result.Reussies != 1 || result.Doublons != 0 || result.MisesAJour != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	doc := store.docs[0]
	if doc.collection != "stock" {
		t.Fatalf("unexpected collection: %q", doc.collection)
	}
	// Stock creations keep the row's own workflow status.
	if doc.fields["statut"] != record.StatutVendu {
		t.Fatalf("unexpected statut: %v", doc.fields["statut"])
	}
	reference, _ := doc.fields["reference"].(string)
	if !strings.HasPrefix(reference, "STK-202603-") {
		t.Fatalf("unexpected reference: %q", reference)
	}
}

func TestCommit_StockDuplicate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	seedStock(store, map[string]any{
		"numeroSerie": "SN12345",
		"magasin":     "A01",
		"statut":      record.StatutEnStock,
		"client":      "",
	})
	service := newTestService(store, nil)

	result := service.Commit(context.Background(), []record.Normalized{
		record.StockItem{Libelle: "Audeo Lumity L90", NumeroSerie: "SN12345", Magasin: "A01", Statut: record.StatutEnStock},
	}, "stock.csv")
	if result.Doublons != 1 || result.Reussies != 0 || result.MisesAJour != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.docs) != 1 {
		t.Fatalf("duplicate must not create a document")
	}
	if store.historyCalls != 0 {
		t.Fatalf("duplicate must not touch historique")
	}
}

func TestCommit_StockUpdate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	id := seedStock(store, map[string]any{
		"numeroSerie": "SN12345",
		"magasin":     "A01",
		"statut":      record.StatutEnStock,
		"client":      "",
	})
	service := newTestService(store, nil)

	result := service.Commit(context.Background(), []record.Normalized{
		record.StockItem{Libelle: "Audeo Lumity L90", NumeroSerie: "SN12345", Magasin: "A01", Statut: record.StatutVendu, Client: "MARTIN Jean"},
	}, "stock.csv")
	if result.MisesAJour != 1 || result.Reussies != 0 || result.Doublons != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	doc, err := store.Get(context.Background(), "stock", id)
	if err != nil {
		t.Fatalf("get updated document: %v", err)
	}
	if doc.Fields["statut"] != record.StatutVendu || doc.Fields["client"] != "MARTIN Jean" {
		t.Fatalf("unexpected updated fields: %v", doc.Fields)
	}

	dates, ok := doc.Fields["dates"].(map[string]any)
	if !ok || dates["modification"] == nil {
		t.Fatalf("expected modification date, got %v", doc.Fields["dates"])
	}
	if store.historyCalls != 1 {
		t.Fatalf("expected exactly one historique append, got %d", store.historyCalls)
	}
	historique, _ := doc.Fields["historique"].([]any)
	if len(historique) != 1 {
		t.Fatalf("expected one historique entry, got %v", doc.Fields["historique"])
	}
}

func TestCommit_StockLibelleFallbackKey(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	seedStock(store, map[string]any{
		"libelle": "Pile 312 blister x6",
		"magasin": "A01",
		"statut":  record.StatutEnStock,
		"client":  "",
	})
	service := newTestService(store, nil)

	result := service.Commit(context.Background(), []record.Normalized{
		record.StockItem{Libelle: "Pile 312 blister x6", Magasin: "A01", Statut: record.StatutEnStock},
	}, "stock.csv")
	if result.Doublons != 1 {
		t.Fatalf("expected libellé match to count as doublon: %+v", result)
	}
}

func TestCommit_StockExistenceCheckFailureIsPerRecord(t *testing.T) {
	t.Parallel()

	store := &fakeStore{findErr: errors.New("connection refused")}
	service := newTestService(store, nil)

	result := service.Commit(context.Background(), []record.Normalized{
		record.StockItem{Libelle: "Audeo Lumity L90", NumeroSerie: "SN1", Magasin: "A01", Statut: record.StatutEnStock},
		record.StockItem{Libelle: "Pile 312 blister x6", Magasin: "A01", Statut: record.StatutEnStock},
	}, "stock.csv")

	if len(result.Erreurs) != 2 {
		t.Fatalf("expected both records in error, got %+v", result)
	}
	for _, commitError := range result.Erreurs {
		if !strings.Contains(commitError.Message, "existence check") {
			t.Fatalf("unexpected error message: %+v", commitError)
		}
	}
	if result.Reussies != 0 || len(store.docs) != 0 {
		t.Fatalf("failed existence checks must not create documents")
	}
}

func TestCommit_ActorFromProvider(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	provider := identity.Static{Actor: record.Actor{ID: "u1", Nom: "Durand", Prenom: "Claire"}}
	service := newTestService(store, provider)

	service.Commit(context.Background(), []record.Normalized{
		record.Payment{Date: "2026-03-15", Client: "MARTIN Jean", Montant: 10},
	}, "reglements.csv")

	intervenants := store.docs[0].fields["intervenants"].(record.Intervenants)
	if intervenants.CreePar.ID != "u1" || intervenants.CreePar.Nom != "Durand" {
		t.Fatalf("unexpected creator: %+v", intervenants.CreePar)
	}
}

func TestRenormalizeNames(t *testing.T) {
	t.Parallel()

	fromCombined := renormalizeNames(record.Payment{Client: "  MARTIN   Jean "})
	if fromCombined.Client != "MARTIN Jean" || fromCombined.NomClient != "MARTIN" || fromCombined.PrenomClient != "Jean" {
		t.Fatalf("unexpected renormalization: %+v", fromCombined)
	}

	fromSplit := renormalizeNames(record.Payment{NomClient: "DUPONT", PrenomClient: "Marie"})
	if fromSplit.Client != "DUPONT Marie" {
		t.Fatalf("unexpected combined name: %+v", fromSplit)
	}
}

func seedStock(store *fakeStore, fields map[string]any) string {
	store.nextID++
	id := fmt.Sprintf("doc-%d", store.nextID)
	store.docs = append(store.docs, &fakeDoc{id: id, collection: "stock", fields: fields})
	return id
}
