package committer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"audiogest/identity"
	"audiogest/internal/refcode"
	"audiogest/record"
	"audiogest/storage"
)

// Service persists deduplicated records into the document store.
type Service struct {
	store  storage.DocumentStore
	actors identity.Provider
	now    func() time.Time
}

func New(store storage.DocumentStore, actors identity.Provider) *Service {
	return &Service{store: store, actors: actors, now: time.Now}
}

// CommitError ties one failed record to a human-readable handle.
type CommitError struct {
	Ref     string
	Message string
}

// ImportResult aggregates the per-record outcomes of one commit batch.
type ImportResult struct {
	Reussies   int
	Doublons   int
	MisesAJour int
	Erreurs    []CommitError
}

// Commit persists records one by one, in input order. The loop is
// deliberately sequential: reference numbers come out in deterministic order
// and the stock natural-key check cannot race a concurrent create. One
// record's failure never aborts the batch; it lands in Erreurs and the loop
// moves on.
//
// Commit does no cross-call deduplication: running the same batch twice
// creates two record sets. Only the caller's merge-time dedup and the stock
// natural-key check suppress duplicates. Known limitation, kept on purpose.
func (s *Service) Commit(ctx context.Context, records []record.Normalized, sourceFile string) *ImportResult {
	result := &ImportResult{Erreurs: make([]CommitError, 0)}
	actor := s.resolveActor(ctx)

	for _, rec := range records {
		switch r := rec.(type) {
		case record.Payment:
			s.commitPayment(ctx, renormalizeNames(r), sourceFile, actor, result)
		case record.StockItem:
			s.commitStock(ctx, r, sourceFile, actor, result)
		default:
			result.Erreurs = append(result.Erreurs, CommitError{
				Ref:     rec.Ref(),
				Message: fmt.Sprintf("unsupported record domain %s", rec.RecordDomain()),
			})
		}
	}

	slog.Info("import committed",
		"source", sourceFile,
		"reussies", result.Reussies,
		"doublons", result.Doublons,
		"misesAJour", result.MisesAJour,
		"erreurs", len(result.Erreurs),
	)
	return result
}

func (s *Service) commitPayment(ctx context.Context, payment record.Payment, sourceFile string, actor record.Actor, result *ImportResult) {
	s.create(ctx, payment, record.StatutNouveau, sourceFile, actor, result)
}

func (s *Service) commitStock(ctx context.Context, item record.StockItem, sourceFile string, actor record.Actor, result *ImportResult) {
	existing, err := s.findExistingStock(ctx, item)
	if err != nil {
		// The existence check is caught per record, same as a failed create;
		// a store hiccup on one record must not sink the rest of the batch.
		result.Erreurs = append(result.Erreurs, CommitError{
			Ref:     item.Ref(),
			Message: fmt.Sprintf("existence check: %v", err),
		})
		return
	}

	if existing != nil {
		if !stockChanged(existing, item) {
			result.Doublons++
			return
		}
		if err := s.updateStock(ctx, existing.ID, item, actor, sourceFile); err != nil {
			result.Erreurs = append(result.Erreurs, CommitError{
				Ref:     item.Ref(),
				Message: err.Error(),
			})
			return
		}
		result.MisesAJour++
		return
	}

	s.create(ctx, item, item.Statut, sourceFile, actor, result)
}

// create persists one record with its generated reference and audit envelope.
func (s *Service) create(ctx context.Context, rec record.Normalized, statut string, sourceFile string, actor record.Actor, result *ImportResult) {
	doc, err := docFromRecord(rec)
	if err != nil {
		result.Erreurs = append(result.Erreurs, CommitError{Ref: rec.Ref(), Message: err.Error()})
		return
	}

	domain := rec.RecordDomain()
	now := s.now()
	doc["reference"] = refcode.New(domain.ReferencePrefix(), now)
	doc["dateImport"] = now
	doc["statut"] = statut
	if sourceFile != "" {
		doc["importSource"] = sourceFile
	} else {
		doc["importSource"] = nil
	}
	doc["dates"] = record.Dates{Creation: now}
	doc["intervenants"] = record.Intervenants{CreePar: &actor}
	doc["historique"] = []record.HistoryEntry{{
		Date:        now,
		Action:      "import",
		Details:     importDetails(sourceFile),
		Utilisateur: &actor,
	}}

	if _, err := s.store.Create(ctx, domain.Collection(), doc); err != nil {
		result.Erreurs = append(result.Erreurs, CommitError{Ref: rec.Ref(), Message: err.Error()})
		return
	}
	result.Reussies++
}

// findExistingStock resolves the natural key: serial+store when a serial is
// present, libellé+store otherwise. The generated reference plays no part.
func (s *Service) findExistingStock(ctx context.Context, item record.StockItem) (*storage.Document, error) {
	var filters []storage.Filter
	if strings.TrimSpace(item.NumeroSerie) != "" {
		filters = []storage.Filter{
			{Field: "numeroSerie", Op: storage.OpEq, Value: item.NumeroSerie},
			{Field: "magasin", Op: storage.OpEq, Value: item.Magasin},
		}
	} else {
		filters = []storage.Filter{
			{Field: "libelle", Op: storage.OpEq, Value: item.Libelle},
			{Field: "magasin", Op: storage.OpEq, Value: item.Magasin},
		}
	}

	documents, err := s.store.Find(ctx, record.DomainStock.Collection(), storage.Query{Filters: filters, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, nil
	}
	return &documents[0], nil
}

// stockChanged reports whether the incoming row differs from the stored
// document on its mutable fields (status, client).
func stockChanged(existing *storage.Document, item record.StockItem) bool {
	statut, _ := existing.Fields["statut"].(string)
	client, _ := existing.Fields["client"].(string)
	return statut != item.Statut || client != item.Client
}

// updateStock merges the mutable fields into the stored document and appends
// the one historique entry this mutation owes.
func (s *Service) updateStock(ctx context.Context, id string, item record.StockItem, actor record.Actor, sourceFile string) error {
	now := s.now()
	fields := map[string]any{
		"statut":                  item.Statut,
		"client":                  item.Client,
		"dates.modification":      now,
		"intervenants.modifiePar": actor,
	}
	if err := s.store.Update(ctx, record.DomainStock.Collection(), id, fields); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	entry := record.HistoryEntry{
		Date:        now,
		Action:      "import",
		Details:     importDetails(sourceFile),
		Utilisateur: &actor,
	}
	if err := s.store.AppendHistory(ctx, record.DomainStock.Collection(), id, entry); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *Service) resolveActor(ctx context.Context) record.Actor {
	if s.actors == nil {
		return identity.Fallback()
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil || actor == nil {
		return identity.Fallback()
	}
	return *actor
}

// renormalizeNames re-derives the split and combined client name fields from
// whichever side is present. The row parser already does this; commit inputs
// can also arrive from callers that only filled one side.
func renormalizeNames(payment record.Payment) record.Payment {
	combined := strings.Join(strings.Fields(payment.Client), " ")
	if combined == "" && payment.NomClient != "" {
		combined = strings.TrimSpace(payment.NomClient + " " + payment.PrenomClient)
	}
	payment.Client = combined

	if payment.NomClient == "" && combined != "" {
		nom, prenom := splitName(combined)
		payment.NomClient = nom
		payment.PrenomClient = prenom
	}
	return payment
}

func splitName(full string) (string, string) {
	index := strings.Index(full, " ")
	if index < 0 {
		return full, ""
	}
	return full[:index], full[index+1:]
}

func importDetails(sourceFile string) string {
	if sourceFile == "" {
		return "Imported from CSV"
	}
	return "Imported from " + sourceFile
}

func docFromRecord(rec record.Normalized) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("rebuild record document: %w", err)
	}
	return doc, nil
}
