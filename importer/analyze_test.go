package importer

import (
	"errors"
	"strings"
	"testing"

	"audiogest/record"
)

const reglementFile = `Edition du 01/04/2026
Date;Client;Type;Montant;Magasin
15/03/2026;MARTIN Jean;CB;150,00;A01
16/03/2026;"DUPONT; Marie";CHQ;200,50;A01
17/03/2026;;CB;75,00;A01
"18/03/2026;BROKEN Row;CB;50,00
Total : 4 lignes
`

func TestAnalyzeFile_Reglement(t *testing.T) {
	t.Parallel()

	analysis, err := AnalyzeFile("reglements_mars.csv", []byte(reglementFile), &ReglementMapper{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.Separator != ';' {
		t.Fatalf("unexpected separator: %q", string(analysis.Separator))
	}
	if len(analysis.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(analysis.Records))
	}

	first, ok := analysis.Records[0].(record.Payment)
	if !ok {
		t.Fatalf("expected a payment record, got %T", analysis.Records[0])
	}
	if first.Date != "2026-03-15" || first.Client != "MARTIN Jean" || first.Montant != 150 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.NomClient != "MARTIN" || first.PrenomClient != "Jean" {
		t.Fatalf("unexpected name split: %+v", first)
	}
	if first.TypeReglement != "CB" || first.Magasin != "A01" {
		t.Fatalf("unexpected first record: %+v", first)
	}

	second := analysis.Records[1].(record.Payment)
	if second.Client != "DUPONT; Marie" || second.Montant != 200.5 || second.TypeReglement != "CHEQUE" {
		t.Fatalf("unexpected second record: %+v", second)
	}
}

func TestAnalyzeFile_RowErrorIsIsolated(t *testing.T) {
	t.Parallel()

	analysis, err := AnalyzeFile("reglements_mars.csv", []byte(reglementFile), &ReglementMapper{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %d: %v", len(analysis.Errors), analysis.Errors)
	}
	rowError := analysis.Errors[0]
	if rowError.Line != 6 {
		t.Fatalf("expected error on line 6, got %d", rowError.Line)
	}
	if rowError.Excerpt == "" || len([]rune(rowError.Excerpt)) > maxExcerptLength {
		t.Fatalf("unexpected excerpt: %q", rowError.Excerpt)
	}
}

func TestAnalyzeFile_IdentitylessRowsDroppedSilently(t *testing.T) {
	t.Parallel()

	analysis, err := AnalyzeFile("reglements_mars.csv", []byte(reglementFile), &ReglementMapper{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The empty-client row is neither a record nor an error.
	for _, rowError := range analysis.Errors {
		if strings.Contains(rowError.Excerpt, "75,00") {
			t.Fatalf("identity-less row must not produce an error: %+v", rowError)
		}
	}
	for _, rec := range analysis.Records {
		if rec.(record.Payment).Montant == 75 {
			t.Fatalf("identity-less row must not produce a record")
		}
	}
}

func TestAnalyzeFile_Stats(t *testing.T) {
	t.Parallel()

	analysis, err := AnalyzeFile("reglements_mars.csv", []byte(reglementFile), &ReglementMapper{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := analysis.Stats
	if stats.Total != 2 {
		t.Fatalf("expected total 2, got %d", stats.Total)
	}
	if stats.Somme != 350.5 {
		t.Fatalf("expected somme 350.5, got %v", stats.Somme)
	}
	if stats.ParType["CB"] != 1 || stats.ParType["CHEQUE"] != 1 {
		t.Fatalf("unexpected type breakdown: %v", stats.ParType)
	}
	if stats.ParMagasin["A01"] != 2 {
		t.Fatalf("unexpected store breakdown: %v", stats.ParMagasin)
	}
}

func TestAnalyzeFile_Stock(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Date;Marque;Libellé;N° Série;Magasin;Statut;Qté",
		"15/03/2026;Phonak;Audeo Lumity L90;SN12345;A01;En stock;1",
		"16/03/2026;;Pile 312 blister x6;;A01;;10",
		";;Dôme ouvert 8mm;;B02;vendu;(2)",
		"17/03/2026;;;;A01;;1",
	}, "\n")

	analysis, err := AnalyzeFile("stock_A01.csv", []byte(data), &StockMapper{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(analysis.Records))
	}
	if len(analysis.Errors) != 0 {
		t.Fatalf("unexpected row errors: %v", analysis.Errors)
	}

	appareil := analysis.Records[0].(record.StockItem)
	if appareil.NumeroSerie != "SN12345" || appareil.Statut != record.StatutEnStock || appareil.Categorie != "appareil" {
		t.Fatalf("unexpected first item: %+v", appareil)
	}
	if appareil.Date != "2026-03-15" || appareil.Quantite != 1 {
		t.Fatalf("unexpected first item: %+v", appareil)
	}

	piles := analysis.Records[1].(record.StockItem)
	if piles.Categorie != "pile" || piles.Quantite != 10 || piles.Statut != record.StatutEnStock {
		t.Fatalf("unexpected second item: %+v", piles)
	}

	domes := analysis.Records[2].(record.StockItem)
	if domes.Date != StockDateSentinel {
		t.Fatalf("expected date sentinel, got %q", domes.Date)
	}
	if domes.Quantite != -2 || domes.Statut != record.StatutVendu || domes.Categorie != "embout" {
		t.Fatalf("unexpected third item: %+v", domes)
	}
}

func TestAnalyzeFile_FileLevelErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		data     string
		wantErr  error
	}{
		{name: "empty file", fileName: "vide.csv", data: "", wantErr: ErrInvalidFile},
		{name: "bad extension", fileName: "export.xlsx", data: "Date;Client;Montant\n", wantErr: ErrInvalidFile},
		{name: "no header", fileName: "notes.csv", data: "rien\nd'utile\nici\n", wantErr: ErrHeaderNotFound},
		{name: "missing essential columns", fileName: "partiel.csv", data: "Date;Client;Observations\n15/03/2026;MARTIN Jean;RAS\n", wantErr: ErrEssentialColumnsMissing},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := AnalyzeFile(tc.fileName, []byte(tc.data), &ReglementMapper{})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}

			var fileError *FileError
			if !errors.As(err, &fileError) {
				t.Fatalf("expected a *FileError, got %T", err)
			}
			if fileError.File != tc.fileName {
				t.Fatalf("expected file %q in error, got %q", tc.fileName, fileError.File)
			}
		})
	}
}

func TestValidateFile_SizeLimit(t *testing.T) {
	t.Parallel()

	if err := ValidateFile("gros.csv", MaxFileSize+1); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile for oversized file, got %v", err)
	}
	if err := ValidateFile("ok.csv", 1024); err != nil {
		t.Fatalf("unexpected error for valid file: %v", err)
	}
}
