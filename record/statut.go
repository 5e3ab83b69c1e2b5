package record

// Workflow codes for stock items.
const (
	StatutEnCommande    = "EN_COMMANDE"
	StatutRecu          = "RECU"
	StatutEnStock       = "EN_STOCK"
	StatutReserve       = "RESERVE"
	StatutEnEssai       = "EN_ESSAI"
	StatutEssaiProlonge = "ESSAI_PROLONGE"
	StatutPret          = "PRET"
	StatutVendu         = "VENDU"
	StatutFacture       = "FACTURE"
	StatutRetourne      = "RETOURNE"
	StatutSAV           = "SAV"
	StatutPerdu         = "PERDU"
	StatutDetruit       = "DETRUIT"
)

// StatutNouveau is the default workflow state for freshly imported payments.
const StatutNouveau = "NOUVEAU"

// StockStatuts lists every stock workflow code.
var StockStatuts = []string{
	StatutEnCommande,
	StatutRecu,
	StatutEnStock,
	StatutReserve,
	StatutEnEssai,
	StatutEssaiProlonge,
	StatutPret,
	StatutVendu,
	StatutFacture,
	StatutRetourne,
	StatutSAV,
	StatutPerdu,
	StatutDetruit,
}
