package models

import (
	"strings"
	"time"
)

// SoustraitanceClient is an external customer whose products are made on their behalf.
type SoustraitanceClient struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// SoustraitanceProduct is a product manufactured for a subcontracting client.
type SoustraitanceProduct struct {
	ID          int64     `json:"id"`
	ClientID    int64     `json:"client_id"`
	ClientName  string    `json:"client_name,omitempty"`
	BoutiqueRef string    `json:"boutique_origin,omitempty"`
	Reference   string    `json:"reference_product,omitempty"`
	Name        string    `json:"nom_product"`
	Description string    `json:"description_product,omitempty"`
	Type        string    `json:"type_product,omitempty"`
	Category    string    `json:"category_product,omitempty"`
	Price       float64   `json:"price_product"`
	Quantity    int       `json:"qnty_product"`
	Color       string    `json:"color_product,omitempty"`
	Status      string    `json:"status_product,omitempty"`
	NoSize      bool      `json:"no_size"`
	Sizes       []string  `json:"sizes,omitempty"`
	Images      []string  `json:"images,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// SoustraitanceProductInput is the create/edit form of a subcontracted product.
type SoustraitanceProductInput struct {
	ClientID    int64    `json:"client_id"`
	Reference   string   `json:"reference_product"`
	Name        string   `json:"nom_product"`
	Description string   `json:"description_product"`
	Type        string   `json:"type_product"`
	Category    string   `json:"category_product"`
	Price       float64  `json:"price_product"`
	Quantity    int      `json:"qnty_product"`
	Color       string   `json:"color_product"`
	Status      string   `json:"status_product"`
	NoSize      bool     `json:"no_size"`
	Sizes       []string `json:"sizes"`
}

// Validate applies the form rules of the product editor.
func (in SoustraitanceProductInput) Validate() error {
	errs := ValidationErrors{}
	if in.ClientID <= 0 {
		errs.Add("client_id", "Le client est requis")
	}
	if strings.TrimSpace(in.Name) == "" {
		errs.Add("nom_product", "Le nom du produit est requis")
	}
	if in.Price < 0 {
		errs.Add("price_product", "Le prix ne peut pas être négatif")
	}
	if in.Quantity < 0 {
		errs.Add("qnty_product", "La quantité ne peut pas être négative")
	}
	if in.NoSize && !IsOneSize(in.Sizes) {
		errs.Add("sizes", "Un produit sans taille ne peut pas avoir de tailles")
	}
	return errs.OrNil()
}

// SyncTarget names a boutique catalog synchronization endpoint.
type SyncTarget string

const (
	SyncAll              SyncTarget = "all"
	SyncLuccibyey        SyncTarget = "luccibyey"
	SyncSpadadibattaglia SyncTarget = "spadadibattaglia"
	SyncAllLucci         SyncTarget = "all_lucci"
)

// ParseSyncTarget validates a target name.
func ParseSyncTarget(value string) (SyncTarget, bool) {
	switch t := SyncTarget(strings.ToLower(value)); t {
	case SyncAll, SyncLuccibyey, SyncSpadadibattaglia, SyncAllLucci:
		return t, true
	}
	return "", false
}

// SyncResult reports the outcome of a catalog synchronization.
type SyncResult struct {
	Target  SyncTarget `json:"target"`
	Message string     `json:"message"`
	Added   int        `json:"added"`
	Updated int        `json:"updated"`
}
