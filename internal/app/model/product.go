package model

import (
	"encoding/json"
	"strings"
)

// Product is a catalog entry as served by the API.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Images      []string `json:"images,omitempty"`
	InStock     bool     `json:"inStock"`
}

// Variation is a purchasable configuration of a product with its own
// price, stock and attribute set.
type Variation struct {
	ID         string             `json:"id"`
	ProductID  string             `json:"productId"`
	SKU        string             `json:"sku"`
	Price      float64            `json:"price"`
	Stock      int                `json:"stock"`
	Attributes []VariantAttribute `json:"attributes"`
}

type AttributeKind string

const (
	AttributeColor AttributeKind = "color"
	AttributeSize  AttributeKind = "size"
	AttributeOther AttributeKind = "other"
)

// VariantAttribute is the normalized form of a variation attribute. The API
// serves attributes in several incompatible shapes; normalization happens
// once at the unmarshal boundary so nothing downstream shape-sniffs.
type VariantAttribute struct {
	Kind  AttributeKind `json:"kind"`
	Value string        `json:"value"`
}

// UnmarshalJSON accepts the attribute shapes observed on the wire:
//
//	"red"                                  bare value, kind unknown
//	{"kind":"color","value":"red"}         already normalized
//	{"name":"color","value":"red"}         name/value pair
//	{"color":"red"} or {"size":"M"}        single-key object
func (a *VariantAttribute) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*a = VariantAttribute{Kind: AttributeOther, Value: bare}
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	if v, ok := obj["value"]; ok {
		kind := obj["kind"]
		if kind == "" {
			kind = obj["name"]
		}
		*a = VariantAttribute{Kind: normalizeKind(kind), Value: v}
		return nil
	}

	if v, ok := obj["color"]; ok {
		*a = VariantAttribute{Kind: AttributeColor, Value: v}
		return nil
	}
	if v, ok := obj["size"]; ok {
		*a = VariantAttribute{Kind: AttributeSize, Value: v}
		return nil
	}
	for k, v := range obj {
		*a = VariantAttribute{Kind: normalizeKind(k), Value: v}
		return nil
	}

	*a = VariantAttribute{Kind: AttributeOther}
	return nil
}

func normalizeKind(kind string) AttributeKind {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "color", "colour":
		return AttributeColor
	case "size":
		return AttributeSize
	default:
		return AttributeOther
	}
}
