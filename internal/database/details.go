package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/npezzotti/campus-courier/internal/types"
)

// Category details are stored as JSON columns on SQL backends and as
// subdocuments on MongoDB.

type StationeryItem struct {
	Name     string `json:"name" bson:"name"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

type StationeryDetails struct {
	Items          []StationeryItem `json:"items" bson:"items"`
	AdditionalInfo string           `json:"additional_info,omitempty" bson:"additional_info,omitempty"`
}

type PrintoutDetails struct {
	FileUrl        string `json:"file_url,omitempty" bson:"file_url,omitempty"`
	FileName       string `json:"file_name" bson:"file_name"`
	FileType       string `json:"file_type,omitempty" bson:"file_type,omitempty"`
	Pages          int    `json:"pages,omitempty" bson:"pages,omitempty"`
	Color          bool   `json:"color" bson:"color"`
	DoubleSided    bool   `json:"double_sided" bson:"double_sided"`
	AdditionalInfo string `json:"additional_info,omitempty" bson:"additional_info,omitempty"`
}

func (d StationeryDetails) Value() (driver.Value, error) {
	return jsonValue(d)
}

func (d *StationeryDetails) Scan(src any) error {
	return scanJSON(src, d)
}

func (d PrintoutDetails) Value() (driver.Value, error) {
	return jsonValue(d)
}

func (d *PrintoutDetails) Scan(src any) error {
	return scanJSON(src, d)
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

func scanJSON(src, dst any) error {
	var raw []byte
	switch s := src.(type) {
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func (d *StationeryDetails) ToType() *types.StationeryDetails {
	if d == nil {
		return nil
	}

	items := make([]types.StationeryItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, types.StationeryItem{Name: it.Name, Quantity: it.Quantity})
	}
	return &types.StationeryDetails{Items: items, AdditionalInfo: d.AdditionalInfo}
}

func (d *PrintoutDetails) ToType() *types.PrintoutDetails {
	if d == nil {
		return nil
	}

	return &types.PrintoutDetails{
		FileUrl:        d.FileUrl,
		FileName:       d.FileName,
		FileType:       d.FileType,
		Pages:          d.Pages,
		Color:          d.Color,
		DoubleSided:    d.DoubleSided,
		AdditionalInfo: d.AdditionalInfo,
	}
}
