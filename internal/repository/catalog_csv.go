package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"orderchat/internal/entities"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// LoadCatalogCSV reads "code,name,unit_price" rows. The first row is a header.
func LoadCatalogCSV(filePath string) ([]entities.Product, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var products []entities.Product
	// Skip header row
	for i := 1; i < len(records); i++ {
		if len(records[i]) < 3 {
			continue
		}
		code := strings.TrimSpace(records[i][0])
		name := strings.TrimSpace(records[i][1])
		if code == "" || name == "" {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(records[i][2]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price %q: %w", i+1, records[i][2], err)
		}
		products = append(products, entities.Product{ID: code, Name: name, UnitPrice: price})
	}
	return products, nil
}

// SyncFromCSV loads the catalog file into store
func SyncFromCSV(ctx context.Context, store ProductUpserter, filePath string) (int, error) {
	products, err := LoadCatalogCSV(filePath)
	if err != nil {
		return 0, err
	}
	if err := store.UpsertProducts(ctx, products); err != nil {
		return 0, err
	}
	return len(products), nil
}

type ProductUpserter interface {
	UpsertProducts(ctx context.Context, products []entities.Product) error
}
