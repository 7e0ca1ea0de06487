package seed

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// Importer receives the parsed catalogue.
type Importer interface {
	ImportMedicines(ctx context.Context, meds []domain.Medicine) int
}

// LoadMedicines reads the catalogue CSV at csvPath and imports every valid row.
// Rows without a low stock threshold get defaultThreshold.
func LoadMedicines(ctx context.Context, imp Importer, csvPath string, defaultThreshold int64) int {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("[seed] unable to load medicine catalog %s: %v", csvPath, err)
		return 0
	}
	defer file.Close()

	meds, err := ReadMedicines(file, defaultThreshold)
	if err != nil {
		log.Printf("[seed] unable to read medicine catalog %s: %v", csvPath, err)
		return 0
	}
	rows := imp.ImportMedicines(ctx, meds)
	log.Printf("[seed] seeded medicine catalog with %d rows", rows)
	return rows
}

// ReadMedicines parses name,category,batch_number,expiry_date,quantity,price,
// low_stock_threshold,manufacturer rows after a header line. Malformed rows
// are logged and skipped.
func ReadMedicines(r io.Reader, defaultThreshold int64) ([]domain.Medicine, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	var meds []domain.Medicine
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[seed] unable to read medicine row: %v", err)
			continue
		}
		if len(record) < 8 {
			continue
		}
		m, err := parseRow(record, defaultThreshold)
		if err != nil {
			log.Printf("[seed] skipping medicine %q: %v", record[0], err)
			continue
		}
		meds = append(meds, m)
	}
	return meds, nil
}

func parseRow(record []string, defaultThreshold int64) (domain.Medicine, error) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	m := domain.Medicine{
		Name:              record[0],
		Category:          record[1],
		BatchNumber:       record[2],
		LowStockThreshold: defaultThreshold,
		Manufacturer:      record[7],
	}
	if m.Name == "" {
		return m, domain.ErrInvalidMedicine
	}

	expiry, err := domain.ParseDate(record[3])
	if err != nil {
		return m, err
	}
	m.ExpiryDate = expiry

	if m.Quantity, err = strconv.ParseInt(record[4], 10, 64); err != nil {
		return m, err
	}
	if m.Price, err = decimal.NewFromString(record[5]); err != nil {
		return m, err
	}
	if record[6] != "" {
		if m.LowStockThreshold, err = strconv.ParseInt(record[6], 10, 64); err != nil {
			return m, err
		}
	}
	if m.Quantity < 0 || m.Price.IsNegative() || m.LowStockThreshold < 0 {
		return m, domain.ErrInvalidMedicine
	}
	return m, nil
}
