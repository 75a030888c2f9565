package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cost layer columns
const (
	ColID           = "id"
	ColProductID    = "product_id"
	ColWarehouseID  = "warehouse_id"
	ColPurchaseDate = "purchase_date"
	ColQuantity     = "quantity"
	ColRemaining    = "remaining_quantity"
	ColUnitCost     = "unit_cost"
	ColBatchNumber  = "batch_number"
	ColExpiryDate   = "expiry_date"
)

// RequiredLayerColumns must be present in the header of a layer file
var RequiredLayerColumns = []string{ColProductID, ColWarehouseID, ColPurchaseDate, ColQuantity, ColUnitCost}

// Accepted date layouts, tried in order
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// LayerImportResult is the outcome of importing a layer file.
// Only rows without errors become layers.
type LayerImportResult struct {
	Layers      []inventory.CostLayer `json:"-"`
	TotalRows   int                   `json:"total_rows"`
	ValidRows   int                   `json:"valid_rows"`
	Errors      []RowError            `json:"errors,omitempty"`
	TotalErrors int                   `json:"total_errors,omitempty"`
	IsTruncated bool                  `json:"is_truncated,omitempty"`
}

// IsValid returns true if every row imported
func (r *LayerImportResult) IsValid() bool {
	return r.TotalErrors == 0
}

// LayerImporter converts CSV exports of a purchasing system into cost layers
type LayerImporter struct {
	parserOpts []ParserOption
	maxErrors  int
	logger     *zap.Logger
}

// NewLayerImporter creates a new LayerImporter
func NewLayerImporter(logger *zap.Logger, opts ...ParserOption) *LayerImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayerImporter{
		parserOpts: opts,
		maxErrors:  100,
		logger:     logger,
	}
}

// SetMaxErrors limits how many row errors are kept
func (i *LayerImporter) SetMaxErrors(n int) {
	if n > 0 {
		i.maxErrors = n
	}
}

// Import reads every row of r. File-level problems (encoding, header) are
// returned as errors; row problems are collected in the result.
func (i *LayerImporter) Import(ctx context.Context, r io.Reader) (*LayerImportResult, error) {
	_, span := telemetry.StartSpan(ctx, "csvimport.layers")
	defer span.End()

	parser, err := NewCSVParser(r, i.parserOpts...)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if missing := parser.MissingHeaders(RequiredLayerColumns); len(missing) > 0 {
		err := fmt.Errorf("%w: missing columns %s", ErrMissingHeader, strings.Join(missing, ", "))
		telemetry.RecordError(span, err)
		return nil, err
	}

	ec := NewErrorCollection(i.maxErrors)
	result := &LayerImportResult{Layers: make([]inventory.CostLayer, 0)}
	seen := make(map[uuid.UUID]int)

	for {
		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			ec.Add(RowError{Row: parser.CurrentRow(), Code: ErrCodeImportMalformedRow, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}

		layer, ok := i.parseRow(row, ec)
		if !ok {
			continue
		}
		if layer.ID != uuid.Nil {
			if first, dup := seen[layer.ID]; dup {
				ec.Add(RowError{Row: row.LineNumber, Column: ColID, Code: ErrCodeImportDuplicate,
					Message: fmt.Sprintf("duplicate id, first seen on row %d", first), Value: layer.ID.String()})
				continue
			}
			seen[layer.ID] = row.LineNumber
		}
		result.Layers = append(result.Layers, layer)
	}

	result.TotalRows = parser.TotalRows()
	result.ValidRows = len(result.Layers)
	result.Errors = ec.Errors()
	result.TotalErrors = ec.TotalCount()
	result.IsTruncated = ec.IsTruncated()

	telemetry.SetAttributes(span,
		"import.total_rows", result.TotalRows,
		"import.valid_rows", result.ValidRows,
		"import.errors", result.TotalErrors,
	)
	i.logger.Info("Cost layer file imported",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("valid_rows", result.ValidRows),
		zap.Int("errors", result.TotalErrors),
	)
	return result, nil
}

// parseRow reports every field problem of the row before giving up on it
func (i *LayerImporter) parseRow(row *Row, ec *ErrorCollection) (inventory.CostLayer, bool) {
	before := ec.TotalCount()
	line := row.LineNumber

	required := func(col string) string {
		v := row.Get(col)
		if v == "" {
			ec.AddRequiredError(line, col)
		}
		return v
	}
	number := func(col string, optional bool) *decimal.Decimal {
		v := row.Get(col)
		if v == "" {
			if !optional {
				ec.AddRequiredError(line, col)
			}
			return nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			ec.AddTypeError(line, col, "decimal", v)
			return nil
		}
		return &d
	}
	date := func(col string, optional bool) *time.Time {
		v := row.Get(col)
		if v == "" {
			if !optional {
				ec.AddRequiredError(line, col)
			}
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				t = t.UTC()
				return &t
			}
		}
		ec.AddFormatError(line, col, "YYYY-MM-DD or RFC 3339", v)
		return nil
	}

	productID := required(ColProductID)
	warehouseID := required(ColWarehouseID)
	purchased := date(ColPurchaseDate, false)
	quantity := number(ColQuantity, false)
	remaining := number(ColRemaining, true)
	unitCost := number(ColUnitCost, false)
	expiry := date(ColExpiryDate, true)

	var id uuid.UUID
	if v := row.Get(ColID); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			ec.AddTypeError(line, ColID, "uuid", v)
		}
		id = parsed
	}

	if ec.TotalCount() > before {
		return inventory.CostLayer{}, false
	}

	var batch *inventory.BatchInfo
	if bn := row.Get(ColBatchNumber); bn != "" || expiry != nil {
		batch = &inventory.BatchInfo{BatchNumber: bn, ExpiryDate: expiry}
	}

	layer, err := inventory.NewCostLayer(productID, warehouseID, *quantity, *unitCost, *purchased, batch)
	if err != nil {
		ec.Add(RowError{Row: line, Code: ErrCodeImportInvalidLayer, Message: err.Error()})
		return inventory.CostLayer{}, false
	}
	if id != uuid.Nil {
		layer.ID = id
	}
	if remaining != nil {
		layer.RemainingQuantity = *remaining
		if err := layer.Validate(); err != nil {
			ec.Add(RowError{Row: line, Column: ColRemaining, Code: ErrCodeImportInvalidLayer,
				Message: err.Error(), Value: remaining.String()})
			return inventory.CostLayer{}, false
		}
	}
	return *layer, true
}
