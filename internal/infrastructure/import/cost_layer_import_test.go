package csvimport

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const layerHeader = "id,product_id,warehouse_id,purchase_date,quantity,remaining_quantity,unit_cost,batch_number,expiry_date\n"

func importLayers(t *testing.T, body string) *LayerImportResult {
	t.Helper()
	result, err := NewLayerImporter(zaptest.NewLogger(t)).Import(context.Background(), strings.NewReader(layerHeader+body))
	require.NoError(t, err)
	return result
}

func TestLayerImporter_Import(t *testing.T) {
	id := uuid.New()
	result := importLayers(t, ""+
		id.String()+",P-1,WH-1,2024-01-01,100,40,10,B-1,2024-06-30\n"+
		",P-1,WH-1,2024-02-01T08:00:00Z,150,,12.50,,\n"+
		",,,,,,,,\n")

	require.True(t, result.IsValid(), result.Errors)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Layers, 2)

	first := result.Layers[0]
	assert.Equal(t, id, first.ID)
	assert.Equal(t, "P-1", first.ProductID)
	assert.True(t, decimal.NewFromInt(100).Equal(first.OriginalQuantity))
	assert.True(t, decimal.NewFromInt(40).Equal(first.RemainingQuantity))
	assert.Equal(t, "B-1", first.BatchNumber)
	require.NotNil(t, first.ExpiryDate)
	assert.Equal(t, time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC), *first.ExpiryDate)

	second := result.Layers[1]
	assert.NotEqual(t, uuid.Nil, second.ID)
	assert.True(t, decimal.NewFromInt(150).Equal(second.RemainingQuantity), "remaining defaults to quantity")
	assert.True(t, decimal.RequireFromString("12.50").Equal(second.UnitCost))
	assert.Equal(t, time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC), second.PurchaseDate)
	assert.Nil(t, second.ExpiryDate)
}

func TestLayerImporter_RowErrors(t *testing.T) {
	dup := uuid.New().String()
	result := importLayers(t, ""+
		",,WH-1,2024-01-01,ten,,10,,\n"+ // two field errors on one row
		",P-1,WH-1,01/02/2024,10,,10,,\n"+
		",P-1,WH-1,2024-01-01,0,,10,,\n"+
		",P-1,WH-1,2024-01-01,10,11,10,,\n"+
		"not-a-uuid,P-1,WH-1,2024-01-01,10,,10,,\n"+
		dup+",P-1,WH-1,2024-01-01,10,,10,,\n"+
		dup+",P-1,WH-1,2024-01-02,10,,10,,\n")

	assert.False(t, result.IsValid())
	assert.Equal(t, 7, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Equal(t, 7, result.TotalErrors)

	codes := make(map[int][]string)
	for _, e := range result.Errors {
		codes[e.Row] = append(codes[e.Row], e.Code)
	}
	assert.Equal(t, []string{ErrCodeImportRequiredField, ErrCodeImportInvalidType}, codes[2])
	assert.Equal(t, []string{ErrCodeImportInvalidFormat}, codes[3])
	assert.Equal(t, []string{ErrCodeImportInvalidLayer}, codes[4])
	assert.Equal(t, []string{ErrCodeImportInvalidLayer}, codes[5])
	assert.Equal(t, []string{ErrCodeImportInvalidType}, codes[6])
	assert.Equal(t, []string{ErrCodeImportDuplicate}, codes[8])
}

func TestLayerImporter_FileErrors(t *testing.T) {
	importer := NewLayerImporter(nil)

	_, err := importer.Import(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = importer.Import(context.Background(), strings.NewReader("product_id,quantity\nP-1,10\n"))
	assert.ErrorIs(t, err, ErrMissingHeader)
	assert.Contains(t, err.Error(), "warehouse_id")
}

func TestLayerImporter_MaxErrors(t *testing.T) {
	importer := NewLayerImporter(zaptest.NewLogger(t))
	importer.SetMaxErrors(2)

	body := layerHeader + strings.Repeat(",P-1,WH-1,2024-01-01,x,,10,,\n", 5)
	result, err := importer.Import(context.Background(), strings.NewReader(body))
	require.NoError(t, err)

	assert.Len(t, result.Errors, 2)
	assert.Equal(t, 5, result.TotalErrors)
	assert.True(t, result.IsTruncated)
}
