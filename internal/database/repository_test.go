package database

import (
	"errors"
	"testing"
	"time"

	"github.com/badno/catimport/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewImportRun(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	result := &models.ImportResult{
		RunID:       uuid.New(),
		Total:       5,
		Imported:    4,
		Failed:      1,
		Failures:    []models.RecordFailure{{Index: 2, Name: "Mug", Error: "422"}},
		StartedAt:   started,
		CompletedAt: started.Add(3 * time.Second),
	}

	run := NewImportRun(result, "shop.csv", models.PlatformShopify, 2, nil)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, "shopify", run.Platform)
	assert.Equal(t, 2, run.Skipped)
	assert.Equal(t, RunPartial, run.Status())
	assert.Equal(t, 3*time.Second, run.Duration())
	assert.Len(t, run.Failures, 1)
}

func TestImportRunStatus(t *testing.T) {
	tests := []struct {
		name string
		run  ImportRun
		want string
	}{
		{"clean", ImportRun{Imported: 3}, RunCompleted},
		{"partial", ImportRun{Imported: 2, Failed: 1}, RunPartial},
		{"cancelled", ImportRun{Imported: 1, Failed: 1, Cancelled: true}, RunCancelled},
		{"aborted", ImportRun{Error: "failed to load existing categories"}, RunFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.run.Status())
		})
	}
}

func TestNewImportRunCancelledKeepsNoError(t *testing.T) {
	result := &models.ImportResult{RunID: uuid.New(), Cancelled: true}
	run := NewImportRun(result, "x.csv", models.PlatformGeneric, 0, errors.New("context canceled"))
	assert.Empty(t, run.Error)
	assert.Equal(t, RunCancelled, run.Status())
}
