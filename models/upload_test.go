package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchValidationResult_Accumulates(t *testing.T) {
	r := NewBatchValidationResult()
	r.AddPlan(Plan{PlanID: "a"})
	r.AddRowErrors(2, []string{"Missing required field: name"})
	r.AddPlan(Plan{PlanID: "b"})
	r.Finalize()

	assert.False(t, r.Success)
	assert.Equal(t, 3, r.TotalRecords)
	assert.Equal(t, 2, r.ValidRecords)
	assert.Equal(t, 1, r.InvalidRecords)
	assert.Equal(t, []string{"Missing required field: name"}, r.Errors[2])
	assert.False(t, r.HasFileError())
}

func TestBatchValidationResult_Success(t *testing.T) {
	r := NewBatchValidationResult()
	r.Finalize()
	assert.False(t, r.Success, "an empty batch is not a success")

	r.AddPlan(Plan{PlanID: "a"})
	r.Finalize()
	assert.True(t, r.Success)
}

func TestFileError(t *testing.T) {
	r := FileError(0, "No records found in file")

	assert.False(t, r.Success)
	assert.True(t, r.HasFileError())
	assert.Equal(t, []string{"No records found in file"}, r.Errors[FileErrorRow])
	assert.Zero(t, r.ValidRecords)
	assert.Zero(t, r.InvalidRecords)
	assert.NotNil(t, r.ValidPlans)
}
