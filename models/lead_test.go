package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(AllModels()...))
	return testDB
}

func TestLeadBeforeCreate(t *testing.T) {
	testDB := setupTestDB(t)

	inquiry := &ServiceInquiry{
		Lead:    Lead{Name: "Ana", Email: "ana@example.com", Locale: "en"},
		Service: "seo",
	}
	require.NoError(t, testDB.Create(inquiry).Error)

	assert.NotEmpty(t, inquiry.ID)
	assert.Equal(t, LeadStatusNew, inquiry.Status)
	assert.False(t, inquiry.HasAttachment())

	var loaded ServiceInquiry
	require.NoError(t, testDB.First(&loaded, "id = ?", inquiry.ID).Error)
	assert.Equal(t, "seo", loaded.Service)
	assert.Equal(t, "en", loaded.Locale)
}

func TestLeadSoftDelete(t *testing.T) {
	testDB := setupTestDB(t)

	msg := &ContactMessage{Lead: Lead{Name: "Marko", Email: "marko@example.com", Message: "Zdravo"}}
	require.NoError(t, testDB.Create(msg).Error)
	require.NoError(t, testDB.Delete(msg).Error)

	var count int64
	testDB.Model(&ContactMessage{}).Count(&count)
	assert.EqualValues(t, 0, count)

	testDB.Unscoped().Model(&ContactMessage{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSubmissionKinds(t *testing.T) {
	subs := []Submission{&ContactMessage{}, &ConsultationRequest{}, &ServiceInquiry{}}
	for i, s := range subs {
		assert.Equal(t, LeadKinds[i], s.Kind())
		assert.NotNil(t, s.Base())
	}

	k, ok := ParseLeadKind("inquiry")
	assert.True(t, ok)
	assert.Equal(t, LeadKindInquiry, k)

	_, ok = ParseLeadKind("case")
	assert.False(t, ok)

	assert.True(t, IsValidLeadStatus("in_progress"))
	assert.False(t, IsValidLeadStatus("pending"))
}
