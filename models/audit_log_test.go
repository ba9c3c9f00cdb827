package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogImmutable(t *testing.T) {
	testDB := setupTestDB(t)

	entry := &AuditLog{
		ResourceType: string(LeadKindContact),
		ResourceID:   "lead-1",
		Action:       AuditActionStatusChange,
	}
	require.NoError(t, testDB.Create(entry).Error)
	assert.NotEmpty(t, entry.ID)

	assert.Error(t, testDB.Model(entry).Update("description", "changed").Error)
	assert.Error(t, testDB.Delete(entry).Error)

	var count int64
	testDB.Model(&AuditLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuditLogChanges(t *testing.T) {
	entry := AuditLog{
		OldValues: `{"status":"new","name":"Ana"}`,
		NewValues: `{"status":"contacted","name":"Ana"}`,
	}
	changes := entry.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, "status", changes[0].Field)
	assert.Equal(t, "new", changes[0].Old)
	assert.Equal(t, "contacted", changes[0].New)

	assert.Empty(t, (&AuditLog{}).Changes())
}
