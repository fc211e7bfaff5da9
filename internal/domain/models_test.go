package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCompletedStatus(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{"COMPLETED", true},
		{"completed", true},
		{"Completed", true},
		{"  COMPLETED  ", true},
		{"", false},
		{"   ", false},
		{"SITE_VISIT", false},
		{"IN_PROGRESS", false},
		{"COMPLETE", false},
		{"done", false},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsCompletedStatus(tc.status))
		})
	}
}

func TestNormalizeCaseType(t *testing.T) {
	assert.Equal(t, CaseTypeBank, NormalizeCaseType(""))
	assert.Equal(t, CaseTypeBank, NormalizeCaseType("  bank "))
	assert.Equal(t, CaseTypeExternalValuer, NormalizeCaseType("external_valuer"))
	assert.Equal(t, CaseTypeDirectClient, NormalizeCaseType("DIRECT_CLIENT"))

	assert.True(t, NormalizeCaseType("bank").IsValid())
	assert.False(t, NormalizeCaseType("walk_in").IsValid())
}

func TestParseCompletionFilter(t *testing.T) {
	tests := []struct {
		input    string
		expected CompletionFilter
		ok       bool
	}{
		{"", CompletionAll, true},
		{"all", CompletionAll, true},
		{"ALL", CompletionAll, true},
		{"pending", CompletionPending, true},
		{"Completed", CompletionCompleted, true},
		{" completed ", CompletionCompleted, true},
		{"done", "", false},
		{"yes", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := ParseCompletionFilter(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, got)
			}
		})
	}
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, NormalizeRole(" admin "))
	assert.Equal(t, RoleOpsManager, NormalizeRole("ops_manager"))
	assert.True(t, NormalizeRole("hr").IsValid())
	assert.False(t, NormalizeRole("superuser").IsValid())
	assert.False(t, UserRole("").IsValid())
}

func TestUserRoleChecks(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	hr := &User{Role: "hr"} // stored casing may vary in old rows

	assert.True(t, admin.IsAdmin())
	assert.False(t, hr.IsAdmin())
	assert.True(t, hr.HasAnyRole(RoleAdmin, RoleHR))
	assert.False(t, hr.HasAnyRole(RoleFinance))
}

func TestDateJSON(t *testing.T) {
	t.Run("marshals as plain date", func(t *testing.T) {
		d := Date{Time: time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)}
		out, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, `"2026-04-09"`, string(out))
	})

	t.Run("unmarshals plain date", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2026-04-09"`), &d))
		assert.Equal(t, 2026, d.Year())
		assert.Equal(t, time.April, d.Month())
		assert.Equal(t, 9, d.Day())
	})

	t.Run("rejects other formats", func(t *testing.T) {
		var d Date
		err := json.Unmarshal([]byte(`"09/04/2026"`), &d)
		assert.Error(t, err)
	})

	t.Run("null leaves the date zero", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`null`), &d))
		assert.True(t, d.IsZero())
	})

	t.Run("nil round-trip helpers", func(t *testing.T) {
		assert.Nil(t, NewDate(nil))
		var d *Date
		assert.Nil(t, d.TimePtr())

		now := time.Now()
		require.NotNil(t, NewDate(&now))
		assert.Equal(t, now, *NewDate(&now).TimePtr())
	})
}

func TestActivityTypeIsValid(t *testing.T) {
	for _, at := range []ActivityType{
		ActivityAssignmentCreated,
		ActivityAssignmentUpdated,
		ActivityStatusChanged,
		ActivityAssignmentDeleted,
		ActivityFileUploaded,
	} {
		assert.True(t, at.IsValid(), string(at))
	}
	assert.False(t, ActivityType("ASSIGNMENT_ARCHIVED").IsValid())
}
