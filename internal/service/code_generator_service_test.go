package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/zenops/valuation-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
}

func seedAssignment(t *testing.T, db *gorm.DB, code string) {
	t.Helper()
	a := &domain.Assignment{
		AssignmentCode: code,
		CaseType:       domain.CaseTypeBank,
		BankName:       "Test Bank",
		BranchName:     "Main",
		Status:         domain.StatusSiteVisit,
	}
	require.NoError(t, db.Create(a).Error)
}

func TestCodeGenerator_NextCode(t *testing.T) {
	ctx := context.Background()

	t.Run("first code of the year is 0001", func(t *testing.T) {
		env := newTestEnv(t)
		env.codes.now = fixedClock(2026)

		code, err := env.codes.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "VAL/2026/0001", code)
	})

	t.Run("sequence increments from the max", func(t *testing.T) {
		env := newTestEnv(t)
		env.codes.now = fixedClock(2026)

		seedAssignment(t, env.db, "VAL/2026/0001")
		seedAssignment(t, env.db, "VAL/2026/0007")
		seedAssignment(t, env.db, "VAL/2026/0003")

		code, err := env.codes.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "VAL/2026/0008", code)
	})

	t.Run("sequence grows past four digits without wrapping", func(t *testing.T) {
		env := newTestEnv(t)
		env.codes.now = fixedClock(2026)

		seedAssignment(t, env.db, "VAL/2026/9999")

		code, err := env.codes.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "VAL/2026/10000", code)

		// With both 9999 and 10000 present, a byte-wise max would pick
		// 9999 and re-mint 10000; the scan must keep counting upward.
		seedAssignment(t, env.db, code)

		code, err = env.codes.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "VAL/2026/10001", code)

		seedAssignment(t, env.db, code)

		code, err = env.codes.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "VAL/2026/10002", code)
	})

	t.Run("sequence restarts each year", func(t *testing.T) {
		env := newTestEnv(t)
		env.codes.now = fixedClock(2026)
		seedAssignment(t, env.db, "VAL/2026/0042")

		env.codes.now = fixedClock(2027)
		code, err := env.codes.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "VAL/2027/0001", code)
	})

	t.Run("prior year codes do not leak into the scan", func(t *testing.T) {
		env := newTestEnv(t)
		seedAssignment(t, env.db, "VAL/2025/0099")
		seedAssignment(t, env.db, "VAL/2026/0002")

		env.codes.now = fixedClock(2026)
		code, err := env.codes.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "VAL/2026/0003", code)
	})

	t.Run("malformed max code fails instead of restarting", func(t *testing.T) {
		env := newTestEnv(t)
		env.codes.now = fixedClock(2026)

		// "XYZZY" sorts above any zero-padded number, so it is the max.
		seedAssignment(t, env.db, "VAL/2026/XYZZY")

		_, err := env.codes.NextCode(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedCode)
	})

	t.Run("sequential generation over many creates", func(t *testing.T) {
		env := newTestEnv(t)
		env.codes.now = fixedClock(2026)

		for i := 1; i <= 12; i++ {
			code, err := env.codes.NextCode(ctx)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("VAL/2026/%04d", i), code)
			seedAssignment(t, env.db, code)
		}
	})
}
