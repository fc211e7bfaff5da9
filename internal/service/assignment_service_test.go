package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func eventsFor(t *testing.T, env *testEnv, assignmentID uuid.UUID) []domain.Activity {
	t.Helper()
	events, err := env.activities.ListByAssignment(context.Background(), assignmentID, 0)
	require.NoError(t, err)
	return events
}

func TestAssignmentService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("bank case via ids resolves display names", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "State Bank")
		branch := createTestBranch(t, env.db, bank, "MG Road")

		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "BANK",
			BankID:   &bank.ID,
			BranchID: &branch.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, "State Bank", a.BankName)
		assert.Equal(t, "MG Road", a.BranchName)
		assert.Equal(t, domain.StatusSiteVisit, a.Status)
		assert.NotEmpty(t, a.AssignmentCode)
	})

	t.Run("empty case type defaults to BANK", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "State Bank")
		branch := createTestBranch(t, env.db, bank, "MG Road")

		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID:   &bank.ID,
			BranchID: &branch.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.CaseTypeBank, a.CaseType)
	})

	t.Run("bank case without bank identity is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "BANK",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("bank case with bank but no branch is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "State Bank")

		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "BANK",
			BankID:   &bank.ID,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("bank case satisfied by legacy names", func(t *testing.T) {
		env := newTestEnv(t)

		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType:   "BANK",
			BankName:   "Typed Bank",
			BranchName: "Typed Branch",
		})
		require.NoError(t, err)
		assert.Nil(t, a.BankID)
		assert.Equal(t, "Typed Bank", a.BankName)
	})

	t.Run("branch under a different bank is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		bankA := createTestBank(t, env.db, "Bank A")
		bankB := createTestBank(t, env.db, "Bank B")
		branchB := createTestBranch(t, env.db, bankB, "Elsewhere")

		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "BANK",
			BankID:   &bankA.ID,
			BranchID: &branchB.ID,
		})
		assert.ErrorIs(t, err, ErrBankBranchMismatch)
	})

	t.Run("branch alone implies its parent bank", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "Parent Bank")
		branch := createTestBranch(t, env.db, bank, "Only Branch")

		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "BANK",
			BranchID: &branch.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, a.BankID)
		assert.Equal(t, bank.ID, *a.BankID)
		assert.Equal(t, "Parent Bank", a.BankName)
	})

	t.Run("direct client case requires client identity", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "DIRECT_CLIENT",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)

		client := createTestClient(t, env.db, "Walk-in")
		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "DIRECT_CLIENT",
			ClientID: &client.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "Walk-in", a.ValuerClientName)
	})

	t.Run("unknown case type is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "SOMETHING_ELSE",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("nonexistent bank id is a client error", func(t *testing.T) {
		env := newTestEnv(t)
		ghost := uuid.New()

		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "BANK",
			BankID:   &ghost,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("codes are sequential across creates", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "Seq Bank")
		branch := createTestBranch(t, env.db, bank, "Seq Branch")

		first, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
		})
		require.NoError(t, err)
		second, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
		})
		require.NoError(t, err)

		assert.NotEqual(t, first.AssignmentCode, second.AssignmentCode)
		assert.Less(t, first.AssignmentCode, second.AssignmentCode)
	})

	t.Run("admin sets money fields", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "Money Bank")
		branch := createTestBranch(t, env.db, bank, "Money Branch")

		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
			Fees:   int64Ptr(15000),
			IsPaid: boolPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(15000), a.Fees)
		assert.True(t, a.IsPaid)
	})

	t.Run("non-admin money fields are forced to zero", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "Money Bank")
		branch := createTestBranch(t, env.db, bank, "Money Branch")

		a, err := env.assignments.Create(ctx, employeeActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
			Fees:   int64Ptr(15000),
			IsPaid: boolPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), a.Fees)
		assert.False(t, a.IsPaid)
	})

	t.Run("create emits a single created event", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "Event Bank")
		branch := createTestBranch(t, env.db, bank, "Event Branch")
		actor := adminActor()

		a, err := env.assignments.Create(ctx, actor, &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
		})
		require.NoError(t, err)

		events := eventsFor(t, env, a.ID)
		require.Len(t, events, 1)
		assert.Equal(t, domain.ActivityAssignmentCreated, events[0].Type)
		require.NotNil(t, events[0].ActorUserID)
		assert.Equal(t, actor.UserID, *events[0].ActorUserID)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(events[0].Payload), &payload))
		assert.Equal(t, a.AssignmentCode, payload["assignment_code"])
	})
}

// newRaceTestEnv runs writes in autocommit mode so a create hook can commit
// rival rows mid-operation, simulating a concurrent creator.
func newRaceTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDBWith(t, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	return newTestEnvOn(t, db)
}

// stealCodes makes the next n assignment inserts lose the code race: just
// before each insert, a rival row claims the freshly generated code.
func stealCodes(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	stealing := false
	err := db.Callback().Create().Before("gorm:create").Register("rival_creator", func(tx *gorm.DB) {
		if stealing || n == 0 {
			return
		}
		a, ok := tx.Statement.Dest.(*domain.Assignment)
		if !ok || a.AssignmentCode == "" {
			return
		}
		n--
		stealing = true
		defer func() { stealing = false }()

		rival := &domain.Assignment{
			AssignmentCode: a.AssignmentCode,
			CaseType:       domain.CaseTypeBank,
			BankName:       "Rival Bank",
			BranchName:     "Main",
			Status:         domain.StatusSiteVisit,
		}
		require.NoError(t, db.Create(rival).Error)
	})
	require.NoError(t, err)
}

func TestAssignmentService_CreateCodeRace(t *testing.T) {
	ctx := context.Background()

	t.Run("retries onto the next code after losing once", func(t *testing.T) {
		env := newRaceTestEnv(t)
		env.codes.now = fixedClock(2026)
		bank := createTestBank(t, env.db, "HDFC")
		branch := createTestBranch(t, env.db, bank, "MG Road")

		stealCodes(t, env.db, 1)

		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "BANK",
			BankID:   &bank.ID,
			BranchID: &branch.ID,
		})
		require.NoError(t, err)
		// The rival took 0001, so the retry lands on 0002.
		assert.Equal(t, "VAL/2026/0002", a.AssignmentCode)

		events := eventsFor(t, env, a.ID)
		require.Len(t, events, 1)
		assert.Equal(t, domain.ActivityAssignmentCreated, events[0].Type)
	})

	t.Run("exhausting the retries is a conflict", func(t *testing.T) {
		env := newRaceTestEnv(t)
		env.codes.now = fixedClock(2026)
		bank := createTestBank(t, env.db, "HDFC")
		branch := createTestBranch(t, env.db, bank, "MG Road")

		stealCodes(t, env.db, codeRetryAttempts)

		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "BANK",
			BankID:   &bank.ID,
			BranchID: &branch.ID,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCodeConflict)

		// Nothing was created, so nothing was recorded.
		var count int64
		require.NoError(t, env.db.Model(&domain.Activity{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestAssignmentService_Update(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testEnv, *domain.Assignment) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "Update Bank")
		branch := createTestBranch(t, env.db, bank, "Update Branch")
		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
		})
		require.NoError(t, err)
		return env, a
	}

	t.Run("status change emits updated plus status events", func(t *testing.T) {
		env, a := setup(t)

		_, err := env.assignments.Update(ctx, adminActor(), a.ID, &domain.UpdateAssignmentRequest{
			Status: strPtr(domain.StatusCompleted),
		})
		require.NoError(t, err)

		events := eventsFor(t, env, a.ID)
		// newest first: STATUS_CHANGED, ASSIGNMENT_UPDATED, ASSIGNMENT_CREATED
		require.Len(t, events, 3)
		assert.Equal(t, domain.ActivityStatusChanged, events[0].Type)
		assert.Equal(t, domain.ActivityAssignmentUpdated, events[1].Type)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(events[0].Payload), &payload))
		assert.Equal(t, domain.StatusSiteVisit, payload["from"])
		assert.Equal(t, domain.StatusCompleted, payload["to"])
	})

	t.Run("explicit null fields are a no-op, not a clear", func(t *testing.T) {
		env, a := setup(t)

		// Decoded through encoding/json the way the handler does it:
		// null and absent both land as nil pointers.
		var req domain.UpdateAssignmentRequest
		require.NoError(t, json.Unmarshal(
			[]byte(`{"bank_id": null, "branch_id": null, "site_visit_date": null, "notes": "survey booked"}`),
			&req))

		updated, err := env.assignments.Update(ctx, adminActor(), a.ID, &req)
		require.NoError(t, err)
		require.NotNil(t, updated.BankID)
		assert.Equal(t, *a.BankID, *updated.BankID)
		require.NotNil(t, updated.BranchID)
		assert.Equal(t, *a.BranchID, *updated.BranchID)
		assert.Equal(t, "survey booked", updated.Notes)
	})

	t.Run("stored id wins over a legacy name in the same patch", func(t *testing.T) {
		env, a := setup(t)

		updated, err := env.assignments.Update(ctx, adminActor(), a.ID, &domain.UpdateAssignmentRequest{
			BankName: strPtr("Scribbled Bank"),
		})
		require.NoError(t, err)
		// The assignment carries a bank_id, so the cached name is
		// refreshed from master data rather than the patched text.
		assert.Equal(t, "Update Bank", updated.BankName)
	})

	t.Run("non-status change emits only the updated event", func(t *testing.T) {
		env, a := setup(t)

		_, err := env.assignments.Update(ctx, adminActor(), a.ID, &domain.UpdateAssignmentRequest{
			BorrowerName: strPtr("New Borrower"),
		})
		require.NoError(t, err)

		events := eventsFor(t, env, a.ID)
		require.Len(t, events, 2)
		assert.Equal(t, domain.ActivityAssignmentUpdated, events[0].Type)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(events[0].Payload), &payload))
		assert.ElementsMatch(t, []any{"borrower_name"}, payload["changed_fields"])
	})

	t.Run("no-op update emits nothing", func(t *testing.T) {
		env, a := setup(t)

		updated, err := env.assignments.Update(ctx, adminActor(), a.ID, &domain.UpdateAssignmentRequest{})
		require.NoError(t, err)
		assert.Equal(t, a.AssignmentCode, updated.AssignmentCode)

		events := eventsFor(t, env, a.ID)
		assert.Len(t, events, 1) // only the create event
	})

	t.Run("non-admin money updates are silently dropped", func(t *testing.T) {
		env, a := setup(t)

		updated, err := env.assignments.Update(ctx, employeeActor(), a.ID, &domain.UpdateAssignmentRequest{
			Fees:   int64Ptr(99999),
			IsPaid: boolPtr(true),
			Notes:  strPtr("visited site"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), updated.Fees)
		assert.False(t, updated.IsPaid)
		assert.Equal(t, "visited site", updated.Notes)
	})

	t.Run("admin money updates apply", func(t *testing.T) {
		env, a := setup(t)

		updated, err := env.assignments.Update(ctx, adminActor(), a.ID, &domain.UpdateAssignmentRequest{
			Fees:   int64Ptr(7500),
			IsPaid: boolPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7500), updated.Fees)
		assert.True(t, updated.IsPaid)
	})

	t.Run("merged record is re-validated against case type rules", func(t *testing.T) {
		env := newTestEnv(t)
		client := createTestClient(t, env.db, "Valuer Co")
		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			CaseType: "EXTERNAL_VALUER",
			ClientID: &client.ID,
		})
		require.NoError(t, err)

		// Flipping to BANK without any bank identity must fail.
		_, err = env.assignments.Update(ctx, adminActor(), a.ID, &domain.UpdateAssignmentRequest{
			CaseType: strPtr("BANK"),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown assignment is not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.assignments.Update(ctx, adminActor(), uuid.New(), &domain.UpdateAssignmentRequest{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAssignmentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete removes the row and keeps the trail queryable", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "Del Bank")
		branch := createTestBranch(t, env.db, bank, "Del Branch")
		a, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
		})
		require.NoError(t, err)
		formerID := a.ID

		require.NoError(t, env.assignments.Delete(ctx, adminActor(), formerID))

		_, err = env.assignments.Get(ctx, formerID)
		assert.ErrorIs(t, err, ErrNotFound)

		events := eventsFor(t, env, formerID)
		require.Len(t, events, 2)
		assert.Equal(t, domain.ActivityAssignmentDeleted, events[0].Type)
		assert.Equal(t, domain.ActivityAssignmentCreated, events[1].Type)
	})

	t.Run("deleting a missing assignment is not found", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.assignments.Delete(ctx, adminActor(), uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAssignmentService_List(t *testing.T) {
	ctx := context.Background()

	seedStatuses := func(t *testing.T, env *testEnv) {
		bank := createTestBank(t, env.db, "List Bank")
		branch := createTestBranch(t, env.db, bank, "List Branch")
		for _, status := range []string{
			domain.StatusSiteVisit,
			domain.StatusInProgress,
			"completed",   // lowercase still counts as completed
			" COMPLETED ", // whitespace variant too
			domain.StatusCompleted,
		} {
			_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
				BankID: &bank.ID, BranchID: &branch.ID,
				Status: status,
			})
			require.NoError(t, err)
		}
	}

	t.Run("completion filter partitions the set", func(t *testing.T) {
		env := newTestEnv(t)
		seedStatuses(t, env)

		all, total, err := env.assignments.List(ctx, &repository.AssignmentFilters{Completion: domain.CompletionAll}, "", "", 0, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		assert.Len(t, all, 5)

		_, completed, err := env.assignments.List(ctx, &repository.AssignmentFilters{Completion: domain.CompletionCompleted}, "", "", 0, 0)
		require.NoError(t, err)
		_, pending, err := env.assignments.List(ctx, &repository.AssignmentFilters{Completion: domain.CompletionPending}, "", "", 0, 0)
		require.NoError(t, err)

		assert.EqualValues(t, 3, completed)
		assert.EqualValues(t, 2, pending)
		assert.Equal(t, total, completed+pending)
	})

	t.Run("unknown sort column is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.assignments.List(ctx, nil, "borrower_name; DROP TABLE", "", 0, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown sort direction is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.assignments.List(ctx, nil, "created_at", "sideways", 0, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("sort by code ascending", func(t *testing.T) {
		env := newTestEnv(t)
		seedStatuses(t, env)

		items, _, err := env.assignments.List(ctx, nil, "assignment_code", "asc", 0, 0)
		require.NoError(t, err)
		require.NotEmpty(t, items)
		for i := 1; i < len(items); i++ {
			assert.Less(t, items[i-1].AssignmentCode, items[i].AssignmentCode)
		}
	})

	t.Run("paging clamps apply", func(t *testing.T) {
		env := newTestEnv(t)
		seedStatuses(t, env)

		items, total, err := env.assignments.List(ctx, nil, "", "", 0, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		assert.Len(t, items, 2)

		items, _, err = env.assignments.List(ctx, nil, "", "", 4, 2)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("is_paid filter", func(t *testing.T) {
		env := newTestEnv(t)
		bank := createTestBank(t, env.db, "Paid Bank")
		branch := createTestBranch(t, env.db, bank, "Paid Branch")

		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID, IsPaid: boolPtr(true),
		})
		require.NoError(t, err)
		_, err = env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
		})
		require.NoError(t, err)

		_, paid, err := env.assignments.List(ctx, &repository.AssignmentFilters{IsPaid: boolPtr(true)}, "", "", 0, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, paid)
	})
}

func TestAssignmentService_Summary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bank := createTestBank(t, env.db, "Summary Bank")
	branch := createTestBranch(t, env.db, bank, "Summary Branch")

	create := func(status string, paid bool) {
		_, err := env.assignments.Create(ctx, adminActor(), &domain.CreateAssignmentRequest{
			BankID: &bank.ID, BranchID: &branch.ID,
			Status: status,
			IsPaid: boolPtr(paid),
		})
		require.NoError(t, err)
	}

	create(domain.StatusSiteVisit, false)
	create(domain.StatusInProgress, false)
	create(domain.StatusCompleted, true)
	create(domain.StatusCompleted, false)
	create("completed", false)

	summary, err := env.assignments.Summary(ctx, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 5, summary.Total)
	assert.EqualValues(t, 3, summary.Completed)
	assert.EqualValues(t, 2, summary.Pending)
	assert.EqualValues(t, 2, summary.CompletedUnpaid)
	assert.Equal(t, summary.Total, summary.Pending+summary.Completed)
}
