package service

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/repository"
	"github.com/zenops/valuation-api/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	return newTestDBWith(t, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

func newTestDBWith(t *testing.T, cfg *gorm.Config) *gorm.DB {
	t.Helper()

	// A named shared in-memory database keeps all pooled connections on
	// the same schema while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	err = db.AutoMigrate(
		&domain.Bank{},
		&domain.Branch{},
		&domain.Client{},
		&domain.PropertyType{},
		&domain.User{},
		&domain.RolePermission{},
		&domain.Assignment{},
		&domain.File{},
		&domain.Activity{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

type testEnv struct {
	db          *gorm.DB
	assignments *AssignmentService
	files       *FileService
	activities  *ActivityService
	codes       *CodeGeneratorService
	store       storage.Storage
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvOn(t, newTestDB(t))
}

func newTestEnvOn(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()

	log := zap.NewNop()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assignmentRepo := repository.NewAssignmentRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	bankRepo := repository.NewBankRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	clientRepo := repository.NewClientRepository(db)
	propertyTypeRepo := repository.NewPropertyTypeRepository(db)

	activities := NewActivityService(activityRepo, log)
	codes := NewCodeGeneratorService(assignmentRepo, log)
	assignments := NewAssignmentService(
		assignmentRepo, fileRepo,
		bankRepo, branchRepo, clientRepo, propertyTypeRepo,
		codes, activities, store, log,
	)
	files := NewFileService(fileRepo, assignmentRepo, activities, store, 50, log)

	return &testEnv{
		db:          db,
		assignments: assignments,
		files:       files,
		activities:  activities,
		codes:       codes,
		store:       store,
	}
}

func adminActor() *auth.UserContext {
	return &auth.UserContext{
		UserID: uuid.New(),
		Email:  "admin@zenops.in",
		Role:   domain.RoleAdmin,
	}
}

func employeeActor() *auth.UserContext {
	return &auth.UserContext{
		UserID: uuid.New(),
		Email:  "employee@zenops.in",
		Role:   domain.RoleEmployee,
	}
}

func createTestBank(t *testing.T, db *gorm.DB, name string) *domain.Bank {
	t.Helper()
	bank := &domain.Bank{Name: name}
	require.NoError(t, db.Create(bank).Error)
	return bank
}

func createTestBranch(t *testing.T, db *gorm.DB, bank *domain.Bank, name string) *domain.Branch {
	t.Helper()
	branch := &domain.Branch{BankID: bank.ID, Name: name, IsActive: true}
	require.NoError(t, db.Create(branch).Error)
	return branch
}

func createTestClient(t *testing.T, db *gorm.DB, name string) *domain.Client {
	t.Helper()
	client := &domain.Client{Name: name}
	require.NoError(t, db.Create(client).Error)
	return client
}
