package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"signaware-be/internal/constant"
	"signaware-be/internal/entity"
	"signaware-be/internal/repository/specification"
	"signaware-be/internal/repository/unitofwork"
	"signaware-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDB(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Chat Message Repository", func(t *testing.T) {
		count, err := uow.ChatMessageRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("ChatMessage count: %d", count)
	})

	t.Run("Check Transactional Chat Turn", func(t *testing.T) {
		ctx := context.Background()

		userId := uuid.New()
		user := &entity.User{
			Id:        userId,
			Email:     "test-integration-" + uuid.New().String() + "@example.com",
			FirstName: "Integration",
			LastName:  "Test",
			Role:      "customer",
			Status:    "active",
		}
		err := uow.UserRepository().Create(ctx, user)
		assert.NoError(t, err)

		docId := uuid.New()
		doc := &entity.Document{
			Id:      docId,
			Title:   "Integration Contract",
			Content: "The tenant agrees to all terms herein.",
			Type:    "contract",
			Status:  "pending",
			UserId:  userId,
		}
		err = uow.DocumentRepository().Create(ctx, doc)
		assert.NoError(t, err)

		// Transaction Test: a full turn is written inside one transaction
		// and rolled back, leaving no transcript behind.
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		sessionId := "it-session-" + uuid.New().String()

		userMsg := &entity.ChatMessage{
			Content:    "What does this clause mean?",
			Role:       constant.RoleUser,
			SessionId:  sessionId,
			DocumentId: docId,
			UserId:     userId,
		}
		err = uow.ChatMessageRepository().Create(ctx, userMsg)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, userMsg.Id, "RETURNING should backfill the id")
		assert.NotZero(t, userMsg.Seq, "RETURNING should backfill seq")

		assistantMsg := &entity.ChatMessage{
			Content:    "It binds the tenant to the listed obligations.",
			Role:       constant.RoleAssistant,
			SessionId:  sessionId,
			DocumentId: docId,
			UserId:     userId,
		}
		err = uow.ChatMessageRepository().Create(ctx, assistantMsg)
		assert.NoError(t, err)
		assert.Greater(t, assistantMsg.Seq, userMsg.Seq, "seq must order messages within a session")

		// Both halves are visible inside the transaction, in seq order.
		history, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.BySessionID{SessionID: sessionId},
			specification.OrderBy{Field: "seq"},
		)
		assert.NoError(t, err)
		assert.Len(t, history, 2)
		if len(history) == 2 {
			assert.Equal(t, constant.RoleUser, history[0].Role)
			assert.Equal(t, constant.RoleAssistant, history[1].Role)
		}

		uow.Rollback()

		// After rollback the transcript must be gone.
		leftovers, err := uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().FindAll(ctx,
			specification.BySessionID{SessionID: sessionId},
		)
		assert.NoError(t, err)
		assert.Empty(t, leftovers, "rolled back turn must leave zero rows")

		// Cleanup the committed fixtures.
		_ = uow.DocumentRepository().Delete(ctx, docId)
		_ = uow.UserRepository().Delete(ctx, userId)
	})
}
