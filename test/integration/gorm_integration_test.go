package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/unitofwork"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/database"
)

func connectTestDB(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()

	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err, "failed to connect to DB")

	return unitofwork.NewRepositoryFactory(gormDB)
}

func TestUnitOfWorkWiring(t *testing.T) {
	factory := connectTestDB(t)
	uow := factory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())
	assert.NotNil(t, uow.ContractSessionRepository())
	assert.NotNil(t, uow.ContractMessageRepository())
	assert.NotNil(t, uow.LegalDocumentRepository())
	assert.NotNil(t, uow.LegalChunkRepository())
}

func TestUserRoundTrip(t *testing.T) {
	factory := connectTestDB(t)
	ctx := context.Background()
	users := factory.NewUnitOfWork(ctx).UserRepository()

	email := fmt.Sprintf("it-%s@example.test", uuid.New().String()[:8])
	hash := "not-a-real-hash"
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: &hash,
		FullName:     "Integration Test",
		Role:         entity.UserRoleUser,
		Status:       entity.UserStatusActive,
		Language:     "ar",
		CreatedAt:    time.Now(),
	}

	require.NoError(t, users.Create(ctx, user))
	defer users.Delete(ctx, user.Id)

	found, err := users.FindOne(ctx, specification.ByEmail{Email: email})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.Id, found.Id)
	assert.Equal(t, "Integration Test", found.FullName)
	assert.Equal(t, entity.UserRoleUser, found.Role)
}

func TestChatSessionRoundTrip(t *testing.T) {
	factory := connectTestDB(t)
	ctx := context.Background()
	uow := factory.NewUnitOfWork(ctx)

	hash := "not-a-real-hash"
	user := &entity.User{
		Id:           uuid.New(),
		Email:        fmt.Sprintf("it-%s@example.test", uuid.New().String()[:8]),
		PasswordHash: &hash,
		FullName:     "Session Round Trip",
		Role:         entity.UserRoleUser,
		Status:       entity.UserStatusActive,
		Language:     "fr",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, uow.UserRepository().Create(ctx, user))
	defer uow.UserRepository().Delete(ctx, user.Id)

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    user.Id,
		Title:     "هل يمكنني فسخ عقد الكراء؟",
		CreatedAt: time.Now(),
	}
	require.NoError(t, uow.ChatSessionRepository().Create(ctx, session))
	defer uow.ChatSessionRepository().Delete(ctx, session.Id)

	found, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, session.Title, found.Title)
	assert.Equal(t, user.Id, found.UserId)

	msg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          "user",
		Content:       "هل يمكنني فسخ عقد الكراء؟",
		CreatedAt:     time.Now(),
	}
	require.NoError(t, uow.ChatMessageRepository().Create(ctx, msg))
	defer uow.ChatMessageRepository().DeleteBySessionId(ctx, session.Id)

	msgs, err := uow.ChatMessageRepository().FindAll(ctx, specification.ByChatSessionID{SessionID: session.Id})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.Content, msgs[0].Content)
}
