package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/internal/db"
	"github.com/threemeal/threemeal-backend/internal/storage"
	"github.com/threemeal/threemeal-backend/internal/websocket"
	"github.com/threemeal/threemeal-backend/pkg/events"
	"github.com/threemeal/threemeal-backend/pkg/util"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret"

func setupServiceDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

// createUser inserts a user holding roles.
func createUser(t *testing.T, testDB *gorm.DB, nickname string, roles ...model.RoleName) *model.User {
	hashed, err := util.HashPassword("secret")
	require.NoError(t, err)

	user := &model.User{
		Nickname:     nickname,
		Email:        nickname + "@example.com",
		PasswordHash: hashed,
	}
	userRepo := repository.NewUserRepository(testDB)
	roleRepo := repository.NewRoleRepository(testDB)
	require.NoError(t, userRepo.Create(user))
	for _, name := range roles {
		role, err := roleRepo.GetOrCreate(name)
		require.NoError(t, err)
		require.NoError(t, userRepo.AddRole(user.ID, role))
	}
	loaded, err := userRepo.FindByID(user.ID)
	require.NoError(t, err)
	return loaded
}

func principalOf(user *model.User) model.Principal {
	return model.PrincipalFromUser(user)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	fail    map[string]bool // filenames whose presign fails
}

func (s *fakeStorage) PresignUpload(_ context.Context, folder, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if err := storage.ValidateContentType(contentType, storage.AllowedImageTypes); err != nil {
		return nil, err
	}
	if s.fail[filename] {
		return nil, errors.New("presign failed")
	}
	key := fmt.Sprintf("%s/%s", folder, filename)
	return &storage.PresignedURLResponse{
		UploadURL: "https://upload.example.com/" + key,
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
	}, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) Events() []events.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.OrderEvent(nil), p.events...)
}

type userNotification struct {
	UserID       uint
	Notification websocket.Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []userNotification
}

func (n *fakeNotifier) NotifyUser(userID uint, notification websocket.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, userNotification{UserID: userID, Notification: notification})
}

func (n *fakeNotifier) Sent() []userNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]userNotification(nil), n.sent...)
}
