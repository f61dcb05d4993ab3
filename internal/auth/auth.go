package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"plazabi/internal/storage"
)

// Blob keys for the account, session and audit collections. Part of the
// stored-data contract.
const (
	BlobKeyUsers   = "via_cristais_users"
	BlobKeySession = "via_cristais_user"
	BlobKeyLogs    = "via_cristais_logs"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

func (r Role) IsValid() bool { return r == RoleAdmin || r == RoleOperator }

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusBlocked  Status = "BLOCKED"
)

// Audit actions.
const (
	ActionLogin         = "LOGIN"
	ActionCreate        = "CREATE"
	ActionDelete        = "DELETE"
	ActionViewSensitive = "VIEW_SENSITIVE"
	ActionExport        = "EXPORT"
	ActionUpdate        = "UPDATE"
)

var (
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	ErrUserBlocked        = errors.New("usuário bloqueado")
	ErrUserPending        = errors.New("cadastro pendente de aprovação")
	ErrEmailTaken         = errors.New("e-mail já cadastrado")
	ErrTermsNotAccepted   = errors.New("aceite os termos LGPD")
	ErrUserNotFound       = errors.New("usuário não encontrado")
	ErrNoSession          = errors.New("nenhuma sessão ativa")
)

type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            Role   `json:"role"`
	Status          Status `json:"status"`
	CreatedAt       string `json:"createdAt"`
	PasswordHash    string `json:"passwordHash"`
	AcceptedTermsAt string `json:"acceptedTermsAt,omitempty"`
	AccessCode      string `json:"accessCode,omitempty"`
}

type AuditLog struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Action    string `json:"action"`
	Target    string `json:"target"`
	Timestamp string `json:"timestamp"`
}

// Blobs is the persistence surface the service needs.
type Blobs interface {
	GetBlob(ctx context.Context, key string) (string, error)
	PutBlob(ctx context.Context, key, value string) error
	DeleteBlob(ctx context.Context, key string) error
}

// Service implements the demo account flow: two seeded accounts, self-signup
// held in PENDING until an admin approves it, and an audit trail of every
// sensitive action. It is demo-grade on purpose; there is no real
// authorization enforcement behind it.
type Service struct {
	mu    sync.Mutex
	blobs Blobs
	now   func() time.Time
	rng   *rand.Rand
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

func NewService(blobs Blobs, opts ...Option) *Service {
	s := &Service{
		blobs: blobs,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HashPassword returns the stored form of a password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Load ensures the user collection exists, seeding the two demo accounts
// when it is missing or unreadable.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err == nil && len(users) > 0 {
		return nil
	}

	nowStr := s.now().Format(time.RFC3339)
	seed := []User{
		{
			ID:           "admin-1",
			Email:        "admin@viacristais.com",
			Name:         "Administrador Demo",
			Role:         RoleAdmin,
			Status:       StatusActive,
			CreatedAt:    nowStr,
			PasswordHash: HashPassword("admin123"),
		},
		{
			ID:           "op-1",
			Email:        "operador@viacristais.com",
			Name:         "Operador Padrão",
			Role:         RoleOperator,
			Status:       StatusActive,
			CreatedAt:    nowStr,
			PasswordHash: HashPassword("123456"),
		},
	}
	if err := s.saveUsers(ctx, seed); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Seeded demo accounts", "count", len(seed))
	return nil
}

// SignIn checks credentials and account status, stores the session and logs
// the login.
func (s *Service) SignIn(ctx context.Context, email, password string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return User{}, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range users {
		if strings.ToLower(u.Email) != email {
			continue
		}
		if u.PasswordHash != HashPassword(password) {
			return User{}, ErrInvalidCredentials
		}
		switch u.Status {
		case StatusBlocked:
			return User{}, ErrUserBlocked
		case StatusPending:
			return User{}, ErrUserPending
		}

		if err := s.putJSON(ctx, BlobKeySession, u); err != nil {
			return User{}, err
		}
		if err := s.appendLog(ctx, u, ActionLogin, "Realizou login no sistema"); err != nil {
			slog.ErrorContext(ctx, "Failed to write login audit entry", "error", err)
		}
		return u, nil
	}
	return User{}, ErrInvalidCredentials
}

// SignUp registers a new operator account in PENDING state.
func (s *Service) SignUp(ctx context.Context, name, email, password string, acceptedTerms bool) (User, error) {
	if !acceptedTerms {
		return User{}, ErrTermsNotAccepted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range users {
		if strings.ToLower(u.Email) == email {
			return User{}, ErrEmailTaken
		}
	}

	nowStr := s.now().Format(time.RFC3339)
	u := User{
		ID:              uuid.NewString(),
		Email:           email,
		Name:            strings.TrimSpace(name),
		Role:            RoleOperator,
		Status:          StatusPending,
		CreatedAt:       nowStr,
		PasswordHash:    HashPassword(password),
		AcceptedTermsAt: nowStr,
	}
	if err := s.saveUsers(ctx, append(users, u)); err != nil {
		return User{}, err
	}

	slog.InfoContext(ctx, "Signup request stored", "user_id", u.ID)
	return u, nil
}

// SignOut clears the stored session.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blobs.DeleteBlob(ctx, BlobKeySession)
}

// Session returns the currently stored session user.
func (s *Service) Session(ctx context.Context) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.blobs.GetBlob(ctx, BlobKeySession)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return User{}, ErrNoSession
	}
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, ErrNoSession
	}
	return u, nil
}

// ApproveUser activates a pending account with the given role and returns
// the generated access code.
func (s *Service) ApproveUser(ctx context.Context, actor User, id string, role Role) (string, error) {
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := fmt.Sprintf("%06d", 100000+s.rng.Intn(900000))
	err := s.updateUser(ctx, id, func(u *User) {
		u.Status = StatusApproved
		u.Role = role
		u.AccessCode = code
	})
	if err != nil {
		return "", err
	}
	if err := s.appendLog(ctx, actor, ActionCreate, fmt.Sprintf("Aprovou usuário %s como %s", id, role)); err != nil {
		slog.ErrorContext(ctx, "Failed to write approval audit entry", "error", err)
	}
	return code, nil
}

// BlockUser marks an account blocked.
func (s *Service) BlockUser(ctx context.Context, actor User, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateUser(ctx, id, func(u *User) { u.Status = StatusBlocked }); err != nil {
		return err
	}
	return s.appendLog(ctx, actor, ActionUpdate, fmt.Sprintf("Bloqueou usuário %s", id))
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, actor User, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	kept := users[:0]
	found := false
	for _, u := range users {
		if u.ID == id {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		return ErrUserNotFound
	}
	if err := s.saveUsers(ctx, kept); err != nil {
		return err
	}
	return s.appendLog(ctx, actor, ActionDelete, fmt.Sprintf("Excluiu usuário %s", id))
}

// Users returns all stored accounts.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUsers(ctx)
}

// AuditLogs returns the audit trail, newest first.
func (s *Service) AuditLogs(ctx context.Context) ([]AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLogs(ctx)
}

// LogAction appends an audit entry on behalf of a user.
func (s *Service) LogAction(ctx context.Context, actor User, action, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLog(ctx, actor, action, target)
}

func (s *Service) updateUser(ctx context.Context, id string, mutate func(*User)) error {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == id {
			mutate(&users[i])
			return s.saveUsers(ctx, users)
		}
	}
	return ErrUserNotFound
}

func (s *Service) appendLog(ctx context.Context, actor User, action, target string) error {
	if actor.ID == "" {
		return nil
	}
	logs, err := s.loadLogs(ctx)
	if err != nil {
		return err
	}
	entry := AuditLog{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		UserName:  actor.Name,
		Action:    action,
		Target:    target,
		Timestamp: s.now().Format(time.RFC3339),
	}
	return s.putJSON(ctx, BlobKeyLogs, append([]AuditLog{entry}, logs...))
}

func (s *Service) loadUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.getJSON(ctx, BlobKeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) saveUsers(ctx context.Context, users []User) error {
	return s.putJSON(ctx, BlobKeyUsers, users)
}

func (s *Service) loadLogs(ctx context.Context) ([]AuditLog, error) {
	var logs []AuditLog
	if err := s.getJSON(ctx, BlobKeyLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Service) getJSON(ctx context.Context, key string, out any) error {
	raw, err := s.blobs.GetBlob(ctx, key)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load blob %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		// Unreadable collections are treated as empty, like the record blob.
		slog.WarnContext(ctx, "Discarding corrupt blob", "key", key, "error", err)
	}
	return nil
}

func (s *Service) putJSON(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal blob %q: %w", key, err)
	}
	if err := s.blobs.PutBlob(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("persist blob %q: %w", key, err)
	}
	return nil
}
