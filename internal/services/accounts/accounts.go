// Package accounts содержит бизнес-логику учётных записей: регистрацию,
// вход, профиль, смену пароля, удаление и проверку сессионных токенов.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"

	"github.com/Aline875/back/internal/lib/jwt"
	"github.com/Aline875/back/internal/lib/sl"
	"github.com/Aline875/back/internal/models"
	"github.com/Aline875/back/internal/storage"
)

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	InsertUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, username, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Hasher хеширует и проверяет пароли.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) (bool, error)
}

// Cache — кеш профилей пользователей. Invalidate меняет версию ключа,
// SetIfVersion записывает значение, только если версия не менялась.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, value any, version int64, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher публикует события учётных записей.
type EventPublisher interface {
	Publish(ctx context.Context, event models.AccountEvent) error
}

// Recorder собирает метрики операций.
type Recorder interface {
	ObserveOperation(operation, result string)
	ObserveHashing(d time.Duration)
}

// Option настраивает необязательные зависимости сервиса.
type Option func(*Service)

// WithCache включает кеширование профилей на ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithPublisher включает публикацию событий.
func WithPublisher(events EventPublisher) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithMetrics включает сбор метрик.
func WithMetrics(metrics Recorder) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// dummyPassword хешируется один раз в NewService и используется при входе с неизвестным
// email, чтобы время ответа не зависело от существования аккаунта.
const dummyPassword = "dummy-password-for-constant-time-login"

// Service реализует операции над учётными записями.
type Service struct {
	users    UserRepository
	hasher   Hasher
	tokens   jwt.Maker
	log      *slog.Logger
	validate *validator.Validate

	cache    Cache
	cacheTTL time.Duration
	events   EventPublisher
	metrics  Recorder

	dummyHash string
}

// NewService создаёт сервис учётных записей. Ошибку возвращает только
// подготовка хеша для входа с неизвестным email.
func NewService(log *slog.Logger, users UserRepository, hasher Hasher, tokens jwt.Maker, opts ...Option) (*Service, error) {
	const op = "accounts.NewService"
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		log:      log,
		validate:  newValidator(),
		dummyHash: dummyHash,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput — данные для регистрации.
// Role не приходит из HTTP: самостоятельная регистрация всегда создаёт common.
type RegisterInput struct {
	Username string      `json:"username" validate:"min=3"`
	Email    string      `json:"email" validate:"contains=@"`
	Password string      `json:"password" validate:"min=6,bcrypt"`
	Role     models.Role `json:"-"`
}

// LoginInput — данные для входа.
type LoginInput struct {
	Email    string `json:"email" validate:"contains=@"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput — частичное обновление профиля. Nil-поля не меняются.
type UpdateProfileInput struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// ChangePasswordInput — данные для смены пароля.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"min=6,bcrypt"`
}

// DeleteAccountInput — подтверждение удаления паролем.
type DeleteAccountInput struct {
	Password string `json:"password" validate:"required"`
}

// AuthResult возвращается при регистрации и входе.
type AuthResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

type profileFields struct {
	Username string `json:"username" validate:"min=3"`
	Email    string `json:"email" validate:"contains=@"`
}

// Register создаёт пользователя и сразу выдаёт ему токен.
func (s *Service) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	const op = "accounts.Register"
	defer s.observe("register", &err)

	in.Username = normalizeUsername(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = models.RoleCommon
	}
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, &ValidationError{Field: "role", Reason: "must be common or admin"}
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, s.storeError(op, err)
	}
	if _, err := s.users.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, s.storeError(op, err)
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.InsertUser(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         in.Role,
	})
	if err != nil {
		return nil, s.translateWrite(op, err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.Int64("user_id", user.ID))
	s.publish(ctx, models.EventRegistered, user)

	return &AuthResult{User: user.Public(), Token: token}, nil
}

// Login проверяет пароль и выдаёт токен.
func (s *Service) Login(ctx context.Context, in LoginInput) (res *AuthResult, err error) {
	const op = "accounts.Login"
	defer s.observe("login", &err)

	in.Email = normalizeEmail(in.Email)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.burnDummyCompare(in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, s.storeError(op, err)
	}

	ok, err := s.verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AuthResult{User: user.Public(), Token: token}, nil
}

// GetProfile возвращает профиль пользователя по id.
func (s *Service) GetProfile(ctx context.Context, id int64) (res *models.User, err error) {
	const op = "accounts.GetProfile"
	defer s.observe("get_profile", &err)

	key := cacheKey(id)
	var version int64
	fill := false
	if s.cache != nil {
		var cached models.User
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("profile cache read failed", sl.Op(op), sl.Err(err))
		} else if found {
			return &cached, nil
		}

		// Версия читается до хранилища: если запись изменят между чтением
		// и заполнением кеша, устаревший профиль не попадёт в кеш.
		version, err = s.cache.Version(ctx, key)
		if err != nil {
			s.log.Warn("profile cache version read failed", sl.Op(op), sl.Err(err))
		} else {
			fill = true
		}
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, s.translateRead(op, err)
	}
	public := user.Public()

	if fill {
		stored, err := s.cache.SetIfVersion(ctx, key, public, version, s.cacheTTL)
		if err != nil {
			s.log.Warn("profile cache write failed", sl.Op(op), sl.Err(err))
		} else if !stored {
			s.log.Debug("profile changed during read, cache fill skipped", slog.Int64("user_id", id))
		}
	}
	return &public, nil
}

// UpdateProfile меняет username и/или email.
func (s *Service) UpdateProfile(ctx context.Context, id int64, in UpdateProfileInput) (res *models.User, err error) {
	const op = "accounts.UpdateProfile"
	defer s.observe("update_profile", &err)

	current, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, s.translateRead(op, err)
	}

	fields := profileFields{Username: current.Username, Email: current.Email}
	if in.Username != nil {
		fields.Username = normalizeUsername(*in.Username)
	}
	if in.Email != nil {
		fields.Email = normalizeEmail(*in.Email)
	}
	if err := s.validateStruct(fields); err != nil {
		return nil, err
	}

	if fields.Email != current.Email {
		if err := s.ensureFree(ctx, op, s.users.GetUserByEmail, fields.Email, id, ErrDuplicateEmail); err != nil {
			return nil, err
		}
	}
	if fields.Username != current.Username {
		if err := s.ensureFree(ctx, op, s.users.GetUserByUsername, fields.Username, id, ErrDuplicateUsername); err != nil {
			return nil, err
		}
	}

	updated, err := s.users.UpdateProfile(ctx, id, fields.Username, fields.Email)
	if err != nil {
		return nil, s.translateWrite(op, err)
	}

	s.invalidate(ctx, op, id)
	s.publish(ctx, models.EventUpdated, updated)

	public := updated.Public()
	return &public, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, id int64, in ChangePasswordInput) (err error) {
	const op = "accounts.ChangePassword"
	defer s.observe("change_password", &err)

	if in.NewPassword == in.CurrentPassword {
		return ErrSamePassword
	}
	if err := s.validateStruct(in); err != nil {
		return err
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return s.translateRead(op, err)
	}

	ok, err := s.verify(in.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hashed, err := s.hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, id, hashed); err != nil {
		return s.translateRead(op, err)
	}

	s.log.Info("password changed", slog.Int64("user_id", id))
	s.invalidate(ctx, op, id)
	s.publish(ctx, models.EventPasswordChanged, user)
	return nil
}

// DeleteAccount удаляет учётную запись после подтверждения паролем.
func (s *Service) DeleteAccount(ctx context.Context, id int64, in DeleteAccountInput) (err error) {
	const op = "accounts.DeleteAccount"
	defer s.observe("delete_account", &err)

	if err := s.validateStruct(in); err != nil {
		return err
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return s.translateRead(op, err)
	}

	ok, err := s.verify(in.Password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return s.translateRead(op, err)
	}

	s.log.Info("account deleted", slog.Int64("user_id", id))
	s.invalidate(ctx, op, id)
	s.publish(ctx, models.EventDeleted, user)
	return nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Service) ListUsers(ctx context.Context) (res []models.User, err error) {
	const op = "accounts.ListUsers"
	defer s.observe("list_users", &err)

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, s.storeError(op, err)
	}
	res = make([]models.User, 0, len(users))
	for _, u := range users {
		res = append(res, u.Public())
	}
	return res, nil
}

// ValidateToken проверяет токен и возвращает его claims.
func (s *Service) ValidateToken(_ context.Context, token string) (claims *jwt.CustomClaims, err error) {
	defer s.observe("validate_token", &err)

	claims, err = s.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func (s *Service) ensureFree(
	ctx context.Context,
	op string,
	lookup func(context.Context, string) (*models.User, error),
	value string,
	selfID int64,
	conflict error,
) error {
	existing, err := lookup(ctx, value)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return conflict
		}
		return nil
	case errors.Is(err, storage.ErrUserNotFound):
		return nil
	default:
		return s.storeError(op, err)
	}
}

// translateRead переводит ошибки чтения и изменения по id.
func (s *Service) translateRead(op string, err error) error {
	if errors.Is(err, storage.ErrUserNotFound) {
		return ErrNotFound
	}
	return s.storeError(op, err)
}

// translateWrite переводит ошибки вставки и обновления. Уникальный индекс
// остаётся последней защитой от гонок при параллельной регистрации.
func (s *Service) translateWrite(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrEmailExists):
		return ErrDuplicateEmail
	case errors.Is(err, storage.ErrUsernameExists):
		return ErrDuplicateUsername
	case errors.Is(err, storage.ErrUserNotFound):
		return ErrNotFound
	default:
		return s.storeError(op, err)
	}
}

func (s *Service) storeError(op string, err error) error {
	s.log.Error("storage failure", sl.Op(op), sl.Err(err))
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

func (s *Service) hash(plain string) (string, error) {
	start := time.Now()
	hashed, err := s.hasher.Hash(plain)
	if s.metrics != nil {
		s.metrics.ObserveHashing(time.Since(start))
	}
	return hashed, err
}

func (s *Service) verify(plain, hashed string) (bool, error) {
	start := time.Now()
	ok, err := s.hasher.Verify(plain, hashed)
	if s.metrics != nil {
		s.metrics.ObserveHashing(time.Since(start))
	}
	return ok, err
}

func (s *Service) burnDummyCompare(plain string) {
	_, _ = s.verify(plain, s.dummyHash)
}

func (s *Service) invalidate(ctx context.Context, op string, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("profile cache invalidation failed", sl.Op(op), sl.Err(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType models.EventType, user *models.User) {
	if s.events == nil {
		return
	}
	event := models.NewAccountEvent(eventType, user)
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn("failed to publish account event",
			slog.String("type", string(eventType)),
			slog.Int64("user_id", user.ID),
			sl.Err(err),
		)
	}
}

func (s *Service) observe(operation string, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOperation(operation, Classify(*err))
}

func cacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}
